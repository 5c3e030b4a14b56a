package graph

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/phobologic/litmodel/internal/model"
)

type fakeNode struct{ start uint32 }

func (n fakeNode) Type() string      { return "class_declaration" }
func (n fakeNode) StartByte() uint32 { return n.start }
func (n fakeNode) EndByte() uint32   { return n.start + 1 }

// world is a set of modules whose classes name their superclass by
// "module#Class".
type world struct {
	modules map[string]*model.Module
	decls   map[string]*model.Declaration
	supers  map[*model.Declaration]string
}

func newWorld() *world {
	return &world{
		modules: make(map[string]*model.Module),
		decls:   make(map[string]*model.Declaration),
		supers:  make(map[*model.Declaration]string),
	}
}

// add declares classes in a module. Each class is "Name" or "Name>module#Super".
func (w *world) add(pkg, path string, classes ...string) *model.Module {
	var decls []*model.Declaration
	for i, c := range classes {
		name, super, _ := strings.Cut(c, ">")
		d := model.NewClassDeclaration(name, fakeNode{start: uint32(i)}, "/"+pkg+"/"+path, w)
		w.decls["/"+pkg+"/"+path+"#"+name] = d
		if super != "" {
			w.supers[d] = super
		}
		decls = append(decls, d)
	}
	m := model.NewModule("/"+pkg+"/"+path, path, pkg, decls)
	w.modules[m.Path] = m
	return m
}

func (w *world) Heritage(d *model.Declaration) (model.ClassHeritage, error) {
	super, ok := w.supers[d]
	if !ok {
		return model.ClassHeritage{}, nil
	}
	return model.ClassHeritage{SuperClass: model.NewReference(super, d.Module, w)}, nil
}

func (w *world) ReactiveProperties(*model.Declaration) (*model.PropertyMap, error) {
	return model.NewPropertyMap(), nil
}

func (w *world) Tagname(*model.Declaration) (string, bool) { return "", false }

func (w *world) Resolve(ref *model.Reference) (*model.Declaration, error) {
	d, ok := w.decls[ref.Name]
	if !ok {
		return nil, &model.ResolutionError{Name: ref.Name, Module: ref.Module, Reason: "not declared in module"}
	}
	return d, nil
}

func (w *world) Module(path string) (*model.Module, error) {
	m, ok := w.modules[path]
	if !ok {
		return nil, fmt.Errorf("%s: no module", path)
	}
	return m, nil
}

func TestBuildHeritage(t *testing.T) {
	t.Parallel()

	w := newWorld()
	w.add("lit-element", "lit-element.d.ts", "LitElement")
	a := w.add("app", "src/a.ts", "A>/lit-element/lit-element.d.ts#LitElement", "Helper")
	b := w.add("app", "src/b.ts", "B>/app/src/a.ts#A", "C>Missing")
	pkg := &model.Package{Name: "app", Modules: []*model.Module{b, a}}

	edges := BuildHeritage(pkg, w)
	if len(edges) != 3 {
		t.Fatalf("expected 3 edges, got %d: %+v", len(edges), edges)
	}

	e := edges[0]
	if e.Module != "src/a.ts" || e.Class != "A" || e.Target != "LitElement" ||
		e.TargetPackage != "lit-element" || e.TargetModule != "lit-element.d.ts" {
		t.Errorf("edge 0: %+v", e)
	}
	if !e.Resolved() || e.TargetKind != model.KindClass {
		t.Errorf("edge 0 should resolve to a class: %+v", e)
	}

	if edges[1].Class != "B" || edges[1].TargetModule != "src/a.ts" {
		t.Errorf("edge 1: %+v", edges[1])
	}

	c := edges[2]
	if c.Class != "C" || c.Resolved() {
		t.Errorf("edge 2 should be unresolved: %+v", c)
	}
	if c.Err != "not declared in module" {
		t.Errorf("edge 2 error = %q", c.Err)
	}
}

func TestModuleDeps(t *testing.T) {
	t.Parallel()

	edges := []Edge{
		{Package: "app", Module: "src/a.ts", Class: "A", TargetPackage: "lit", TargetModule: "index.d.ts", Target: "LitElement"},
		{Package: "app", Module: "src/a.ts", Class: "A2", TargetPackage: "lit", TargetModule: "index.d.ts", Target: "LitElement"},
		{Package: "app", Module: "src/b.ts", Class: "B", TargetPackage: "app", TargetModule: "src/a.ts", Target: "A"},
		{Package: "app", Module: "src/b.ts", Class: "B2", TargetPackage: "app", TargetModule: "src/b.ts", Target: "B"},
		{Package: "app", Module: "src/c.ts", Class: "C", Super: "Missing", Err: "not declared in module"},
	}

	deps := ModuleDeps(edges)
	if len(deps) != 2 {
		t.Fatalf("expected 2 deps, got %d: %+v", len(deps), deps)
	}
	if deps[0].Source != "src/a.ts" || deps[0].Target != "index.d.ts" || deps[0].TargetPackage != "lit" {
		t.Errorf("dep 0: %+v", deps[0])
	}
	if len(deps[0].Symbols) != 1 || deps[0].Symbols[0] != "LitElement" {
		t.Errorf("dep 0 symbols: %v", deps[0].Symbols)
	}
	if deps[1].Source != "src/b.ts" || deps[1].Target != "src/a.ts" {
		t.Errorf("dep 1: %+v", deps[1])
	}
}

func TestModuleDepsEmpty(t *testing.T) {
	t.Parallel()

	if deps := ModuleDeps(nil); len(deps) != 0 {
		t.Errorf("expected no deps, got %+v", deps)
	}
}

func TestRankUniform(t *testing.T) {
	t.Parallel()

	ranks := Rank("app", []string{"a.ts", "b.ts"}, nil)
	for _, id := range []string{"app:a.ts", "app:b.ts"} {
		if math.Abs(ranks[id]-0.5) > 1e-9 {
			t.Errorf("%s rank = %f, want 0.5", id, ranks[id])
		}
	}
}

func TestRankEmpty(t *testing.T) {
	t.Parallel()

	if ranks := Rank("app", nil, nil); ranks != nil {
		t.Errorf("expected nil ranks, got %v", ranks)
	}
}

func TestRankExtendedModuleWins(t *testing.T) {
	t.Parallel()

	deps := []Dependency{
		{Source: "b.ts", TargetPackage: "app", Target: "base.ts", Symbols: []string{"Base"}},
		{Source: "c.ts", TargetPackage: "app", Target: "base.ts", Symbols: []string{"Base"}},
		{Source: "base.ts", TargetPackage: "lit", Target: "index.d.ts", Symbols: []string{"LitElement"}},
	}
	ranks := Rank("app", []string{"base.ts", "b.ts", "c.ts"}, deps)

	if _, ok := ranks["lit:index.d.ts"]; !ok {
		t.Fatal("dependency module missing from ranks")
	}
	if ranks["app:base.ts"] <= ranks["app:b.ts"] {
		t.Errorf("base.ts (%f) should outrank b.ts (%f)", ranks["app:base.ts"], ranks["app:b.ts"])
	}
	if ranks["lit:index.d.ts"] <= ranks["app:c.ts"] {
		t.Errorf("index.d.ts (%f) should outrank c.ts (%f)", ranks["lit:index.d.ts"], ranks["app:c.ts"])
	}

	var sum float64
	for _, r := range ranks {
		sum += r
	}
	if math.Abs(sum-1.0) > 1e-3 {
		t.Errorf("ranks sum to %f, want 1", sum)
	}
}
