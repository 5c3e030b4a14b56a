package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNode struct{ start uint32 }

func (n fakeNode) Type() string      { return "class_declaration" }
func (n fakeNode) StartByte() uint32 { return n.start }
func (n fakeNode) EndByte() uint32   { return n.start + 1 }

// fakeWorld wires declarations together by name.
type fakeWorld struct {
	decls    map[string]*Declaration
	supers   map[string]string
	props    map[string][]*ReactiveProperty
	resolves int
	heritage int
	computed int
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		decls:  make(map[string]*Declaration),
		supers: make(map[string]string),
		props:  make(map[string][]*ReactiveProperty),
	}
}

func (w *fakeWorld) class(name, super string) *Declaration {
	d := NewClassDeclaration(name, fakeNode{start: uint32(len(w.decls))}, "/pkg/"+name+".ts", w)
	w.decls[name] = d
	if super != "" {
		w.supers[name] = super
	}
	return d
}

func (w *fakeWorld) element(name, super string, props ...*ReactiveProperty) *Declaration {
	d := NewLitElementDeclaration(name, fakeNode{start: uint32(len(w.decls))}, "/pkg/"+name+".ts", w)
	w.decls[name] = d
	if super != "" {
		w.supers[name] = super
	}
	w.props[name] = props
	return d
}

func (w *fakeWorld) Heritage(d *Declaration) (ClassHeritage, error) {
	w.heritage++
	super, ok := w.supers[d.Name]
	if !ok {
		return ClassHeritage{}, nil
	}
	return ClassHeritage{SuperClass: NewReference(super, d.Module, w)}, nil
}

func (w *fakeWorld) ReactiveProperties(d *Declaration) (*PropertyMap, error) {
	w.computed++
	m := NewPropertyMap()
	for _, p := range w.props[d.Name] {
		m.Set(p)
	}
	return m, nil
}

func (w *fakeWorld) Tagname(d *Declaration) (string, bool) {
	if d.Name == "" {
		return "", false
	}
	return "x-" + d.Name, true
}

func (w *fakeWorld) Resolve(ref *Reference) (*Declaration, error) {
	w.resolves++
	d, ok := w.decls[ref.Name]
	if !ok {
		return nil, &ResolutionError{Name: ref.Name, Module: ref.Module, Reason: "not declared"}
	}
	return d, nil
}

func prop(name string) *ReactiveProperty {
	return &ReactiveProperty{Name: name, Attribute: name}
}

func TestKindPredicates(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	plain := w.class("Plain", "")
	el := w.element("El", "")

	assert.True(t, plain.IsClassDeclaration())
	assert.False(t, plain.IsLitElementDeclaration())
	assert.True(t, el.IsClassDeclaration())
	assert.True(t, el.IsLitElementDeclaration())
	assert.Equal(t, KindLitElement, el.Kind())
	assert.Equal(t, "class", KindClass.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestHeritageAbsentWithoutExtends(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	d := w.class("Root", "")

	h, err := d.Heritage()
	require.NoError(t, err)
	assert.Nil(t, h.SuperClass)
}

func TestHeritageComputedOnce(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	w.class("Base", "")
	d := w.class("Child", "Base")

	h1, err := d.Heritage()
	require.NoError(t, err)
	h2, err := d.Heritage()
	require.NoError(t, err)
	assert.Same(t, h1.SuperClass, h2.SuperClass)
	assert.Equal(t, 1, w.heritage)
}

func TestDereferenceIsIdentityStable(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	base := w.class("Base", "")
	ref := NewReference("Base", "/pkg/child.ts", w)

	first, err := ref.Dereference(KindClass)
	require.NoError(t, err)
	second, err := ref.Dereference(KindClass)
	require.NoError(t, err)
	assert.Same(t, base, first)
	assert.Same(t, first, second)
	assert.Equal(t, 1, w.resolves)
}

func TestDereferenceTypeAssertion(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	w.class("Base", "")
	ref := NewReference("Base", "/pkg/child.ts", w)

	_, err := ref.Dereference(KindLitElement)
	var tae *TypeAssertionError
	require.ErrorAs(t, err, &tae)
	assert.Equal(t, KindLitElement, tae.Want)
	assert.Equal(t, KindClass, tae.Got)

	// The cached target still satisfies the wider kind.
	d, err := ref.Dereference(KindClass)
	require.NoError(t, err)
	assert.Equal(t, "Base", d.Name)
}

func TestDereferenceUnresolved(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	ref := NewReference("HTMLElement", "/pkg/a.ts", w)

	_, err := ref.Dereference(KindClass)
	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "HTMLElement", re.Name)
	assert.Contains(t, err.Error(), "not declared")
}

type errResolver struct{}

func (errResolver) Resolve(*Reference) (*Declaration, error) {
	return nil, errors.New("boom")
}

func TestDereferenceWrapsForeignErrors(t *testing.T) {
	t.Parallel()
	ref := NewImportReference("Base", "/pkg/a.ts", "./base.js", "Base", errResolver{})
	assert.True(t, ref.IsImport())

	_, err := ref.Dereference(KindClass)
	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.EqualError(t, errors.Unwrap(err), "boom")
}

func TestWalkHeritageCycle(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	a := w.class("A", "B")
	w.class("B", "C")
	w.class("C", "A")

	_, err := Ancestors(a)
	var ce *CyclicHeritageError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"A", "B", "C", "A"}, ce.Chain)
}

func TestWalkHeritageStopsEarly(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	w.class("Base", "")
	w.element("Middle", "Base")
	leaf := w.element("Leaf", "Middle")

	ancestors, err := Ancestors(leaf)
	require.NoError(t, err)
	require.Len(t, ancestors, 2)
	assert.Equal(t, "Middle", ancestors[0].Name)

	base, err := ElementBase(leaf)
	require.NoError(t, err)
	require.NotNil(t, base)
	assert.Equal(t, "Base", base.Name)
}

func TestReactivePropertiesOnPlainClass(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	d := w.class("Plain", "")

	_, err := d.ReactiveProperties()
	var tae *TypeAssertionError
	require.ErrorAs(t, err, &tae)
	_, ok := d.Tagname()
	assert.False(t, ok)
}

func TestReactivePropertiesCached(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	d := w.element("El", "", prop("a"), prop("b"))

	first, err := d.ReactiveProperties()
	require.NoError(t, err)
	second, err := d.ReactiveProperties()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, []string{"a", "b"}, second.Names())
	assert.Equal(t, 1, w.computed)
}

func TestAllReactivePropertiesOverlay(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	w.class("LitElement", "")
	w.element("Base", "LitElement", prop("shared"), prop("base"))
	own := &ReactiveProperty{Name: "shared", Attribute: "shared-attr", Reflect: true}
	leaf := w.element("Leaf", "Base", own, prop("leaf"))

	ownProps, err := leaf.ReactiveProperties()
	require.NoError(t, err)
	assert.Equal(t, 2, ownProps.Len())

	all, err := leaf.AllReactiveProperties()
	require.NoError(t, err)
	assert.Equal(t, []string{"shared", "base", "leaf"}, all.Names())
	got, ok := all.Get("shared")
	require.True(t, ok)
	assert.Same(t, own, got)
}

func TestAllReactivePropertiesUnresolvedBase(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	el := w.element("El", "LitElement", prop("a"))

	all, err := el.AllReactiveProperties()
	require.NoError(t, err)
	assert.Equal(t, 1, all.Len())
}

func TestTagname(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	el := w.element("El", "")

	name, ok := el.Tagname()
	require.True(t, ok)
	assert.Equal(t, "x-El", name)
}

func TestModuleGetDeclaration(t *testing.T) {
	t.Parallel()
	w := newFakeWorld()
	first := w.class("Dup", "")
	second := NewClassDeclaration("Dup", fakeNode{start: 40}, "/pkg/m.ts", w)
	anon := NewClassDeclaration("", fakeNode{start: 50}, "/pkg/m.ts", w)
	m := NewModule("/pkg/m.ts", "m.ts", "pkg", []*Declaration{first, second, anon})

	d, ok := m.GetDeclaration("Dup")
	require.True(t, ok)
	assert.Same(t, first, d)
	_, ok = m.GetDeclaration("Missing")
	assert.False(t, ok)
	assert.Len(t, m.Declarations, 3)

	pkg := &Package{Name: "pkg", Modules: []*Module{m}}
	got, ok := pkg.Module("m.ts")
	require.True(t, ok)
	assert.Same(t, m, got)
}

func TestNilPropertyMap(t *testing.T) {
	t.Parallel()
	var m *PropertyMap
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Names())
	_, ok := m.Get("x")
	assert.False(t, ok)
	for range m.All() {
		t.Fatal("nil map yielded a property")
	}
}

// selfReferencing reads a class's heritage while computing it.
type selfReferencing struct {
	*fakeWorld
	inner error
}

func (s *selfReferencing) Heritage(d *Declaration) (ClassHeritage, error) {
	_, s.inner = d.Heritage()
	return ClassHeritage{}, s.inner
}

func TestHeritageReentry(t *testing.T) {
	t.Parallel()
	s := &selfReferencing{fakeWorld: newFakeWorld()}
	d := NewClassDeclaration("Loop", fakeNode{}, "/pkg/Loop.ts", s)

	_, err := d.Heritage()
	var cyc *CyclicHeritageError
	require.ErrorAs(t, err, &cyc)
	assert.Equal(t, []string{"Loop", "Loop"}, cyc.Chain)
	require.ErrorAs(t, s.inner, &cyc)
}
