// Package graph builds the class inheritance graph of a package and ranks
// its modules by how much other code builds on them.
package graph

import (
	"errors"
	"math"
	"sort"

	"github.com/phobologic/litmodel/internal/model"
)

// ModuleSource materializes the module of a declaration file.
type ModuleSource interface {
	Module(path string) (*model.Module, error)
}

// Edge links a class to its superclass.
type Edge struct {
	Package string
	Module  string
	Class   string
	// Super is the superclass expression as written.
	Super     string
	Specifier string
	// TargetPackage, TargetModule and Target locate the resolved
	// superclass; they are empty when resolution failed.
	TargetPackage string
	TargetModule  string
	Target        string
	TargetKind    model.Kind
	// Err describes why the superclass did not resolve.
	Err string
}

// Resolved reports whether the superclass was found.
func (e *Edge) Resolved() bool { return e.TargetModule != "" }

// Dependency is a module-level edge: Source declares classes extending
// classes of Target.
type Dependency struct {
	Source        string
	TargetPackage string
	Target        string
	Symbols       []string
}

// BuildHeritage returns an edge for every class of pkg with a superclass,
// sorted by module and class. Unresolved superclasses keep the reason in
// Edge.Err.
func BuildHeritage(pkg *model.Package, src ModuleSource) []Edge {
	var edges []Edge
	for _, m := range pkg.Modules {
		for _, d := range m.Declarations {
			h, err := d.Heritage()
			if err != nil {
				edges = append(edges, Edge{Package: pkg.Name, Module: m.SourcePath, Class: d.Name, Err: err.Error()})
				continue
			}
			if h.SuperClass == nil {
				continue
			}
			e := Edge{
				Package:   pkg.Name,
				Module:    m.SourcePath,
				Class:     d.Name,
				Super:     h.SuperClass.Name,
				Specifier: h.SuperClass.Specifier,
			}
			super, err := h.SuperClass.Dereference(model.KindClass)
			if err == nil {
				var target *model.Module
				target, err = src.Module(super.Module)
				if err == nil {
					e.TargetPackage = target.PackageName
					e.TargetModule = target.SourcePath
					e.Target = super.Name
					e.TargetKind = super.Kind()
				}
			}
			if err != nil {
				var re *model.ResolutionError
				if errors.As(err, &re) && re.Reason != "" {
					e.Err = re.Reason
				} else {
					e.Err = err.Error()
				}
			}
			edges = append(edges, e)
		}
	}

	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].Module != edges[j].Module {
			return edges[i].Module < edges[j].Module
		}
		return edges[i].Class < edges[j].Class
	})
	return edges
}

// ModuleDeps folds resolved edges into module dependencies. Edges within a
// module are dropped.
func ModuleDeps(edges []Edge) []Dependency {
	type edgeKey struct{ src, pkg, tgt string }
	edgeSymbols := make(map[edgeKey][]string)
	for i := range edges {
		e := &edges[i]
		if !e.Resolved() {
			continue
		}
		if e.TargetPackage == e.Package && e.TargetModule == e.Module {
			continue // no self-edges
		}
		key := edgeKey{e.Module, e.TargetPackage, e.TargetModule}
		if !contains(edgeSymbols[key], e.Target) {
			edgeSymbols[key] = append(edgeSymbols[key], e.Target)
		}
	}

	var deps []Dependency
	for key, syms := range edgeSymbols {
		deps = append(deps, Dependency{
			Source:        key.src,
			TargetPackage: key.pkg,
			Target:        key.tgt,
			Symbols:       syms,
		})
	}

	// Sort for deterministic output
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].Source != deps[j].Source {
			return deps[i].Source < deps[j].Source
		}
		if deps[i].TargetPackage != deps[j].TargetPackage {
			return deps[i].TargetPackage < deps[j].TargetPackage
		}
		return deps[i].Target < deps[j].Target
	})
	return deps
}

// Rank applies PageRank to the module graph. An edge points from a module
// to the module it extends, so heavily extended modules rank highest.
// Nodes are keyed "package:path".
func Rank(rootPackage string, modules []string, deps []Dependency) map[string]float64 {
	nodes := make(map[string]struct{})
	for _, m := range modules {
		nodes[NodeID(rootPackage, m)] = struct{}{}
	}
	if len(nodes) == 0 {
		return nil
	}

	outEdges := make(map[string][]string)
	outDegree := make(map[string]int)
	for _, d := range deps {
		src := NodeID(rootPackage, d.Source)
		tgt := NodeID(d.TargetPackage, d.Target)
		nodes[tgt] = struct{}{}
		// Each extended class is an edge
		for range d.Symbols {
			outEdges[src] = append(outEdges[src], tgt)
			outDegree[src]++
		}
	}

	return pageRank(nodes, outEdges, outDegree, 0.85, 100, 1e-6)
}

// NodeID names a module node in the rank graph.
func NodeID(pkg, module string) string {
	return pkg + ":" + module
}

func pageRank(
	nodes map[string]struct{},
	outEdges map[string][]string,
	outDegree map[string]int,
	alpha float64,
	maxIter int,
	tol float64,
) map[string]float64 {
	n := len(nodes)
	rank := make(map[string]float64, n)
	initial := 1.0 / float64(n)
	for node := range nodes {
		rank[node] = initial
	}

	teleport := (1.0 - alpha) / float64(n)

	for iter := 0; iter < maxIter; iter++ {
		newRank := make(map[string]float64, n)

		// Dangling node contribution (nodes with no outgoing edges)
		var danglingSum float64
		for node := range nodes {
			if outDegree[node] == 0 {
				danglingSum += rank[node]
			}
		}
		danglingContrib := alpha * danglingSum / float64(n)

		for node := range nodes {
			newRank[node] = teleport + danglingContrib
		}

		for src, targets := range outEdges {
			contrib := alpha * rank[src] / float64(outDegree[src])
			for _, tgt := range targets {
				newRank[tgt] += contrib
			}
		}

		var diff float64
		for node := range nodes {
			diff += math.Abs(newRank[node] - rank[node])
		}
		rank = newRank
		if diff < tol {
			break
		}
	}
	return rank
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
