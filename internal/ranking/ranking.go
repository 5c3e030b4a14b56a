// Package ranking narrows a manifest to the modules and elements a reader
// asked for.
package ranking

import (
	"strings"

	"github.com/phobologic/litmodel/internal/toon"
)

// SelectModules returns a new Manifest with only the first maxModules
// modules, which callers sort by rank. If maxModules is <= 0 or >= the
// module count, m is returned unchanged.
func SelectModules(m *toon.Manifest, maxModules int) *toon.Manifest {
	if maxModules <= 0 || maxModules >= len(m.Modules) {
		return m
	}
	keep := make(map[string]struct{}, maxModules)
	for i := range m.Modules[:maxModules] {
		keep[m.Modules[i].Path] = struct{}{}
	}
	return restrict(m, keep, nil)
}

// FilterByModule returns a new Manifest with the modules whose path
// contains substr (case-insensitive).
func FilterByModule(m *toon.Manifest, substr string) *toon.Manifest {
	lower := strings.ToLower(substr)
	keep := make(map[string]struct{})
	for i := range m.Modules {
		if strings.Contains(strings.ToLower(m.Modules[i].Path), lower) {
			keep[m.Modules[i].Path] = struct{}{}
		}
	}
	return restrict(m, keep, nil)
}

// FilterByElement returns a new Manifest with the elements whose class name
// or tag name contains substr (case-insensitive), their properties and
// heritage edges, and the modules declaring them. Modules of in-package
// superclasses are kept for context.
func FilterByElement(m *toon.Manifest, substr string) *toon.Manifest {
	lower := strings.ToLower(substr)
	classes := make(map[classKey]struct{})
	keep := make(map[string]struct{})
	for i := range m.Elements {
		e := &m.Elements[i]
		if strings.Contains(strings.ToLower(e.Class), lower) ||
			strings.Contains(strings.ToLower(e.Tagname), lower) {
			classes[classKey{e.Module, e.Class}] = struct{}{}
			keep[e.Module] = struct{}{}
		}
	}
	for i := range m.Heritage {
		e := &m.Heritage[i]
		if _, ok := classes[classKey{e.Module, e.Class}]; ok && e.TargetPackage == m.Package && e.TargetModule != "" {
			keep[e.TargetModule] = struct{}{}
		}
	}
	return restrict(m, keep, classes)
}

type classKey struct{ module, class string }

// restrict copies m keeping rows of the given modules. When classes is
// non-nil, element, property and heritage rows must also name one of them.
func restrict(m *toon.Manifest, keep map[string]struct{}, classes map[classKey]struct{}) *toon.Manifest {
	keepRow := func(module, class string) bool {
		if _, ok := keep[module]; !ok {
			return false
		}
		if classes == nil {
			return true
		}
		_, ok := classes[classKey{module, class}]
		return ok
	}

	out := &toon.Manifest{Package: m.Package, Root: m.Root}
	for i := range m.Modules {
		if _, ok := keep[m.Modules[i].Path]; ok {
			out.Modules = append(out.Modules, m.Modules[i])
		}
	}
	for i := range m.Elements {
		if keepRow(m.Elements[i].Module, m.Elements[i].Class) {
			out.Elements = append(out.Elements, m.Elements[i])
		}
	}
	for i := range m.Properties {
		if keepRow(m.Properties[i].Module, m.Properties[i].Class) {
			out.Properties = append(out.Properties, m.Properties[i])
		}
	}
	for i := range m.Heritage {
		if keepRow(m.Heritage[i].Module, m.Heritage[i].Class) {
			out.Heritage = append(out.Heritage, m.Heritage[i])
		}
	}
	for i := range m.Dependencies {
		if _, ok := keep[m.Dependencies[i].Source]; ok {
			out.Dependencies = append(out.Dependencies, m.Dependencies[i])
		}
	}
	return out
}
