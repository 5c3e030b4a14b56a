package model

import (
	"errors"
	"fmt"
)

// Kind discriminates the declaration variants.
type Kind int

const (
	// KindClass is a plain class.
	KindClass Kind = iota + 1
	// KindLitElement is a class that descends from the framework base class.
	KindLitElement
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindLitElement:
		return "LitElement"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is an opaque handle to the syntax node a declaration was built from.
// Only the analyzer that created the declaration interprets it.
type Node interface {
	Type() string
	StartByte() uint32
	EndByte() uint32
}

// ClassAnalyzer computes the derived facts of class declarations. Each method
// is called at most once per declaration.
type ClassAnalyzer interface {
	Heritage(d *Declaration) (ClassHeritage, error)
	ReactiveProperties(d *Declaration) (*PropertyMap, error)
	Tagname(d *Declaration) (string, bool)
}

// ClassHeritage is the superclass relationship of a class. SuperClass is nil
// for classes without an extends clause.
type ClassHeritage struct {
	SuperClass *Reference
}

type tagname struct {
	name string
	ok   bool
}

// Declaration is a modeled source construct. The Kind is fixed at
// construction; derived fields are computed on first access and cached.
type Declaration struct {
	// Name is empty for anonymous classes.
	Name string
	Node Node
	// Module is the absolute path of the defining module.
	Module string

	kind     Kind
	analyzer ClassAnalyzer

	heritage memo[ClassHeritage]
	props    memo[*PropertyMap]
	allProps memo[*PropertyMap]
	tag      memo[tagname]
}

// NewClassDeclaration creates a plain class declaration.
func NewClassDeclaration(name string, node Node, module string, a ClassAnalyzer) *Declaration {
	return &Declaration{Name: name, Node: node, Module: module, kind: KindClass, analyzer: a}
}

// NewLitElementDeclaration creates a framework element declaration.
func NewLitElementDeclaration(name string, node Node, module string, a ClassAnalyzer) *Declaration {
	return &Declaration{Name: name, Node: node, Module: module, kind: KindLitElement, analyzer: a}
}

// Kind returns the declaration's variant.
func (d *Declaration) Kind() Kind { return d.kind }

// Is reports whether d satisfies kind. Every LitElement declaration is also
// a class declaration.
func (d *Declaration) Is(kind Kind) bool {
	switch kind {
	case KindClass:
		return d.kind == KindClass || d.kind == KindLitElement
	case KindLitElement:
		return d.kind == KindLitElement
	}
	return false
}

func (d *Declaration) IsClassDeclaration() bool { return d.Is(KindClass) }

func (d *Declaration) IsLitElementDeclaration() bool { return d.Is(KindLitElement) }

func (d *Declaration) displayName() string {
	if d.Name == "" {
		return "<anonymous>"
	}
	return d.Name
}

// Heritage returns the class's superclass relationship.
func (d *Declaration) Heritage() (ClassHeritage, error) {
	h, err := d.heritage.get(func() (ClassHeritage, error) {
		return d.analyzer.Heritage(d)
	})
	if errors.Is(err, errReentrant) {
		return ClassHeritage{}, &CyclicHeritageError{Chain: []string{d.displayName(), d.displayName()}}
	}
	return h, err
}

// ReactiveProperties returns the properties the class declares itself.
// It fails with a TypeAssertionError for plain classes.
func (d *Declaration) ReactiveProperties() (*PropertyMap, error) {
	if !d.IsLitElementDeclaration() {
		return nil, &TypeAssertionError{Name: d.displayName(), Want: KindLitElement, Got: d.kind}
	}
	props, err := d.props.get(func() (*PropertyMap, error) {
		return d.analyzer.ReactiveProperties(d)
	})
	if errors.Is(err, errReentrant) {
		return nil, &CyclicHeritageError{Chain: []string{d.displayName(), d.displayName()}}
	}
	return props, err
}

// AllReactiveProperties returns the class's own properties overlaid on the
// merged properties of its element ancestors. Own properties win.
func (d *Declaration) AllReactiveProperties() (*PropertyMap, error) {
	own, err := d.ReactiveProperties()
	if err != nil {
		return nil, err
	}
	props, err := d.allProps.get(func() (*PropertyMap, error) {
		merged := NewPropertyMap()
		super, err := d.superElement()
		if err != nil {
			return nil, err
		}
		if super != nil {
			inherited, err := super.AllReactiveProperties()
			if err != nil {
				return nil, err
			}
			merged.Merge(inherited)
		}
		merged.Merge(own)
		return merged, nil
	})
	if errors.Is(err, errReentrant) {
		return nil, &CyclicHeritageError{Chain: []string{d.displayName(), d.displayName()}}
	}
	return props, err
}

// superElement returns the superclass when it is itself an element.
func (d *Declaration) superElement() (*Declaration, error) {
	h, err := d.Heritage()
	if err != nil || h.SuperClass == nil {
		return nil, err
	}
	super, err := h.SuperClass.Dereference(KindClass)
	if err != nil {
		// An element's superclass can only be unresolvable when it is the
		// framework base class recognized through its import.
		var re *ResolutionError
		if errors.As(err, &re) {
			return nil, nil
		}
		return nil, err
	}
	if !super.IsLitElementDeclaration() {
		return nil, nil
	}
	return super, nil
}

// Tagname returns the custom element name the class is registered under.
func (d *Declaration) Tagname() (string, bool) {
	if !d.IsLitElementDeclaration() {
		return "", false
	}
	t, _ := d.tag.get(func() (tagname, error) {
		name, ok := d.analyzer.Tagname(d)
		return tagname{name: name, ok: ok}, nil
	})
	return t.name, t.ok
}

// WalkHeritage calls fn for each ancestor of d, nearest first, until fn
// returns false or the root of the hierarchy is reached. Resolution errors
// end the walk and are returned.
func WalkHeritage(d *Declaration, fn func(*Declaration) bool) error {
	visited := map[*Declaration]struct{}{d: {}}
	chain := []string{d.displayName()}
	for cur := d; ; {
		h, err := cur.Heritage()
		if err != nil {
			return err
		}
		if h.SuperClass == nil {
			return nil
		}
		next, err := h.SuperClass.Dereference(KindClass)
		if err != nil {
			return err
		}
		chain = append(chain, next.displayName())
		if _, seen := visited[next]; seen {
			return &CyclicHeritageError{Chain: chain}
		}
		visited[next] = struct{}{}
		if !fn(next) {
			return nil
		}
		cur = next
	}
}

// Ancestors returns the superclass chain of d, nearest first.
func Ancestors(d *Declaration) ([]*Declaration, error) {
	var out []*Declaration
	err := WalkHeritage(d, func(a *Declaration) bool {
		out = append(out, a)
		return true
	})
	return out, err
}

// ElementBase returns the nearest ancestor of an element that is not itself
// an element, typically the framework base class. It returns nil when the
// chain ends first.
func ElementBase(d *Declaration) (*Declaration, error) {
	var base *Declaration
	err := WalkHeritage(d, func(a *Declaration) bool {
		if a.IsLitElementDeclaration() {
			return true
		}
		base = a
		return false
	})
	return base, err
}
