package model

import "iter"

// Type is a type descriptor; Text is its source form.
type Type struct {
	Text string
}

// ReactiveProperty is a class member the framework observes for updates.
type ReactiveProperty struct {
	Name string
	Node Node
	// Attribute is the observed attribute name; empty when the property
	// has no attribute.
	Attribute string
	// Type is nil when no type is derivable.
	Type *Type
	// TypeOption is the `type` option of the declaration, e.g. "Number".
	TypeOption string
	Reflect    bool
	// State marks internal reactive state.
	State      bool
	NoAccessor bool
	// Converter is the source text of the `converter` option.
	Converter string
}

// HasAttribute reports whether the property is bound to an attribute.
func (p *ReactiveProperty) HasAttribute() bool { return p.Attribute != "" }

// PropertyMap is an insertion-ordered map of reactive properties by name.
// The zero value is not usable; a nil map reads as empty.
type PropertyMap struct {
	names  []string
	byName map[string]*ReactiveProperty
}

// NewPropertyMap returns an empty map.
func NewPropertyMap() *PropertyMap {
	return &PropertyMap{byName: make(map[string]*ReactiveProperty)}
}

// Set adds p, replacing a property of the same name in place.
func (m *PropertyMap) Set(p *ReactiveProperty) {
	if _, ok := m.byName[p.Name]; !ok {
		m.names = append(m.names, p.Name)
	}
	m.byName[p.Name] = p
}

// Merge sets every property of other, in other's order.
func (m *PropertyMap) Merge(other *PropertyMap) {
	for _, p := range other.All() {
		m.Set(p)
	}
}

// Get returns the property with the given name.
func (m *PropertyMap) Get(name string) (*ReactiveProperty, bool) {
	if m == nil {
		return nil, false
	}
	p, ok := m.byName[name]
	return p, ok
}

// Len returns the number of properties.
func (m *PropertyMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}

// Names returns the property names in insertion order.
func (m *PropertyMap) Names() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.names...)
}

// All iterates the properties in insertion order.
func (m *PropertyMap) All() iter.Seq2[string, *ReactiveProperty] {
	return func(yield func(string, *ReactiveProperty) bool) {
		if m == nil {
			return
		}
		for _, name := range m.names {
			if !yield(name, m.byName[name]) {
				return
			}
		}
	}
}
