package model

import "errors"

// Resolver locates the declaration a reference points to.
type Resolver interface {
	Resolve(ref *Reference) (*Declaration, error)
}

// Reference is a lazy pointer to a declaration that may live in another
// module or package. It does not own its target.
type Reference struct {
	// Name is the expression as written at the reference site, e.g.
	// "LitElement" or "lit.LitElement".
	Name string
	// Module is the absolute path of the module containing the reference.
	Module string
	// Specifier is the module specifier the name is imported from; empty
	// for names bound in Module itself.
	Specifier string
	// Imported is the name exported by Specifier's module.
	Imported string

	resolver Resolver
	target   memo[*Declaration]
}

// NewReference creates a reference to a name bound in module.
func NewReference(name, module string, r Resolver) *Reference {
	return &Reference{Name: name, Module: module, resolver: r}
}

// NewImportReference creates a reference to the export imported of the
// module named by specifier.
func NewImportReference(name, module, specifier, imported string, r Resolver) *Reference {
	return &Reference{Name: name, Module: module, Specifier: specifier, Imported: imported, resolver: r}
}

// IsImport reports whether the reference crosses an import.
func (r *Reference) IsImport() bool { return r.Specifier != "" }

// Dereference resolves the reference and asserts the target satisfies want.
// The target is resolved once; later calls return the same declaration.
func (r *Reference) Dereference(want Kind) (*Declaration, error) {
	d, err := r.target.get(func() (*Declaration, error) {
		if r.resolver == nil {
			return nil, &ResolutionError{Name: r.Name, Module: r.Module, Reason: "no resolver"}
		}
		return r.resolver.Resolve(r)
	})
	if err != nil {
		var re *ResolutionError
		if !errors.As(err, &re) {
			err = &ResolutionError{Name: r.Name, Module: r.Module, Err: err}
		}
		return nil, err
	}
	if !d.Is(want) {
		return nil, &TypeAssertionError{Name: d.displayName(), Want: want, Got: d.kind}
	}
	return d, nil
}
