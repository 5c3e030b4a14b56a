// Package model defines the declaration model built by the analyzer:
// packages, modules, class declarations, references between them and the
// reactive properties of framework elements.
package model

// Package is the root of an analysis unit.
type Package struct {
	Name    string
	RootDir string
	Modules []*Module
}

// Module returns the module with the given package-relative source path.
func (p *Package) Module(sourcePath string) (*Module, bool) {
	for _, m := range p.Modules {
		if m.SourcePath == sourcePath {
			return m, true
		}
	}
	return nil, false
}

// Module corresponds to one source file.
type Module struct {
	// Path is the absolute path of the file.
	Path string
	// SourcePath is relative to the package root, slash separated.
	SourcePath   string
	PackageName  string
	Declarations []*Declaration

	byName map[string]*Declaration
}

// NewModule creates a module owning decls. When two declarations share a
// name the first one is returned by GetDeclaration.
func NewModule(path, sourcePath, packageName string, decls []*Declaration) *Module {
	m := &Module{
		Path:         path,
		SourcePath:   sourcePath,
		PackageName:  packageName,
		Declarations: decls,
		byName:       make(map[string]*Declaration, len(decls)),
	}
	for _, d := range decls {
		if d.Name == "" {
			continue
		}
		if _, dup := m.byName[d.Name]; !dup {
			m.byName[d.Name] = d
		}
	}
	return m
}

// GetDeclaration returns the declaration with the given name.
func (m *Module) GetDeclaration(name string) (*Declaration, bool) {
	d, ok := m.byName[name]
	return d, ok
}
