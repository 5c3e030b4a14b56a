// Package parse extracts module-level facts from TypeScript and JavaScript
// source files using tree-sitter.
package parse

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/litmodel/internal/lang"
)

// Import is a binding introduced by an import statement.
type Import struct {
	Local string
	// Imported is the exported name; "default" for default imports and
	// "*" for namespace imports.
	Imported  string
	Specifier string
}

// Export is an entry of a module's exported surface.
type Export struct {
	// Exported is the name importers see; "*" for `export * from`.
	Exported string
	// Local is the local binding, or the name in Specifier's module for
	// re-exports.
	Local string
	// Specifier is set for re-exports.
	Specifier string
}

// Class is a top-level class declaration.
type Class struct {
	// Name is empty for anonymous classes.
	Name string
	Node *sitter.Node
	// Decorators includes decorators written before an enclosing export.
	Decorators []*sitter.Node
	// Default marks `export default class`.
	Default bool
}

// Define is a `customElements.define(tagname, Class)` call.
type Define struct {
	Tagname string
	Class   string
}

// SourceFile is a parsed module. The tree stays alive until Close.
type SourceFile struct {
	Path     string
	Language *lang.Language
	Source   []byte
	Tree     *sitter.Tree

	Imports []Import
	Exports []Export
	Classes []Class
	Defines []Define
}

// Text returns the source text of node.
func (f *SourceFile) Text(node *sitter.Node) string {
	return lang.NodeText(node, f.Source)
}

// Class returns the top-level class bound to name.
func (f *SourceFile) Class(name string) (Class, bool) {
	for _, c := range f.Classes {
		if c.Name != "" && c.Name == name {
			return c, true
		}
	}
	return Class{}, false
}

// Import returns the import binding for local.
func (f *SourceFile) Import(local string) (Import, bool) {
	for _, imp := range f.Imports {
		if imp.Local == local {
			return imp, true
		}
	}
	return Import{}, false
}

// Close releases the syntax tree.
func (f *SourceFile) Close() {
	if f.Tree != nil {
		f.Tree.Close()
		f.Tree = nil
	}
}

// Parse parses source and collects its module-level facts.
// The parser must be created for l; query is l's define query.
// filePath is recorded in SourceFile.Path.
func Parse(ctx context.Context, l *lang.Language, parser *sitter.Parser, query *sitter.Query, source []byte, filePath string) (*SourceFile, error) {
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}

	f := &SourceFile{
		Path:     filePath,
		Language: l,
		Source:   source,
		Tree:     tree,
	}

	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		switch n.Type() {
		case "import_statement":
			f.addImport(n)
		case "export_statement":
			f.addExport(n)
		case "class_declaration", "abstract_class_declaration", "ambient_declaration":
			f.addClass(n, nil, "")
		}
	}

	if query != nil {
		f.Defines = extractDefines(query, root, source)
	}
	return f, nil
}

func (f *SourceFile) addImport(n *sitter.Node) {
	src := n.ChildByFieldName("source")
	if src == nil {
		return
	}
	spec := lang.Unquote(f.Text(src))

	for i := 0; i < int(n.NamedChildCount()); i++ {
		clause := n.NamedChild(i)
		if clause.Type() != "import_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			c := clause.NamedChild(j)
			switch c.Type() {
			case "identifier":
				f.Imports = append(f.Imports, Import{Local: f.Text(c), Imported: "default", Specifier: spec})
			case "namespace_import":
				if id := firstNamedChildOfType(c, "identifier"); id != nil {
					f.Imports = append(f.Imports, Import{Local: f.Text(id), Imported: "*", Specifier: spec})
				}
			case "named_imports":
				for k := 0; k < int(c.NamedChildCount()); k++ {
					s := c.NamedChild(k)
					if s.Type() != "import_specifier" {
						continue
					}
					name := s.ChildByFieldName("name")
					if name == nil {
						continue
					}
					imported := lang.Unquote(f.Text(name))
					local := imported
					if alias := s.ChildByFieldName("alias"); alias != nil {
						local = f.Text(alias)
					}
					f.Imports = append(f.Imports, Import{Local: local, Imported: imported, Specifier: spec})
				}
			}
		}
	}
}

func (f *SourceFile) addExport(n *sitter.Node) {
	var spec string
	if src := n.ChildByFieldName("source"); src != nil {
		spec = lang.Unquote(f.Text(src))
	}

	var decorators []*sitter.Node
	var isDefault, star, clause bool
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "decorator":
			decorators = append(decorators, c)
		case "default":
			isDefault = true
		case "*":
			star = true
		case "namespace_export":
			// `export * as ns from` binds a namespace, not a class.
			return
		case "export_clause":
			clause = true
			f.addExportClause(c, spec)
		}
	}

	switch {
	case clause:
		return
	case star && spec != "":
		f.Exports = append(f.Exports, Export{Exported: "*", Specifier: spec})
		return
	}

	exported := ""
	if isDefault {
		exported = "default"
	}
	if decl := n.ChildByFieldName("declaration"); decl != nil {
		if name := f.addClass(decl, decorators, exported); name != "" && !isDefault {
			f.Exports = append(f.Exports, Export{Exported: name, Local: name})
		}
		return
	}
	value := n.ChildByFieldName("value")
	if value == nil || !isDefault {
		return
	}
	switch value.Type() {
	case "class":
		f.addClass(value, decorators, exported)
	case "identifier":
		f.Exports = append(f.Exports, Export{Exported: "default", Local: f.Text(value)})
	}
}

func (f *SourceFile) addExportClause(clause *sitter.Node, spec string) {
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		s := clause.NamedChild(i)
		if s.Type() != "export_specifier" {
			continue
		}
		name := s.ChildByFieldName("name")
		if name == nil {
			continue
		}
		local := lang.Unquote(f.Text(name))
		exported := local
		if alias := s.ChildByFieldName("alias"); alias != nil {
			exported = lang.Unquote(f.Text(alias))
		}
		f.Exports = append(f.Exports, Export{Exported: exported, Local: local, Specifier: spec})
	}
}

// addClass records a class node, unwrapping `declare` wrappers. exported is
// "default" for default-exported classes. It returns the class name.
func (f *SourceFile) addClass(n *sitter.Node, decorators []*sitter.Node, exported string) string {
	if n.Type() == "ambient_declaration" {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if isClassNode(c) {
				return f.addClass(c, decorators, exported)
			}
		}
		return ""
	}
	if !isClassNode(n) {
		return ""
	}

	c := Class{Node: n, Default: exported == "default"}
	if name := n.ChildByFieldName("name"); name != nil {
		c.Name = f.Text(name)
	}
	c.Decorators = append(c.Decorators, decorators...)
	for i := 0; i < int(n.ChildCount()); i++ {
		if d := n.Child(i); d.Type() == "decorator" {
			c.Decorators = append(c.Decorators, d)
		}
	}
	f.Classes = append(f.Classes, c)
	if c.Default && c.Name != "" {
		f.Exports = append(f.Exports, Export{Exported: "default", Local: c.Name})
	}
	return c.Name
}

func isClassNode(n *sitter.Node) bool {
	switch n.Type() {
	case "class_declaration", "abstract_class_declaration", "class":
		return true
	}
	return false
}

func firstNamedChildOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

func extractDefines(query *sitter.Query, root *sitter.Node, source []byte) []Define {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, root)

	var defines []Define
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		var d Define
		for _, c := range match.Captures {
			switch query.CaptureNameForId(c.Index) {
			case "tagname":
				d.Tagname = lang.Unquote(lang.NodeText(c.Node, source))
			case "name":
				d.Class = lang.NodeText(c.Node, source)
			}
		}
		if d.Tagname == "" || d.Class == "" {
			continue
		}
		defines = append(defines, d)
	}
	return defines
}
