package analyzer

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/litmodel/internal/lang"
	"github.com/phobologic/litmodel/internal/model"
	"github.com/phobologic/litmodel/internal/parse"
)

// Heritage implements model.ClassAnalyzer.
func (a *Analyzer) Heritage(d *model.Declaration) (model.ClassHeritage, error) {
	sym, err := a.symbolOf(d)
	if err != nil {
		return model.ClassHeritage{}, err
	}
	b, ok := superBinding(sym)
	if !ok {
		return model.ClassHeritage{}, nil
	}
	if b.specifier != "" {
		return model.ClassHeritage{
			SuperClass: model.NewImportReference(b.name, sym.file.Path, b.specifier, b.imported, a),
		}, nil
	}
	return model.ClassHeritage{SuperClass: model.NewReference(b.name, sym.file.Path, a)}, nil
}

// superBinding returns how a class names its superclass, ignoring
// parentheses and type assertions. Identifiers bound by a named or default
// import, and members of a namespace import, resolve through the import.
// Anything else is kept as text and fails resolution.
func superBinding(sym symbol) (binding, bool) {
	expr := unwrapExpr(superclassExpr(sym.class.Node))
	if expr == nil {
		return binding{}, false
	}
	f := sym.file
	switch expr.Type() {
	case "identifier":
		name := f.Text(expr)
		if imp, ok := f.Import(name); ok && imp.Imported != "*" {
			return binding{name: name, specifier: imp.Specifier, imported: imp.Imported}, true
		}
		return binding{name: name}, true
	case "member_expression":
		obj := expr.ChildByFieldName("object")
		prop := expr.ChildByFieldName("property")
		if obj != nil && prop != nil && obj.Type() == "identifier" {
			if imp, ok := f.Import(f.Text(obj)); ok && imp.Imported == "*" {
				return binding{name: f.Text(expr), specifier: imp.Specifier, imported: f.Text(prop)}, true
			}
		}
	}
	return binding{name: lang.CollapseWhitespace(f.Text(expr))}, true
}

// superclassExpr returns the expression after `extends`, or nil.
func superclassExpr(class *sitter.Node) *sitter.Node {
	for i := 0; i < int(class.NamedChildCount()); i++ {
		h := class.NamedChild(i)
		if h.Type() != "class_heritage" {
			continue
		}
		for j := 0; j < int(h.NamedChildCount()); j++ {
			c := h.NamedChild(j)
			switch c.Type() {
			case "extends_clause":
				if v := c.ChildByFieldName("value"); v != nil {
					return v
				}
				for k := 0; k < int(c.NamedChildCount()); k++ {
					if v := c.NamedChild(k); v.Type() != "type_arguments" && v.Type() != "comment" {
						return v
					}
				}
				return nil
			case "implements_clause", "comment":
			default:
				// JavaScript has no extends_clause.
				return c
			}
		}
	}
	return nil
}

// decoratorCall splits a decorator into its callee name and arguments.
// `@ns.name(...)` yields "name".
func decoratorCall(f *parse.SourceFile, dec *sitter.Node) (string, []*sitter.Node) {
	if dec.NamedChildCount() == 0 {
		return "", nil
	}
	expr := dec.NamedChild(0)
	callee := expr
	var args []*sitter.Node
	if expr.Type() == "call_expression" {
		callee = expr.ChildByFieldName("function")
		if list := expr.ChildByFieldName("arguments"); list != nil {
			for i := 0; i < int(list.NamedChildCount()); i++ {
				if arg := list.NamedChild(i); arg.Type() != "comment" {
					args = append(args, arg)
				}
			}
		}
	}
	if callee == nil {
		return "", nil
	}
	switch callee.Type() {
	case "identifier":
		return f.Text(callee), args
	case "member_expression":
		if prop := callee.ChildByFieldName("property"); prop != nil {
			return f.Text(prop), args
		}
	}
	return "", nil
}
