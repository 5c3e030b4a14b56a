package analyzer

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/litmodel/internal/lang"
	"github.com/phobologic/litmodel/internal/model"
	"github.com/phobologic/litmodel/internal/parse"
)

// member is a field or method of a class body.
type member struct {
	node       *sitter.Node
	name       string
	decorators []*sitter.Node
	static     bool
	method     bool
	getter     bool
	setter     bool
}

// classMembers lists the members of a class body with their decorators.
// TypeScript attaches member decorators as preceding siblings; JavaScript
// nests them in the member.
func classMembers(f *parse.SourceFile, class *sitter.Node) []member {
	body := class.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var out []member
	var pending []*sitter.Node
	for i := 0; i < int(body.NamedChildCount()); i++ {
		n := body.NamedChild(i)
		var m member
		switch n.Type() {
		case "decorator":
			pending = append(pending, n)
			continue
		case "method_definition", "method_signature", "abstract_method_signature":
			m.method = true
		case "public_field_definition", "field_definition":
		case "comment":
			continue
		default:
			pending = nil
			continue
		}
		m.node = n
		m.decorators = pending
		pending = nil

		nameNode := n.ChildByFieldName("name")
		if nameNode == nil {
			nameNode = n.ChildByFieldName("property")
		}
		if nameNode == nil {
			continue
		}
		m.name = propertyKeyName(f, nameNode)
		for j := 0; j < int(n.ChildCount()); j++ {
			switch c := n.Child(j); c.Type() {
			case "decorator":
				m.decorators = append(m.decorators, c)
			case "static":
				m.static = true
			case "get":
				m.getter = true
			case "set":
				m.setter = true
			}
		}
		if m.name != "" {
			out = append(out, m)
		}
	}
	return out
}

// ReactiveProperties implements model.ClassAnalyzer. Entries of the static
// properties accessor come first; decorated fields follow and replace
// accessor entries of the same name.
func (a *Analyzer) ReactiveProperties(d *model.Declaration) (*model.PropertyMap, error) {
	sym, err := a.symbolOf(d)
	if err != nil {
		return nil, err
	}
	f := sym.file
	members := classMembers(f, sym.class.Node)
	props := model.NewPropertyMap()

	if obj := a.staticProperties(f, members); obj != nil {
		for i := 0; i < int(obj.NamedChildCount()); i++ {
			pair := obj.NamedChild(i)
			if pair.Type() != "pair" {
				continue
			}
			name := propertyKeyName(f, pair.ChildByFieldName("key"))
			if name == "" {
				continue
			}
			p := a.newProperty(f, name, pair, objectLiteral(pair.ChildByFieldName("value")))
			p.Type = a.namedFieldType(f, members, name)
			props.Set(p)
		}
	}

	for _, m := range members {
		if m.static || (m.method && !m.getter && !m.setter) {
			continue
		}
		for _, dec := range m.decorators {
			name, args := decoratorCall(f, dec)
			state := a.cfg.IsStateDecorator(name)
			if !state && !a.cfg.IsPropertyDecorator(name) {
				continue
			}
			var opts *sitter.Node
			if len(args) > 0 {
				opts = objectLiteral(args[0])
			}
			p := a.newProperty(f, m.name, m.node, opts)
			if state {
				p.State = true
				p.Attribute = ""
			}
			p.Type = a.memberType(f, members, m)
			props.Set(p)
			break
		}
	}
	return props, nil
}

// newProperty builds a property from its options object, which may be nil.
func (a *Analyzer) newProperty(f *parse.SourceFile, name string, node, opts *sitter.Node) *model.ReactiveProperty {
	p := &model.ReactiveProperty{Name: name, Node: node, Attribute: a.cfg.AttributeName(name)}
	if opts == nil {
		return p
	}
	for i := 0; i < int(opts.NamedChildCount()); i++ {
		pair := opts.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}
		value := pair.ChildByFieldName("value")
		if value == nil {
			continue
		}
		value = unwrapExpr(value)
		switch propertyKeyName(f, pair.ChildByFieldName("key")) {
		case "type":
			p.TypeOption = lang.CollapseWhitespace(f.Text(value))
		case "attribute":
			switch value.Type() {
			case "string":
				p.Attribute = lang.Unquote(f.Text(value))
			case "false":
				p.Attribute = ""
			case "true":
				p.Attribute = a.cfg.AttributeName(name)
			}
		case "reflect":
			p.Reflect = value.Type() == "true"
		case "state":
			p.State = value.Type() == "true"
		case "noAccessor":
			p.NoAccessor = value.Type() == "true"
		case "converter":
			p.Converter = lang.CollapseWhitespace(f.Text(value))
		}
	}
	if p.State {
		p.Attribute = ""
	}
	return p
}

// staticProperties returns the object literal of the static properties
// getter or field.
func (a *Analyzer) staticProperties(f *parse.SourceFile, members []member) *sitter.Node {
	for _, m := range members {
		if !m.static || m.name != a.cfg.Framework.PropertiesAccessor {
			continue
		}
		var expr *sitter.Node
		switch {
		case m.method && m.getter:
			expr = returnedExpr(m.node.ChildByFieldName("body"))
		case !m.method:
			expr = m.node.ChildByFieldName("value")
		}
		if obj := objectLiteral(expr); obj != nil {
			return obj
		}
	}
	return nil
}

// memberType infers the type of a decorated member.
func (a *Analyzer) memberType(f *parse.SourceFile, members []member, m member) *model.Type {
	if m.method {
		return a.accessorType(f, members, m.name)
	}
	if t := a.fieldType(f, m); t != nil {
		return t
	}
	if t := a.constructorType(f, members, m.name); t != nil {
		return t
	}
	return a.oracle.ImplicitType(f)
}

// namedFieldType infers the type of an accessor-declared property from the
// class field, accessor or constructor assignment of the same name.
func (a *Analyzer) namedFieldType(f *parse.SourceFile, members []member, name string) *model.Type {
	for _, m := range members {
		if m.static || m.name != name {
			continue
		}
		if m.method {
			if !m.getter && !m.setter {
				continue
			}
			return a.accessorType(f, members, name)
		}
		if t := a.fieldType(f, m); t != nil {
			return t
		}
		break
	}
	if t := a.constructorType(f, members, name); t != nil {
		return t
	}
	return a.oracle.ImplicitType(f)
}

// fieldType returns the annotated type of a field, else the type of its
// initializer.
func (a *Analyzer) fieldType(f *parse.SourceFile, m member) *model.Type {
	if ann := typeAnnotation(m.node); ann != nil {
		if t := a.oracle.AnnotatedType(f, ann); t != nil {
			return t
		}
	}
	if v := m.node.ChildByFieldName("value"); v != nil {
		return a.oracle.ExpressionType(f, v)
	}
	return nil
}

// accessorType returns the getter's return type or the setter's parameter
// type.
func (a *Analyzer) accessorType(f *parse.SourceFile, members []member, name string) *model.Type {
	for _, m := range members {
		if !m.method || m.static || m.name != name {
			continue
		}
		var ann *sitter.Node
		switch {
		case m.getter:
			ann = m.node.ChildByFieldName("return_type")
		case m.setter:
			if params := m.node.ChildByFieldName("parameters"); params != nil && params.NamedChildCount() > 0 {
				ann = typeAnnotation(params.NamedChild(0))
			}
		}
		if ann != nil {
			if t := a.oracle.AnnotatedType(f, ann); t != nil {
				return t
			}
		}
	}
	return a.oracle.ImplicitType(f)
}

// constructorType returns the type of the first `this.name = expr`
// statement in the constructor.
func (a *Analyzer) constructorType(f *parse.SourceFile, members []member, name string) *model.Type {
	for _, m := range members {
		if !m.method || m.static || m.name != "constructor" {
			continue
		}
		body := m.node.ChildByFieldName("body")
		if body == nil {
			return nil
		}
		for i := 0; i < int(body.NamedChildCount()); i++ {
			stmt := body.NamedChild(i)
			if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
				continue
			}
			expr := stmt.NamedChild(0)
			if expr.Type() != "assignment_expression" {
				continue
			}
			left := expr.ChildByFieldName("left")
			right := expr.ChildByFieldName("right")
			if left == nil || right == nil || left.Type() != "member_expression" {
				continue
			}
			obj := left.ChildByFieldName("object")
			prop := left.ChildByFieldName("property")
			if obj != nil && prop != nil && obj.Type() == "this" && f.Text(prop) == name {
				return a.oracle.ExpressionType(f, right)
			}
		}
		return nil
	}
	return nil
}

func typeAnnotation(n *sitter.Node) *sitter.Node {
	if t := n.ChildByFieldName("type"); t != nil {
		return t
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "type_annotation" {
			return c
		}
	}
	return nil
}

// returnedExpr returns the expression of the first return statement of a
// function body.
func returnedExpr(body *sitter.Node) *sitter.Node {
	if body == nil {
		return nil
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		if stmt := body.NamedChild(i); stmt.Type() == "return_statement" && stmt.NamedChildCount() > 0 {
			return stmt.NamedChild(0)
		}
	}
	return nil
}

// unwrapExpr strips parentheses, type assertions and non-null assertions.
func unwrapExpr(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "parenthesized_expression", "as_expression", "satisfies_expression", "non_null_expression":
			if n.NamedChildCount() == 0 {
				return n
			}
			n = n.NamedChild(0)
		default:
			return n
		}
	}
	return nil
}

func objectLiteral(n *sitter.Node) *sitter.Node {
	if n = unwrapExpr(n); n != nil && n.Type() == "object" {
		return n
	}
	return nil
}

// propertyKeyName returns the name of a property key, or "" for computed
// keys.
func propertyKeyName(f *parse.SourceFile, key *sitter.Node) string {
	if key == nil {
		return ""
	}
	switch key.Type() {
	case "property_identifier", "identifier", "private_property_identifier", "number":
		return f.Text(key)
	case "string":
		return lang.Unquote(f.Text(key))
	}
	return ""
}
