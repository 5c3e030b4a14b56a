package analyzer

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/litmodel/internal/lang"
	"github.com/phobologic/litmodel/internal/model"
	"github.com/phobologic/litmodel/internal/parse"
)

// TypeOracle infers property types. Implementations may return nil when
// they cannot tell.
type TypeOracle interface {
	// AnnotatedType returns the type written in a type annotation.
	AnnotatedType(f *parse.SourceFile, annotation *sitter.Node) *model.Type
	// ExpressionType returns the type of an initializer expression.
	ExpressionType(f *parse.SourceFile, expr *sitter.Node) *model.Type
	// ImplicitType returns the type of a member with nothing to infer from.
	ImplicitType(f *parse.SourceFile) *model.Type
}

// SyntaxOracle infers types from syntax alone. Annotations are returned as
// written and literals map to their primitive types.
type SyntaxOracle struct{}

func (SyntaxOracle) AnnotatedType(f *parse.SourceFile, annotation *sitter.Node) *model.Type {
	node := annotation
	if node.Type() == "type_annotation" && node.NamedChildCount() > 0 {
		node = node.NamedChild(0)
	}
	text := strings.TrimSpace(strings.TrimPrefix(lang.CollapseWhitespace(f.Text(node)), ":"))
	if text == "" {
		return nil
	}
	return &model.Type{Text: text}
}

func (o SyntaxOracle) ExpressionType(f *parse.SourceFile, expr *sitter.Node) *model.Type {
	if text := o.expressionType(f, expr); text != "" {
		return &model.Type{Text: text}
	}
	return nil
}

// ImplicitType is `any` in TypeScript. JavaScript has no implicit type.
func (SyntaxOracle) ImplicitType(f *parse.SourceFile) *model.Type {
	if f.Language != nil && f.Language.Typed {
		return &model.Type{Text: "any"}
	}
	return nil
}

func (o SyntaxOracle) expressionType(f *parse.SourceFile, expr *sitter.Node) string {
	switch expr.Type() {
	case "number":
		return "number"
	case "string", "template_string":
		return "string"
	case "true", "false":
		return "boolean"
	case "regex":
		return "RegExp"
	case "parenthesized_expression":
		if expr.NamedChildCount() > 0 {
			return o.expressionType(f, expr.NamedChild(0))
		}
	case "unary_expression":
		op := expr.ChildByFieldName("operator")
		if op == nil {
			return ""
		}
		switch f.Text(op) {
		case "-", "+", "~":
			return "number"
		case "!":
			return "boolean"
		case "typeof":
			return "string"
		case "void":
			return "undefined"
		}
	case "as_expression", "satisfies_expression":
		// `x as const` has no type node.
		if expr.NamedChildCount() < 2 {
			if expr.NamedChildCount() == 1 {
				return o.expressionType(f, expr.NamedChild(0))
			}
			return ""
		}
		return lang.CollapseWhitespace(f.Text(expr.NamedChild(int(expr.NamedChildCount()) - 1)))
	case "new_expression":
		if ctor := expr.ChildByFieldName("constructor"); ctor != nil {
			switch ctor.Type() {
			case "identifier", "member_expression":
				return f.Text(ctor)
			}
		}
	case "array":
		return o.arrayType(f, expr)
	}
	return ""
}

func (o SyntaxOracle) arrayType(f *parse.SourceFile, expr *sitter.Node) string {
	var elems []string
	seen := make(map[string]bool)
	for i := 0; i < int(expr.NamedChildCount()); i++ {
		c := expr.NamedChild(i)
		if c.Type() == "comment" {
			continue
		}
		t := o.expressionType(f, c)
		if t == "" {
			return "any[]"
		}
		if !seen[t] {
			seen[t] = true
			elems = append(elems, t)
		}
	}
	switch len(elems) {
	case 0:
		return "any[]"
	case 1:
		return elems[0] + "[]"
	}
	return "(" + strings.Join(elems, " | ") + ")[]"
}
