// Package toon implements TOON (Token-Oriented Object Notation) encoding
// of a package's element manifest.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/litmodel/internal/graph"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Manifest summarizes an analyzed package.
type Manifest struct {
	Package      string
	Root         string
	Modules      []Module
	Elements     []Element
	Properties   []Property
	Heritage     []graph.Edge
	Dependencies []graph.Dependency
}

// Module is a source file of the package.
type Module struct {
	Path     string
	Rank     float64
	Classes  int
	Elements int
}

// Element is a class deriving from a framework base class.
type Element struct {
	Module  string
	Class   string
	Tagname string
	// Base is the nearest non-element ancestor, when it resolved.
	Base string
}

// Property is a reactive property of an element, own or inherited.
type Property struct {
	Module     string
	Class      string
	Name       string
	Attribute  string
	Type       string
	TypeOption string
	Reflect    bool
	State      bool
	NoAccessor bool
	Inherited  bool
}

func (p *Property) flags() string {
	var f []string
	if p.Reflect {
		f = append(f, "reflect")
	}
	if p.State {
		f = append(f, "state")
	}
	if p.NoAccessor {
		f = append(f, "noAccessor")
	}
	if p.Inherited {
		f = append(f, "inherited")
	}
	return strings.Join(f, " ")
}

// Encode converts a Manifest into TOON format.
func Encode(m *Manifest) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("package: %s", encodeValue(m.Package)))
	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(m.Root)))

	var moduleRows [][]string
	for i := range m.Modules {
		mod := &m.Modules[i]
		moduleRows = append(moduleRows, []string{
			mod.Path,
			fmt.Sprintf("%.4f", mod.Rank),
			fmt.Sprintf("%d", mod.Classes),
			fmt.Sprintf("%d", mod.Elements),
		})
	}
	parts = append(parts, formatTabular("modules", []string{"path", "rank", "classes", "elements"}, moduleRows))

	var elementRows [][]string
	for i := range m.Elements {
		e := &m.Elements[i]
		elementRows = append(elementRows, []string{e.Module, e.Class, e.Tagname, e.Base})
	}
	parts = append(parts, formatTabular("elements", []string{"module", "class", "tagname", "base"}, elementRows))

	var propRows [][]string
	for i := range m.Properties {
		p := &m.Properties[i]
		propRows = append(propRows, []string{
			p.Module,
			p.Class,
			p.Name,
			p.Attribute,
			p.Type,
			p.TypeOption,
			p.flags(),
		})
	}
	parts = append(parts, formatTabular("properties",
		[]string{"module", "class", "name", "attribute", "type", "option", "flags"}, propRows))

	var heritageRows [][]string
	for i := range m.Heritage {
		e := &m.Heritage[i]
		heritageRows = append(heritageRows, []string{
			e.Module,
			e.Class,
			e.Super,
			e.TargetPackage,
			e.TargetModule,
			e.Err,
		})
	}
	parts = append(parts, formatTabular("heritage",
		[]string{"module", "class", "super", "package", "target", "error"}, heritageRows))

	var depRows [][]string
	for i := range m.Dependencies {
		d := &m.Dependencies[i]
		depRows = append(depRows, []string{
			d.Source,
			d.TargetPackage,
			d.Target,
			strings.Join(d.Symbols, " "),
		})
	}
	parts = append(parts, formatTabular("dependencies", []string{"source", "package", "target", "symbols"}, depRows))

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
