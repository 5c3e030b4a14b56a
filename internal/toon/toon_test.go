package toon

import (
	"strings"
	"testing"

	"github.com/phobologic/litmodel/internal/graph"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"false keyword", "false", `"false"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"float", "3.14", "3.14"},
		{"zero", "0", "0"},
		{"leading zero invalid", "01", "01"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"bracket", "a[b", `"a[b"`},
		{"brace", "a{b", `"a{b"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "src/element-a.ts", "src/element-a.ts"},
		{"scoped package", "@lit/reactive-element", "@lit/reactive-element"},
		{"dotted name", "lit.LitElement", "lit.LitElement"},
		{"call expression", "Mixin(LitElement)", "Mixin(LitElement)"},
		{"union type", "string | undefined", "string | undefined"},
		{"array type", "string[]", `"string[]"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := encodeValue(tt.in)
			if got != tt.want {
				t.Errorf("encodeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	m := &Manifest{
		Package: "basic-elements",
		Root:    "basic-elements",
		Modules: []Module{
			{Path: "src/element-a.ts", Rank: 0.25, Classes: 1, Elements: 1},
			{Path: "src/element-b.ts", Rank: 0.75, Classes: 2, Elements: 1},
		},
		Elements: []Element{
			{Module: "src/element-a.ts", Class: "ElementA", Tagname: "element-a", Base: "LitElement"},
		},
		Properties: []Property{
			{Module: "src/element-a.ts", Class: "ElementA", Name: "b", Attribute: "bbb", Type: "number", TypeOption: "Number", Reflect: true},
			{Module: "src/element-a.ts", Class: "ElementA", Name: "open", Type: "boolean", State: true, Inherited: true},
		},
		Heritage: []graph.Edge{
			{Module: "src/element-a.ts", Class: "ElementA", Super: "LitElement", Specifier: "lit",
				TargetPackage: "lit-element", TargetModule: "lit-element.d.ts", Target: "LitElement"},
			{Module: "src/element-b.ts", Class: "Mixed", Super: "Mixin(HTMLElement)", Err: "unsupported heritage expression"},
		},
		Dependencies: []graph.Dependency{
			{Source: "src/element-a.ts", TargetPackage: "lit-element", Target: "lit-element.d.ts", Symbols: []string{"LitElement"}},
		},
	}

	got := Encode(m)

	want := []string{
		"package: basic-elements",
		"root: basic-elements",
		"modules[2]{path,rank,classes,elements}:",
		"  src/element-a.ts,0.2500,1,1",
		"  src/element-b.ts,0.7500,2,1",
		"elements[1]{module,class,tagname,base}:",
		"  src/element-a.ts,ElementA,element-a,LitElement",
		"properties[2]{module,class,name,attribute,type,option,flags}:",
		"  src/element-a.ts,ElementA,b,bbb,number,Number,reflect",
		`  src/element-a.ts,ElementA,open,"",boolean,"",state inherited`,
		"heritage[2]{module,class,super,package,target,error}:",
		`  src/element-a.ts,ElementA,LitElement,lit-element,lit-element.d.ts,""`,
		`  src/element-b.ts,Mixed,Mixin(HTMLElement),"","",unsupported heritage expression`,
		"dependencies[1]{source,package,target,symbols}:",
		"  src/element-a.ts,lit-element,lit-element.d.ts,LitElement",
	}
	lines := strings.Split(got, "\n")
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), got)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	got := Encode(&Manifest{Package: "empty", Root: "empty"})
	for _, section := range []string{
		"modules[0]{path,rank,classes,elements}:",
		"elements[0]{module,class,tagname,base}:",
		"heritage[0]{module,class,super,package,target,error}:",
	} {
		if !strings.Contains(got, section) {
			t.Errorf("expected %q, got:\n%s", section, got)
		}
	}
}
