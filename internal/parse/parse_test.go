package parse

import (
	"context"
	"testing"

	"github.com/phobologic/litmodel/internal/lang"
)

func setup(t *testing.T, langName string) func(source string) *SourceFile {
	t.Helper()
	l := lang.Languages[langName]
	if l == nil {
		t.Fatalf("language %q not registered", langName)
	}
	q, err := l.GetDefineQuery()
	if err != nil {
		t.Fatalf("GetDefineQuery: %v", err)
	}
	ext := l.Extensions[0]
	return func(source string) *SourceFile {
		p := l.NewParser()
		f, err := Parse(context.Background(), l, p, q, []byte(source), "test"+ext)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		t.Cleanup(f.Close)
		return f
	}
}

// --- TypeScript tests ---

func TestTypeScriptImports(t *testing.T) {
	t.Parallel()
	parse := setup(t, "typescript")

	f := parse(`import {LitElement, html as h} from 'lit';
import Base from './base.js';
import * as lit from "lit";
import type {PropertyValues} from 'lit';
`)
	want := []Import{
		{Local: "LitElement", Imported: "LitElement", Specifier: "lit"},
		{Local: "h", Imported: "html", Specifier: "lit"},
		{Local: "Base", Imported: "default", Specifier: "./base.js"},
		{Local: "lit", Imported: "*", Specifier: "lit"},
		{Local: "PropertyValues", Imported: "PropertyValues", Specifier: "lit"},
	}
	if len(f.Imports) != len(want) {
		t.Fatalf("got %d imports, want %d: %+v", len(f.Imports), len(want), f.Imports)
	}
	for i := range want {
		if f.Imports[i] != want[i] {
			t.Errorf("import %d = %+v, want %+v", i, f.Imports[i], want[i])
		}
	}

	imp, ok := f.Import("h")
	if !ok || imp.Imported != "html" {
		t.Errorf("Import(h) = %+v, %v", imp, ok)
	}
}

func TestTypeScriptClasses(t *testing.T) {
	t.Parallel()
	parse := setup(t, "typescript")

	f := parse(`import {customElement} from 'lit/decorators.js';

class Local {}

@customElement('element-a')
export class ElementA extends LitElement {}

export abstract class Abstract {}

export declare class Ambient extends Base {}

export default class extends Local {}
`)
	names := []string{"Local", "ElementA", "Abstract", "Ambient", ""}
	if len(f.Classes) != len(names) {
		t.Fatalf("got %d classes, want %d", len(f.Classes), len(names))
	}
	for i, name := range names {
		if f.Classes[i].Name != name {
			t.Errorf("class %d name = %q, want %q", i, f.Classes[i].Name, name)
		}
	}

	a, ok := f.Class("ElementA")
	if !ok {
		t.Fatal("ElementA not found")
	}
	if len(a.Decorators) != 1 {
		t.Fatalf("ElementA decorators = %d, want 1", len(a.Decorators))
	}
	if got := f.Text(a.Decorators[0]); got != "@customElement('element-a')" {
		t.Errorf("decorator = %q", got)
	}

	if !f.Classes[4].Default {
		t.Error("anonymous class should be the default export")
	}
	if _, ok := f.Class(""); ok {
		t.Error("Class(\"\") should not match anonymous classes")
	}

	exported := make(map[string]bool)
	for _, e := range f.Exports {
		exported[e.Exported] = true
	}
	for _, name := range []string{"ElementA", "Abstract", "Ambient"} {
		if !exported[name] {
			t.Errorf("missing export %s in %+v", name, f.Exports)
		}
	}
	if exported["Local"] {
		t.Error("Local should not be exported")
	}
}

func TestTypeScriptExports(t *testing.T) {
	t.Parallel()
	parse := setup(t, "typescript")

	f := parse(`class A {}
export {A, A as B};
export {C as D} from './c.js';
export * from 'lit-element/lit-element.js';
export * as ns from './ns.js';
export default A;
`)
	want := []Export{
		{Exported: "A", Local: "A"},
		{Exported: "B", Local: "A"},
		{Exported: "D", Local: "C", Specifier: "./c.js"},
		{Exported: "*", Specifier: "lit-element/lit-element.js"},
		{Exported: "default", Local: "A"},
	}
	if len(f.Exports) != len(want) {
		t.Fatalf("got %d exports, want %d: %+v", len(f.Exports), len(want), f.Exports)
	}
	for i := range want {
		if f.Exports[i] != want[i] {
			t.Errorf("export %d = %+v, want %+v", i, f.Exports[i], want[i])
		}
	}
}

func TestTypeScriptDefines(t *testing.T) {
	t.Parallel()
	parse := setup(t, "typescript")

	f := parse(`export class ElementB extends LitElement {}
customElements.define('element-b', ElementB);
window.registry.define('not-this', ElementB);
`)
	if len(f.Defines) != 1 {
		t.Fatalf("got %d defines, want 1: %+v", len(f.Defines), f.Defines)
	}
	if f.Defines[0] != (Define{Tagname: "element-b", Class: "ElementB"}) {
		t.Errorf("define = %+v", f.Defines[0])
	}
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()
	parse := setup(t, "typescript")

	f := parse("")
	if len(f.Classes) != 0 || len(f.Imports) != 0 || len(f.Exports) != 0 {
		t.Errorf("expected no facts for empty source, got %+v", f)
	}
}

// --- JavaScript tests ---

func TestJavaScriptClasses(t *testing.T) {
	t.Parallel()
	parse := setup(t, "javascript")

	f := parse(`import {LitElement} from 'lit';

export class ElementD extends LitElement {
  static get properties() {
    return {foo: {type: String}};
  }
}
customElements.define('element-d', ElementD);
`)
	if len(f.Classes) != 1 || f.Classes[0].Name != "ElementD" {
		t.Fatalf("classes = %+v", f.Classes)
	}
	if len(f.Defines) != 1 || f.Defines[0].Tagname != "element-d" {
		t.Errorf("defines = %+v", f.Defines)
	}
	if len(f.Imports) != 1 || f.Imports[0].Specifier != "lit" {
		t.Errorf("imports = %+v", f.Imports)
	}
}
