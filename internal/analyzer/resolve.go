package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/phobologic/litmodel/internal/discover"
	"github.com/phobologic/litmodel/internal/lang"
	"github.com/phobologic/litmodel/internal/model"
	"github.com/phobologic/litmodel/internal/parse"
)

var identRe = regexp.MustCompile(`^[\p{L}_$][\p{L}\p{N}_$]*$`)

// binding names a class the way a module refers to it: a local name, or an
// import of Imported from Specifier.
type binding struct {
	name      string
	specifier string
	imported  string
}

// Resolve implements model.Resolver.
func (a *Analyzer) Resolve(ref *model.Reference) (*model.Declaration, error) {
	f, err := a.file(ref.Module)
	if err != nil {
		return nil, &model.ResolutionError{Name: ref.Name, Module: ref.Module, Err: err}
	}
	sym, err := a.resolveBinding(f, binding{name: ref.Name, specifier: ref.Specifier, imported: ref.Imported})
	if err != nil {
		return nil, err
	}
	// Materialize the target's module so its package lists it.
	if _, err := a.Module(sym.file.Path); err != nil {
		return nil, &model.ResolutionError{Name: ref.Name, Module: ref.Module, Err: err}
	}
	a.attachPending()
	return a.declaration(sym), nil
}

func (a *Analyzer) resolveBinding(from *parse.SourceFile, b binding) (symbol, error) {
	if b.specifier == "" {
		return a.lookupLocal(from, b.name, make(map[string]bool))
	}
	target, err := a.importedFile(from.Path, b.specifier)
	if err != nil {
		return symbol{}, &model.ResolutionError{Name: b.name, Module: from.Path, Err: err}
	}
	return a.lookupExport(target, b.imported, make(map[string]bool))
}

// lookupLocal finds the class a name is bound to in f, following imports.
func (a *Analyzer) lookupLocal(f *parse.SourceFile, name string, visited map[string]bool) (symbol, error) {
	if c, ok := f.Class(name); ok {
		return symbol{file: f, class: c}, nil
	}
	if imp, ok := f.Import(name); ok {
		if imp.Imported == "*" {
			return symbol{}, &model.ResolutionError{Name: name, Module: f.Path, Reason: "namespace import is not a class"}
		}
		target, err := a.importedFile(f.Path, imp.Specifier)
		if err != nil {
			return symbol{}, &model.ResolutionError{Name: name, Module: f.Path, Err: err}
		}
		return a.lookupExport(target, imp.Imported, visited)
	}
	reason := "not declared in module"
	if !identRe.MatchString(name) {
		reason = "unsupported heritage expression"
	}
	return symbol{}, &model.ResolutionError{Name: name, Module: f.Path, Reason: reason}
}

// lookupExport finds the class f exports as name.
func (a *Analyzer) lookupExport(f *parse.SourceFile, name string, visited map[string]bool) (symbol, error) {
	key := f.Path + "#" + name
	if visited[key] {
		return symbol{}, &model.ResolutionError{Name: name, Module: f.Path, Reason: "circular re-export"}
	}
	visited[key] = true

	for _, e := range f.Exports {
		if e.Exported != name {
			continue
		}
		if e.Specifier == "" {
			return a.lookupLocal(f, e.Local, visited)
		}
		target, err := a.importedFile(f.Path, e.Specifier)
		if err != nil {
			return symbol{}, &model.ResolutionError{Name: name, Module: f.Path, Err: err}
		}
		return a.lookupExport(target, e.Local, visited)
	}

	if name == "default" {
		for _, c := range f.Classes {
			if c.Default {
				return symbol{file: f, class: c}, nil
			}
		}
	} else {
		// `export *` never re-exports default.
		for _, e := range f.Exports {
			if e.Exported != "*" {
				continue
			}
			target, err := a.importedFile(f.Path, e.Specifier)
			if err != nil {
				a.log.Debug("skipping star export", zap.String("module", f.Path), zap.String("specifier", e.Specifier), zap.Error(err))
				continue
			}
			if sym, err := a.lookupExport(target, name, visited); err == nil {
				return sym, nil
			}
		}
	}
	return symbol{}, &model.ResolutionError{Name: name, Module: f.Path, Reason: "not exported"}
}

func (a *Analyzer) importedFile(from, spec string) (*parse.SourceFile, error) {
	path, err := a.resolveSpecifier(from, spec)
	if err != nil {
		return nil, err
	}
	f, err := a.file(path)
	if err != nil {
		return nil, err
	}
	a.reached(path)
	return f, nil
}

// resolveSpecifier maps a module specifier to a source file path.
// Relative specifiers resolve against the importing file. Bare specifiers
// are looked up in node_modules directories from the importer upward.
func (a *Analyzer) resolveSpecifier(from, spec string) (string, error) {
	dir := filepath.Dir(from)
	if isRelative(spec) {
		base := spec
		if !filepath.IsAbs(spec) {
			base = filepath.Join(dir, filepath.FromSlash(spec))
		}
		if p, ok := findSource(base); ok {
			return p, nil
		}
		return "", fmt.Errorf("module %q not found", spec)
	}

	name, sub := discover.SplitSpecifier(spec)
	for d := dir; ; {
		pkgDir := filepath.Join(d, "node_modules", filepath.FromSlash(name))
		if fi, err := os.Stat(pkgDir); err == nil && fi.IsDir() {
			return a.resolvePackageFile(pkgDir, spec, sub)
		}
		parent := filepath.Dir(d)
		if parent == d {
			break
		}
		d = parent
	}
	return "", fmt.Errorf("package %q not found", name)
}

func (a *Analyzer) resolvePackageFile(pkgDir, spec, sub string) (string, error) {
	pj := a.packageJSON(pkgDir)
	var candidates []string
	switch {
	case sub == "" && pj != nil:
		candidates = pj.EntryPoints()
	case sub == "":
		candidates = []string{"index.js"}
	default:
		if pj != nil {
			if target, ok := pj.Export("./" + sub); ok {
				candidates = append(candidates, target)
			}
		}
		candidates = append(candidates, sub)
	}
	for _, c := range candidates {
		if p, ok := findSource(filepath.Join(pkgDir, filepath.FromSlash(c))); ok {
			return p, nil
		}
	}
	return "", fmt.Errorf("no source file for %q in %s", spec, pkgDir)
}

func isRelative(spec string) bool {
	return spec == "." || spec == ".." ||
		strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") ||
		strings.HasPrefix(spec, "/")
}

// sourceFor maps an emitted JavaScript extension to its TypeScript source
// and declaration extensions.
var sourceFor = map[string][]string{
	".js":  {".ts", ".tsx", ".d.ts"},
	".jsx": {".tsx", ".d.ts"},
	".mjs": {".mts", ".d.mts"},
	".cjs": {".cts", ".d.cts"},
}

// findSource finds the file a module path refers to, trying TypeScript sources
// for .js paths, then added extensions, then directory indexes.
func findSource(base string) (string, bool) {
	var candidates []string
	ext := filepath.Ext(base)
	if alt, ok := sourceFor[ext]; ok {
		stem := strings.TrimSuffix(base, ext)
		for _, e := range alt {
			candidates = append(candidates, stem+e)
		}
		candidates = append(candidates, base)
	} else if lang.ForPath(base) != nil {
		candidates = append(candidates, base)
	}
	for _, e := range []string{".ts", ".tsx", ".d.ts", ".js", ".mjs"} {
		candidates = append(candidates, base+e)
	}
	for _, e := range []string{"index.ts", "index.tsx", "index.d.ts", "index.js"} {
		candidates = append(candidates, filepath.Join(base, e))
	}

	for _, c := range candidates {
		if lang.ForPath(c) == nil {
			continue
		}
		if fi, err := os.Stat(c); err == nil && fi.Mode().IsRegular() {
			return c, true
		}
	}
	return "", false
}
