package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// PackageJSON holds the package.json fields module resolution needs.
type PackageJSON struct {
	Dir     string
	Name    string
	Types   string
	Module  string
	Main    string
	exports gjson.Result
}

// ReadPackageJSON reads dir/package.json.
func ReadPackageJSON(dir string) (*PackageJSON, error) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s: invalid package.json", dir)
	}
	doc := gjson.ParseBytes(data)
	pj := &PackageJSON{
		Dir:     dir,
		Name:    doc.Get("name").String(),
		Types:   doc.Get("types").String(),
		Module:  doc.Get("module").String(),
		Main:    doc.Get("main").String(),
		exports: doc.Get("exports"),
	}
	if pj.Types == "" {
		pj.Types = doc.Get("typings").String()
	}
	return pj, nil
}

// conditions are the export conditions tried, in order.
var conditions = []string{"types", "import", "module", "default", "require"}

// Export returns the target of an `exports` entry. subpath is "." for the
// package entry point or "./x.js" for deep imports.
func (p *PackageJSON) Export(subpath string) (string, bool) {
	if !p.exports.Exists() {
		return "", false
	}
	if p.exports.Type == gjson.String {
		if subpath != "." {
			return "", false
		}
		return p.exports.String(), true
	}
	entry := p.exports.Get(escapeKey(subpath))
	if !entry.Exists() {
		if subpath != "." || !isConditionMap(p.exports) {
			return "", false
		}
		entry = p.exports
	}
	return pickCondition(entry)
}

// EntryPoints returns the files the package's main entry may live in, most
// specific first.
func (p *PackageJSON) EntryPoints() []string {
	var out []string
	if target, ok := p.Export("."); ok {
		out = append(out, target)
	}
	for _, f := range []string{p.Types, p.Module, p.Main} {
		if f != "" {
			out = append(out, f)
		}
	}
	return append(out, "index.js")
}

func pickCondition(entry gjson.Result) (string, bool) {
	switch {
	case entry.Type == gjson.String:
		return entry.String(), true
	case entry.IsObject():
		for _, c := range conditions {
			if v := entry.Get(c); v.Exists() {
				return pickCondition(v)
			}
		}
	}
	return "", false
}

func isConditionMap(r gjson.Result) bool {
	if !r.IsObject() {
		return false
	}
	cond := true
	r.ForEach(func(key, _ gjson.Result) bool {
		if strings.HasPrefix(key.String(), ".") {
			cond = false
			return false
		}
		return true
	})
	return cond
}

// escapeKey escapes gjson path syntax so key is matched literally.
func escapeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FindPackageRoot returns the nearest directory at or above dir holding a
// package.json, or "" when there is none.
func FindPackageRoot(dir string) string {
	for {
		if _, err := os.Stat(filepath.Join(dir, "package.json")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// SplitSpecifier splits a bare module specifier into its package name and
// subpath, e.g. "@lit/reactive-element/css-tag.js" into
// "@lit/reactive-element" and "css-tag.js".
func SplitSpecifier(spec string) (name, subpath string) {
	parts := strings.SplitN(spec, "/", 3)
	if strings.HasPrefix(spec, "@") && len(parts) >= 2 {
		name = parts[0] + "/" + parts[1]
		if len(parts) == 3 {
			subpath = parts[2]
		}
		return name, subpath
	}
	name, subpath, _ = strings.Cut(spec, "/")
	return name, subpath
}
