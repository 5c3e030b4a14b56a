// Package discover finds the source files of a package and reads its
// package.json metadata.
package discover

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/litmodel/internal/lang"
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path     string // Relative to package root
	Language string
}

// Options narrows discovery.
type Options struct {
	// Languages limits results to the named languages when non-empty.
	Languages []string
	// Exclude holds gitignore-style patterns relative to the root.
	Exclude []string
	// SkipTests drops files IsTestFile recognizes.
	SkipTests bool
}

var skipDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	".hg":          {},
	".svn":         {},
	"coverage":     {},
	".wireit":      {},
	".turbo":       {},
}

// Files discovers parseable source files under root. Compiled outputs
// shadowed by a TypeScript source (x.js or x.d.ts next to x.ts) are dropped.
func Files(root string, opts Options) ([]FileEntry, error) {
	langSet := make(map[string]struct{}, len(opts.Languages))
	for _, l := range opts.Languages {
		langSet[l] = struct{}{}
	}
	gitFiles := gitLsFiles(root)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = loadGitignore(root)
	}
	var excl *ignore.GitIgnore
	if len(opts.Exclude) > 0 {
		excl = ignore.CompileIgnoreLines(opts.Exclude...)
	}

	var results []FileEntry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if gitFiles != nil {
			if _, ok := gitFiles[rel]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if excl != nil && excl.MatchesPath(filepath.ToSlash(rel)) {
			return nil
		}
		if opts.SkipTests && IsTestFile(rel) {
			return nil
		}

		ext := filepath.Ext(name)
		langName := lang.ForExtension(ext)
		if langName == "" {
			return nil
		}

		if len(langSet) > 0 {
			if _, ok := langSet[langName]; !ok {
				return nil
			}
		}

		results = append(results, FileEntry{Path: rel, Language: langName})
		return nil
	})
	if err != nil {
		return nil, err
	}

	results = dropShadowed(results)

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

// dropShadowed removes declaration files and JavaScript outputs that sit
// next to a TypeScript source of the same stem, and declaration files next
// to a JavaScript module.
func dropShadowed(entries []FileEntry) []FileEntry {
	sources := make(map[string]string, len(entries))
	for _, e := range entries {
		if lang.IsDeclarationFile(e.Path) {
			continue
		}
		stem := stemOf(e.Path)
		if prev, ok := sources[stem]; !ok || prev == "javascript" {
			sources[stem] = e.Language
		}
	}

	kept := entries[:0]
	for _, e := range entries {
		stem := stemOf(e.Path)
		src, ok := sources[stem]
		switch {
		case lang.IsDeclarationFile(e.Path) && ok:
			continue
		case e.Language == "javascript" && ok && src != "javascript":
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

func stemOf(path string) string {
	if lang.IsDeclarationFile(path) {
		// x.d.ts -> x
		trimmed := strings.TrimSuffix(path, filepath.Ext(path))
		return strings.TrimSuffix(trimmed, ".d")
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// IsTestFile reports whether a package-relative path looks like a test file.
func IsTestFile(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, part := range strings.Split(slashed, "/")[:strings.Count(slashed, "/")] {
		switch part {
		case "test", "tests", "__tests__", "spec":
			return true
		}
	}
	base := filepath.Base(slashed)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.TrimSuffix(stem, ".d")
	return strings.HasSuffix(stem, ".test") || strings.HasSuffix(stem, ".spec") ||
		strings.HasSuffix(stem, "_test")
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
