// Package analyzer builds the declaration model of a package from its
// parsed sources. Modules are materialized on demand; heritage, element
// classification and reactive properties are computed lazily and cached.
//
// An Analyzer is not safe for concurrent use. Only the initial parse of a
// package's files runs in parallel.
package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/litmodel/internal/config"
	"github.com/phobologic/litmodel/internal/discover"
	"github.com/phobologic/litmodel/internal/lang"
	"github.com/phobologic/litmodel/internal/model"
	"github.com/phobologic/litmodel/internal/parse"
)

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithConfig sets the framework and discovery configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *Analyzer) { a.cfg = cfg }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(a *Analyzer) { a.log = log }
}

// WithTypeOracle replaces the syntactic type oracle.
func WithTypeOracle(o TypeOracle) Option {
	return func(a *Analyzer) { a.oracle = o }
}

// Analyzer is an analysis session rooted at one package directory.
type Analyzer struct {
	root   string
	cfg    *config.Config
	log    *zap.Logger
	oracle TypeOracle

	parsers  map[string]*parserPair
	files    map[string]*fileResult
	pkgJSON  map[string]*discover.PackageJSON
	packages map[string]*model.Package
	pkgOrder []*model.Package
	main     *model.Package
	built    bool

	// pending holds dependency files a lookup passed through whose
	// modules are not attached yet.
	pending []string
	queued  map[string]bool

	modules map[string]*model.Module
	decls   map[nodeKey]*model.Declaration
	symbols map[*model.Declaration]symbol
	lit     map[nodeKey]bool
}

type parserPair struct {
	lang   *lang.Language
	parser *sitter.Parser
	query  *sitter.Query
}

type fileResult struct {
	file *parse.SourceFile
	err  error
}

// nodeKey identifies a syntax node across lookups.
type nodeKey struct {
	path       string
	start, end uint32
}

// symbol is a class node together with the file that declares it.
type symbol struct {
	file  *parse.SourceFile
	class parse.Class
}

func (s symbol) key() nodeKey {
	return nodeKey{path: s.file.Path, start: s.class.Node.StartByte(), end: s.class.Node.EndByte()}
}

// New creates an analyzer for the package rooted at root.
func New(root string, opts ...Option) (*Analyzer, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", abs)
	}

	a := &Analyzer{
		root:     abs,
		cfg:      config.Default(),
		log:      zap.NewNop(),
		oracle:   SyntaxOracle{},
		parsers:  make(map[string]*parserPair),
		files:    make(map[string]*fileResult),
		pkgJSON:  make(map[string]*discover.PackageJSON),
		packages: make(map[string]*model.Package),
		modules:  make(map[string]*model.Module),
		decls:    make(map[nodeKey]*model.Declaration),
		symbols:  make(map[*model.Declaration]symbol),
		lit:      make(map[nodeKey]bool),
		queued:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	a.main = a.packageAt(abs)
	return a, nil
}

// Close releases the syntax trees of every parsed file. Declarations must
// not be queried afterwards.
func (a *Analyzer) Close() {
	for _, r := range a.files {
		if r.file != nil {
			r.file.Close()
		}
	}
}

// Package discovers and parses the root package and returns its modules in
// source path order. The result is built once.
func (a *Analyzer) Package(ctx context.Context) (*model.Package, error) {
	if a.built {
		return a.main, nil
	}

	entries, err := discover.Files(a.root, discover.Options{
		Exclude:   a.cfg.Discover.Exclude,
		SkipTests: a.cfg.Discover.SkipTests,
	})
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, filepath.Join(a.root, e.Path))
	}
	paths = a.filterBySize(paths)

	if err := a.parseAll(ctx, paths); err != nil {
		return nil, err
	}

	modules := make([]*model.Module, 0, len(paths))
	for _, p := range paths {
		m, err := a.Module(p)
		if err != nil {
			a.log.Warn("skipping module", zap.String("path", p), zap.Error(err))
			continue
		}
		modules = append(modules, m)
	}
	a.main.Modules = modules
	a.built = true
	return a.main, nil
}

// Packages returns the root package followed by every dependency package a
// lookup has reached so far.
func (a *Analyzer) Packages() []*model.Package {
	a.attachPending()
	return append([]*model.Package(nil), a.pkgOrder...)
}

// reached queues a dependency file for attachment to its package.
func (a *Analyzer) reached(path string) {
	if a.queued[path] {
		return
	}
	if _, ok := a.modules[path]; ok {
		return
	}
	if a.packageOf(path) == a.main {
		return
	}
	a.queued[path] = true
	a.pending = append(a.pending, path)
}

// attachPending builds the modules of queued dependency files. Building a
// module may queue more files.
func (a *Analyzer) attachPending() {
	for len(a.pending) > 0 {
		path := a.pending[0]
		a.pending = a.pending[1:]
		if _, err := a.Module(path); err != nil {
			a.log.Warn("skipping dependency module", zap.String("path", path), zap.Error(err))
		}
	}
}

// Module returns the module for the file at path, parsing it if needed.
func (a *Analyzer) Module(path string) (*model.Module, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if m, ok := a.modules[abs]; ok {
		return m, nil
	}
	f, err := a.file(abs)
	if err != nil {
		return nil, err
	}

	pkg := a.packageOf(abs)
	rel, err := filepath.Rel(pkg.RootDir, abs)
	if err != nil {
		rel = abs
	}
	decls := make([]*model.Declaration, 0, len(f.Classes))
	for _, c := range f.Classes {
		decls = append(decls, a.declaration(symbol{file: f, class: c}))
	}
	m := model.NewModule(abs, filepath.ToSlash(rel), pkg.Name, decls)
	a.modules[abs] = m
	switch {
	case pkg != a.main:
		pkg.Modules = append(pkg.Modules, m)
	case a.built:
		// A file discovery skipped, reached through a reference.
		i := sort.Search(len(pkg.Modules), func(i int) bool {
			return pkg.Modules[i].SourcePath >= m.SourcePath
		})
		pkg.Modules = slices.Insert(pkg.Modules, i, m)
	}
	return m, nil
}

// declaration returns the declaration for a class node, classifying it the
// first time the node is seen.
func (a *Analyzer) declaration(sym symbol) *model.Declaration {
	k := sym.key()
	if d, ok := a.decls[k]; ok {
		return d
	}
	var d *model.Declaration
	if a.isLitElement(sym) {
		d = model.NewLitElementDeclaration(sym.class.Name, sym.class.Node, sym.file.Path, a)
	} else {
		d = model.NewClassDeclaration(sym.class.Name, sym.class.Node, sym.file.Path, a)
	}
	a.decls[k] = d
	a.symbols[d] = sym
	return d
}

func (a *Analyzer) symbolOf(d *model.Declaration) (symbol, error) {
	sym, ok := a.symbols[d]
	if !ok {
		return symbol{}, fmt.Errorf("declaration %q was not built by this analyzer", d.Name)
	}
	return sym, nil
}

// file returns the parsed file at an absolute path, parsing it on first use.
func (a *Analyzer) file(path string) (*parse.SourceFile, error) {
	if r, ok := a.files[path]; ok {
		return r.file, r.err
	}
	r := parseFile(context.Background(), a.parsers, path)
	if r.err != nil {
		a.log.Warn("failed to parse", zap.String("path", path), zap.Error(r.err))
	}
	a.files[path] = &r
	return r.file, r.err
}

func parseFile(ctx context.Context, parsers map[string]*parserPair, path string) fileResult {
	l := lang.ForPath(path)
	if l == nil {
		return fileResult{err: fmt.Errorf("%s: unsupported file type", path)}
	}
	pp, ok := parsers[l.Name]
	if !ok {
		q, err := l.GetDefineQuery()
		if err != nil {
			return fileResult{err: fmt.Errorf("query for %s: %w", l.Name, err)}
		}
		pp = &parserPair{lang: l, parser: l.NewParser(), query: q}
		parsers[l.Name] = pp
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return fileResult{err: err}
	}
	f, err := parse.Parse(ctx, pp.lang, pp.parser, pp.query, source, path)
	return fileResult{file: f, err: err}
}

// parseAll parses the files not parsed yet on a bounded worker pool.
// Each worker owns its parsers.
func (a *Analyzer) parseAll(ctx context.Context, paths []string) error {
	var todo []string
	for _, p := range paths {
		if _, ok := a.files[p]; !ok {
			todo = append(todo, p)
		}
	}
	if len(todo) == 0 {
		return nil
	}

	numWorkers := min(runtime.GOMAXPROCS(0), len(todo))
	results := make([]fileResult, len(todo))
	work := make(chan int)

	g, gctx := errgroup.WithContext(ctx)
	for range numWorkers {
		g.Go(func() error {
			parsers := make(map[string]*parserPair)
			for idx := range work {
				results[idx] = parseFile(gctx, parsers, todo[idx])
			}
			return nil
		})
	}

feed:
	for i := range todo {
		select {
		case work <- i:
		case <-gctx.Done():
			break feed
		}
	}
	close(work)

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("parsing files: %w", err)
	}

	for i, p := range todo {
		r := results[i]
		if r.err != nil {
			a.log.Warn("failed to parse", zap.String("path", p), zap.Error(r.err))
		}
		a.files[p] = &r
	}
	return nil
}

func (a *Analyzer) filterBySize(paths []string) []string {
	maxSize := a.cfg.Discover.MaxFileSize
	if maxSize <= 0 {
		return paths
	}
	var kept []string
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			kept = append(kept, p) // keep if can't stat
			continue
		}
		if fi.Size() > maxSize {
			a.log.Warn("skipped large file", zap.String("path", p), zap.Int64("size", fi.Size()))
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// packageOf returns the package a file belongs to. Files under the root
// outside node_modules belong to the root package.
func (a *Analyzer) packageOf(path string) *model.Package {
	dir := filepath.Dir(path)
	if rel, err := filepath.Rel(a.root, dir); err == nil && !strings.HasPrefix(rel, "..") &&
		!strings.Contains(filepath.ToSlash(rel), "node_modules") {
		return a.main
	}
	root := discover.FindPackageRoot(dir)
	if root == "" {
		root = dir
	}
	return a.packageAt(root)
}

func (a *Analyzer) packageAt(root string) *model.Package {
	if pkg, ok := a.packages[root]; ok {
		return pkg
	}
	name := filepath.Base(root)
	if pj := a.packageJSON(root); pj != nil && pj.Name != "" {
		name = pj.Name
	}
	pkg := &model.Package{Name: name, RootDir: root}
	a.packages[root] = pkg
	a.pkgOrder = append(a.pkgOrder, pkg)
	return pkg
}

// packageJSON reads dir/package.json once; it returns nil when the file is
// missing or invalid.
func (a *Analyzer) packageJSON(dir string) *discover.PackageJSON {
	if pj, ok := a.pkgJSON[dir]; ok {
		return pj
	}
	pj, err := discover.ReadPackageJSON(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			a.log.Debug("ignoring package.json", zap.String("dir", dir), zap.Error(err))
		}
		pj = nil
	}
	a.pkgJSON[dir] = pj
	return pj
}
