// litmodel prints the custom element model of a Lit package in TOON format.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/phobologic/litmodel/internal/analyzer"
	"github.com/phobologic/litmodel/internal/config"
	"github.com/phobologic/litmodel/internal/discover"
	"github.com/phobologic/litmodel/internal/graph"
	"github.com/phobologic/litmodel/internal/logging"
	"github.com/phobologic/litmodel/internal/model"
	"github.com/phobologic/litmodel/internal/ranking"
	"github.com/phobologic/litmodel/internal/toon"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("litmodel", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath  string
		maxModules  int
		element     string
		module      string
		cachePath   string
		maxFileSize int64
		logLevel    string
		logFile     string
		showVersion bool
	)

	fs.StringVar(&configPath, "c", "", "config file (default <package-dir>/"+config.FileName+")")
	fs.StringVar(&configPath, "config", "", "config file (default <package-dir>/"+config.FileName+")")
	fs.IntVar(&maxModules, "n", 0, "maximum number of modules to include")
	fs.IntVar(&maxModules, "max-modules", 0, "maximum number of modules to include")
	fs.StringVar(&element, "e", "", "only elements whose class or tag name contains this")
	fs.StringVar(&element, "element", "", "only elements whose class or tag name contains this")
	fs.StringVar(&module, "m", "", "only modules whose path contains this")
	fs.StringVar(&module, "module", "", "only modules whose path contains this")
	fs.StringVar(&cachePath, "cache", "", "cache file path")
	fs.Int64Var(&maxFileSize, "max-file-size", 0, "skip files larger than this many bytes (overrides config)")
	fs.StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	fs.StringVar(&logFile, "log-file", "", "also write JSON logs to this file")
	fs.BoolVar(&showVersion, "V", false, "show version and exit")
	fs.BoolVar(&showVersion, "version", false, "show version and exit")

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	if showVersion {
		_, _ = fmt.Fprintf(stdout, "litmodel %s\n", version)
		return nil
	}

	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadDir(root)
	}
	if err != nil {
		return err
	}
	if maxFileSize > 0 {
		cfg.Discover.MaxFileSize = maxFileSize
	}

	log, err := logging.New(stderr, logging.Options{Level: logLevel, File: logFile})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	filtered := maxModules > 0 || element != "" || module != ""
	useCache := cachePath != "" && !filtered
	if useCache {
		files, err := discover.Files(root, discover.Options{
			Exclude:   cfg.Discover.Exclude,
			SkipTests: cfg.Discover.SkipTests,
		})
		if err == nil && cacheIsFresh(cachePath, root, files) {
			if data, err := os.ReadFile(cachePath); err == nil {
				_, _ = stdout.Write(data)
				return nil
			}
		}
	}

	a, err := analyzer.New(root, analyzer.WithConfig(cfg), analyzer.WithLogger(log))
	if err != nil {
		return err
	}
	defer a.Close()

	pkg, err := a.Package(ctx)
	if err != nil {
		return err
	}
	if len(pkg.Modules) == 0 {
		return fmt.Errorf("no parseable files found")
	}

	m := buildManifest(log, a, pkg)
	if module != "" {
		m = ranking.FilterByModule(m, module)
	}
	if element != "" {
		m = ranking.FilterByElement(m, element)
	}
	m = ranking.SelectModules(m, maxModules)

	output := toon.Encode(m)

	if useCache {
		if err := os.WriteFile(cachePath, []byte(output+"\n"), 0o644); err != nil {
			log.Warn("failed to write cache", zap.String("path", cachePath), zap.Error(err))
		}
	}

	_, _ = fmt.Fprintln(stdout, output)
	return nil
}

// buildManifest collects the elements, properties and heritage of pkg.
// Modules are ordered by rank, highest first.
func buildManifest(log *zap.Logger, a *analyzer.Analyzer, pkg *model.Package) *toon.Manifest {
	edges := graph.BuildHeritage(pkg, a)
	deps := graph.ModuleDeps(edges)

	paths := make([]string, 0, len(pkg.Modules))
	for _, mod := range pkg.Modules {
		paths = append(paths, mod.SourcePath)
	}
	ranks := graph.Rank(pkg.Name, paths, deps)

	m := &toon.Manifest{
		Package:      pkg.Name,
		Root:         filepath.Base(pkg.RootDir),
		Heritage:     edges,
		Dependencies: deps,
	}
	for _, mod := range pkg.Modules {
		row := toon.Module{
			Path:    mod.SourcePath,
			Rank:    ranks[graph.NodeID(pkg.Name, mod.SourcePath)],
			Classes: len(mod.Declarations),
		}
		for _, d := range mod.Declarations {
			if !d.IsLitElementDeclaration() {
				continue
			}
			row.Elements++
			el := toon.Element{Module: mod.SourcePath, Class: d.Name}
			el.Tagname, _ = d.Tagname()
			base, err := model.ElementBase(d)
			if err != nil {
				log.Debug("element base not found", zap.String("class", d.Name), zap.String("module", mod.SourcePath), zap.Error(err))
			}
			if base != nil {
				el.Base = base.Name
			}
			m.Elements = append(m.Elements, el)
			m.Properties = append(m.Properties, propertyRows(log, mod, d)...)
		}
		m.Modules = append(m.Modules, row)
	}

	sort.SliceStable(m.Modules, func(i, j int) bool {
		return m.Modules[i].Rank > m.Modules[j].Rank
	})
	return m
}

func propertyRows(log *zap.Logger, mod *model.Module, d *model.Declaration) []toon.Property {
	own, err := d.ReactiveProperties()
	if err != nil {
		log.Warn("reading properties", zap.String("class", d.Name), zap.String("module", mod.SourcePath), zap.Error(err))
		return nil
	}
	all, err := d.AllReactiveProperties()
	if err != nil {
		log.Warn("merging inherited properties", zap.String("class", d.Name), zap.String("module", mod.SourcePath), zap.Error(err))
		all = own
	}

	var rows []toon.Property
	for name, p := range all.All() {
		_, isOwn := own.Get(name)
		row := toon.Property{
			Module:     mod.SourcePath,
			Class:      d.Name,
			Name:       name,
			Attribute:  p.Attribute,
			TypeOption: p.TypeOption,
			Reflect:    p.Reflect,
			State:      p.State,
			NoAccessor: p.NoAccessor,
			Inherited:  !isOwn,
		}
		if p.Type != nil {
			row.Type = p.Type.Text
		}
		rows = append(rows, row)
	}
	return rows
}

func cacheIsFresh(cachePath, root string, files []discover.FileEntry) bool {
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false
	}
	cacheMtime := cacheInfo.ModTime()

	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(cacheMtime) {
			return false
		}
	}
	return true
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-c": true, "--c": true,
	"-config": true, "--config": true,
	"-n": true, "--n": true,
	"-max-modules": true, "--max-modules": true,
	"-e": true, "--e": true,
	"-element": true, "--element": true,
	"-m": true, "--m": true,
	"-module": true, "--module": true,
	"-cache": true, "--cache": true,
	"-max-file-size": true, "--max-file-size": true,
	"-log-level": true, "--log-level": true,
	"-log-file": true, "--log-file": true,
}

// reorderArgs moves positional arguments after all flags so Go's flag package
// can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
