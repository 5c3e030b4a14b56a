package analyzer

import (
	"go.uber.org/zap"

	"github.com/phobologic/litmodel/internal/discover"
	"github.com/phobologic/litmodel/internal/lang"
	"github.com/phobologic/litmodel/internal/model"
)

// isLitElement reports whether a class derives, directly or transitively,
// from a framework base class. The answer is cached per class node.
func (a *Analyzer) isLitElement(sym symbol) bool {
	return a.classify(sym, make(map[nodeKey]bool))
}

func (a *Analyzer) classify(sym symbol, visiting map[nodeKey]bool) bool {
	k := sym.key()
	if v, ok := a.lit[k]; ok {
		return v
	}
	if visiting[k] {
		a.log.Warn("cyclic class heritage",
			zap.String("class", sym.class.Name),
			zap.String("module", sym.file.Path))
		return false
	}
	visiting[k] = true
	v := a.extendsFramework(sym, visiting)
	a.lit[k] = v
	return v
}

func (a *Analyzer) extendsFramework(sym symbol, visiting map[nodeKey]bool) bool {
	// The framework's own classes are its building blocks, not elements.
	if a.cfg.IsFrameworkPackage(a.packageOf(sym.file.Path).Name) {
		return false
	}
	b, ok := superBinding(sym)
	if !ok {
		return false
	}
	if b.specifier != "" && !isRelative(b.specifier) {
		pkg, _ := discover.SplitSpecifier(b.specifier)
		if a.cfg.IsFrameworkBase(pkg, b.imported) {
			return true
		}
	}

	super, err := a.resolveBinding(sym.file, b)
	if err != nil {
		a.log.Debug("unresolved superclass",
			zap.String("class", sym.class.Name),
			zap.String("module", sym.file.Path),
			zap.Error(err))
		return false
	}
	if a.isFrameworkBase(super) {
		return true
	}
	return a.classify(super, visiting)
}

// isFrameworkBase reports whether sym is one of the framework's base
// classes, identified by its declaring package rather than its name.
func (a *Analyzer) isFrameworkBase(sym symbol) bool {
	return a.cfg.IsFrameworkBase(a.packageOf(sym.file.Path).Name, sym.class.Name)
}

// Tagname implements model.ClassAnalyzer. An element decorator takes
// precedence over a customElements.define call in the same module.
func (a *Analyzer) Tagname(d *model.Declaration) (string, bool) {
	sym, err := a.symbolOf(d)
	if err != nil {
		return "", false
	}
	for _, dec := range sym.class.Decorators {
		name, args := decoratorCall(sym.file, dec)
		if !a.cfg.IsElementDecorator(name) || len(args) == 0 {
			continue
		}
		if arg := unwrapExpr(args[0]); arg.Type() == "string" {
			return lang.Unquote(sym.file.Text(arg)), true
		}
	}
	if sym.class.Name == "" {
		return "", false
	}
	for _, def := range sym.file.Defines {
		if def.Class == sym.class.Name {
			return def.Tagname, true
		}
	}
	return "", false
}
