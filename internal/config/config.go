// Package config loads analyzer settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the config file looked up in a package root.
const FileName = ".litmodel.toml"

// Attribute name cases.
const (
	AttributeCaseVerbatim = "verbatim"
	AttributeCaseLower    = "lower"
)

// Framework identifies the element base classes and the syntax that
// declares reactive properties.
type Framework struct {
	// Packages define the base classes; classes declared in them are
	// never elements themselves.
	Packages           []string `toml:"packages"`
	BaseClasses        []string `toml:"base_classes"`
	PropertyDecorators []string `toml:"property_decorators"`
	StateDecorators    []string `toml:"state_decorators"`
	ElementDecorators  []string `toml:"element_decorators"`
	// PropertiesAccessor is the static member holding property options.
	PropertiesAccessor string `toml:"properties_accessor"`
}

type Attributes struct {
	Case string `toml:"case"`
}

type Discover struct {
	Exclude     []string `toml:"exclude"`
	SkipTests   bool     `toml:"skip_tests"`
	MaxFileSize int64    `toml:"max_file_size"`
}

// Config is the complete analyzer configuration.
type Config struct {
	Framework  Framework  `toml:"framework"`
	Attributes Attributes `toml:"attributes"`
	Discover   Discover   `toml:"discover"`
}

// Default returns the configuration for Lit.
func Default() *Config {
	return &Config{
		Framework: Framework{
			Packages:           []string{"lit", "lit-element", "@lit/reactive-element"},
			BaseClasses:        []string{"LitElement", "ReactiveElement"},
			PropertyDecorators: []string{"property"},
			StateDecorators:    []string{"state", "internalProperty"},
			ElementDecorators:  []string{"customElement"},
			PropertiesAccessor: "properties",
		},
		Attributes: Attributes{Case: AttributeCaseVerbatim},
		Discover: Discover{
			SkipTests:   true,
			MaxFileSize: 1_000_000,
		},
	}
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDir loads FileName from dir, or returns the defaults when the file
// does not exist.
func LoadDir(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks the framework identity is usable.
func (c *Config) Validate() error {
	if len(c.Framework.Packages) == 0 {
		return errors.New("framework.packages must not be empty")
	}
	if len(c.Framework.BaseClasses) == 0 {
		return errors.New("framework.base_classes must not be empty")
	}
	switch c.Attributes.Case {
	case AttributeCaseVerbatim, AttributeCaseLower:
	default:
		return fmt.Errorf("attributes.case: unknown case %q", c.Attributes.Case)
	}
	if c.Discover.MaxFileSize < 0 {
		return errors.New("discover.max_file_size must not be negative")
	}
	return nil
}

// IsFrameworkPackage reports whether name is one of the framework packages.
func (c *Config) IsFrameworkPackage(name string) bool {
	return slices.Contains(c.Framework.Packages, name)
}

// IsFrameworkBase reports whether the class exported as class by package
// pkg is a framework base class.
func (c *Config) IsFrameworkBase(pkg, class string) bool {
	return c.IsFrameworkPackage(pkg) && slices.Contains(c.Framework.BaseClasses, class)
}

func (c *Config) IsPropertyDecorator(name string) bool {
	return slices.Contains(c.Framework.PropertyDecorators, name)
}

func (c *Config) IsStateDecorator(name string) bool {
	return slices.Contains(c.Framework.StateDecorators, name)
}

func (c *Config) IsElementDecorator(name string) bool {
	return slices.Contains(c.Framework.ElementDecorators, name)
}

// AttributeName returns the default attribute of a property.
func (c *Config) AttributeName(property string) string {
	if c.Attributes.Case == AttributeCaseLower {
		return strings.ToLower(property)
	}
	return property
}
