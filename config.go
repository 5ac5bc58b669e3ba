package btregex

import (
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"

	"github.com/coregx/btregex/ast"
	"github.com/coregx/btregex/enc"
	"github.com/coregx/btregex/syntax"
)

// Config controls compilation and matching.
//
// Example:
//
//	config := btregex.DefaultConfig()
//	config.StackLimit = 1 << 16 // fail fast on runaway backtracking
//	re, err := btregex.Compile(node, config)
type Config struct {
	// Syntax names the dialect preset trees are validated against.
	// Ignored when Dialect is set.
	// Default: "ruby"
	Syntax string `yaml:"syntax"`

	// Dialect is a dialect built in code or loaded with syntax.Load.
	Dialect *syntax.Syntax `yaml:"-"`

	// OptionNames are options applied to the whole pattern, by name
	// ("ignore-case", "multiline", "find-longest", ...).
	OptionNames []string `yaml:"options"`

	// Options are added to OptionNames.
	Options ast.Options `yaml:"-"`

	// Encoding selects character classification: "utf-8" or "ascii".
	// Default: "utf-8"
	Encoding string `yaml:"encoding"`

	// MaxDepth limits tree nesting during compilation.
	// Default: 1000
	MaxDepth int `yaml:"max_depth"`

	// StackLimit caps the backtracking stack of one match attempt, in
	// entries. 0 means unlimited. An attempt over the limit fails with
	// vm.ErrMatchStackLimit.
	// Default: 1 << 20
	StackLimit int `yaml:"stack_limit"`

	// EnablePrefilter lets the search loop skip start offsets with a
	// literal or byte-map prefilter.
	// Default: true
	EnablePrefilter bool `yaml:"enable_prefilter"`

	// MaxLiterals limits the literal set extracted for the prefilter.
	// Default: 64
	MaxLiterals int `yaml:"max_literals"`

	// Logger receives compile decisions at debug level and failed
	// convenience searches at warn level.
	// Default: zap.NewNop()
	Logger *zap.Logger `yaml:"-"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Syntax:          syntax.Default.Name,
		Encoding:        enc.UTF8.Name(),
		MaxDepth:        1000,
		StackLimit:      1 << 20,
		EnablePrefilter: true,
		MaxLiterals:     64,
	}
}

// Validate checks if the configuration is valid.
//
// Valid ranges:
//   - Syntax: a preset name, unless Dialect is set
//   - Encoding: "utf-8" or "ascii"
//   - MaxDepth: 10 to 100,000
//   - StackLimit: 0, or 16 to 1 << 30
//   - MaxLiterals: 1 to 1,000 when the prefilter is enabled
func (c Config) Validate() error {
	if c.Dialect == nil {
		if _, ok := syntax.Lookup(c.Syntax); !ok {
			return &ConfigError{
				Field:   "Syntax",
				Message: "unknown dialect " + strings.TrimSpace(c.Syntax),
			}
		}
	}

	for _, name := range c.OptionNames {
		if _, err := syntax.ParseOption(name); err != nil {
			return &ConfigError{
				Field:   "OptionNames",
				Message: err.Error(),
			}
		}
	}

	if c.encoding() == nil {
		return &ConfigError{
			Field:   "Encoding",
			Message: `must be "utf-8" or "ascii"`,
		}
	}

	if c.MaxDepth < 10 || c.MaxDepth > 100_000 {
		return &ConfigError{
			Field:   "MaxDepth",
			Message: "must be between 10 and 100,000",
		}
	}

	if c.StackLimit != 0 && (c.StackLimit < 16 || c.StackLimit > 1<<30) {
		return &ConfigError{
			Field:   "StackLimit",
			Message: "must be 0 or between 16 and 1073741824",
		}
	}

	if c.EnablePrefilter {
		if c.MaxLiterals < 1 || c.MaxLiterals > 1_000 {
			return &ConfigError{
				Field:   "MaxLiterals",
				Message: "must be between 1 and 1,000",
			}
		}
	}

	return nil
}

func (c Config) dialect() *syntax.Syntax {
	if c.Dialect != nil {
		return c.Dialect
	}
	s, _ := syntax.Lookup(c.Syntax)
	return s
}

// options assumes Validate passed.
func (c Config) options() ast.Options {
	opts := c.Options
	for _, name := range c.OptionNames {
		o, _ := syntax.ParseOption(name)
		opts |= o
	}
	return opts
}

func (c Config) encoding() enc.Encoding {
	switch strings.ToLower(c.Encoding) {
	case "", "utf-8", "utf8":
		return enc.UTF8
	case "ascii":
		return enc.ASCII
	}
	return nil
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// LoadConfig reads a YAML configuration. Fields the document leaves out
// keep their DefaultConfig values.
//
//	syntax: perl
//	options: [ignore-case]
//	stack_limit: 65536
func LoadConfig(r io.Reader) (Config, error) {
	config := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, xerrors.Errorf("decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, xerrors.Errorf("load config: %w", err)
	}
	return config, nil
}

// ConfigError represents an invalid configuration parameter.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "btregex: invalid config: " + e.Field + ": " + e.Message
}
