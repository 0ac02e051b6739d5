package sqlgen

import (
	"io"
	"log/slog"

	"github.com/pthm/docstore/schema"
)

// Defaults for Config fields left empty.
const (
	DefaultTablePrefix    = "model_"
	DefaultFullTextParser = "TokenBigramIgnoreBlankSplitSymbolAlphaDigit"
)

// Config controls naming and table options of the generated SQL.
type Config struct {
	// TablePrefix is prepended to every table and view name.
	TablePrefix string
	// Engine is appended to CREATE TABLE statements, e.g. "ENGINE=Mroonga".
	Engine string
	// FullTextParser is named in the comment of FULLTEXT indexes.
	FullTextParser string
	// Logger receives debug output. Nil discards.
	Logger *slog.Logger
}

// Compiler generates SQL for the types of one registry.
type Compiler struct {
	reg    *schema.Registry
	cfg    Config
	logger *slog.Logger
}

// New creates a Compiler. Empty Config fields take their defaults.
func New(reg *schema.Registry, cfg Config) *Compiler {
	if cfg.TablePrefix == "" {
		cfg.TablePrefix = DefaultTablePrefix
	}
	if cfg.FullTextParser == "" {
		cfg.FullTextParser = DefaultFullTextParser
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Compiler{reg: reg, cfg: cfg, logger: logger}
}

// Registry returns the registry the compiler reads types from.
func (c *Compiler) Registry() *schema.Registry {
	return c.reg
}

// Config returns the effective configuration.
func (c *Compiler) Config() Config {
	return c.cfg
}
