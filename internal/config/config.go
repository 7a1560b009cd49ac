package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/logging"
)

// Config is the complete textcore configuration.
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Log    LogConfig    `toml:"log"`
	Script ScriptConfig `toml:"script"`
}

// EngineConfig configures engine.New.
type EngineConfig struct {
	MaxUndoEntries   int  `toml:"max_undo_entries"`
	ReadOnly         bool `toml:"read_only"`
	VerifyInvariants bool `toml:"verify_invariants"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `toml:"level"`
	File   string `toml:"file"`
	Prefix string `toml:"prefix"`
}

// ScriptConfig configures the Lua runtime.
type ScriptConfig struct {
	Path          string `toml:"path"`
	CallStackSize int    `toml:"call_stack_size"`
	// Timeout is a duration such as "500ms"; empty means no limit.
	Timeout string `toml:"timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{MaxUndoEntries: engine.DefaultMaxUndoEntries},
		Log:    LogConfig{Level: "info", Prefix: "textcore"},
		Script: ScriptConfig{CallStackSize: 256},
	}
}

// Load reads the file at path over the defaults. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Parse(path, data)
}

// LoadFromReader reads a configuration from r.
func LoadFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse("<reader>", data)
}

// Parse decodes TOML data over the defaults and validates the result.
// source names the data in errors.
func Parse(source string, data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, parseError(source, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return cfg, nil
}

func parseError(source string, err error) error {
	pe := &ParseError{Path: source, Message: err.Error(), Err: err}
	var de *toml.DecodeError
	var se *toml.StrictMissingError
	switch {
	case errors.As(err, &de):
		pe.Line, pe.Column = de.Position()
	case errors.As(err, &se) && len(se.Errors) > 0:
		pe.Line, pe.Column = se.Errors[0].Position()
		pe.Message = "unknown key " + strings.Join(se.Errors[0].Key(), ".")
	}
	return pe
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Engine.MaxUndoEntries < 0 {
		return fmt.Errorf("engine.max_undo_entries %d: %w", c.Engine.MaxUndoEntries, ErrValidationFailed)
	}
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("log.level %q: %w", c.Log.Level, ErrValidationFailed)
	}
	if c.Script.CallStackSize <= 0 {
		return fmt.Errorf("script.call_stack_size %d: %w", c.Script.CallStackSize, ErrValidationFailed)
	}
	if _, err := c.ScriptTimeout(); err != nil {
		return fmt.Errorf("script.timeout %q: %w", c.Script.Timeout, ErrValidationFailed)
	}
	return nil
}

// ApplyEnv overrides settings from TEXTCORE_* environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup("TEXTCORE_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := lookup("TEXTCORE_READ_ONLY"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TEXTCORE_READ_ONLY %q: %w", v, ErrValidationFailed)
		}
		c.Engine.ReadOnly = b
	}
	if v, ok := lookup("TEXTCORE_SCRIPT"); ok {
		c.Script.Path = v
	}
	return c.Validate()
}

// ScriptTimeout returns the parsed script timeout; zero means no limit.
func (c *Config) ScriptTimeout() (time.Duration, error) {
	if c.Script.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Script.Timeout)
	if err == nil && d < 0 {
		err = ErrValidationFailed
	}
	return d, err
}

// EngineOptions returns the engine options for the configuration.
func (c *Config) EngineOptions(logger *logging.Logger) []engine.Option {
	opts := []engine.Option{
		engine.WithMaxUndoEntries(c.Engine.MaxUndoEntries),
		engine.WithVerifyInvariants(c.Engine.VerifyInvariants),
		engine.WithLogger(logger),
	}
	if c.Engine.ReadOnly {
		opts = append(opts, engine.WithReadOnly())
	}
	return opts
}

// NewLogger creates the logger described by the [log] section. The
// returned close function releases the log file, if any.
func (c *Config) NewLogger(stderr io.Writer) (*logging.Logger, func() error, error) {
	level, _ := logging.ParseLevel(c.Log.Level)
	out := stderr
	closeFn := func() error { return nil }
	if c.Log.File != "" {
		f, err := os.OpenFile(c.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		out, closeFn = f, f.Close
	}
	return logging.New(logging.Config{Level: level, Output: out, Prefix: c.Log.Prefix}), closeFn, nil
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
