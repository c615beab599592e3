package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables overriding the config.
const EnvPrefix = "STAGEGEN_"

// Config represents the complete configuration.
type Config struct {
	Options Options   `koanf:"options" yaml:"options"`
	Log     LogConfig `koanf:"log" yaml:"log"`
}

// Options represents generation options.
type Options struct {
	ExportedOnly     bool     `koanf:"exported_only" yaml:"exported_only"`
	AllStructs       bool     `koanf:"all_structs" yaml:"all_structs"`
	TagKey           string   `koanf:"tag_key" yaml:"tag_key"`
	DefaultTagKey    string   `koanf:"default_tag_key" yaml:"default_tag_key"`
	IncludeTypes     []string `koanf:"include_types" yaml:"include_types"`
	ExcludeTypes     []string `koanf:"exclude_types" yaml:"exclude_types"`
	Strict           bool     `koanf:"strict" yaml:"strict"`
	LoopAccumulators bool     `koanf:"loop_accumulators" yaml:"loop_accumulators"`
	Format           string   `koanf:"format" yaml:"format"`
	FixImports       bool     `koanf:"fix_imports" yaml:"fix_imports"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level      string `koanf:"level" yaml:"level"`
	Format     string `koanf:"format" yaml:"format"`
	File       string `koanf:"file" yaml:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `koanf:"compress" yaml:"compress"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Options: DefaultOptions(),
		Log:     DefaultLog(),
	}
}

// LoadFile merges a YAML (or JSON) configuration file over the current values.
// Keys missing from the file keep their current value.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	if err := k.Unmarshal("", c); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// LoadEnv merges STAGEGEN_* environment variables over the current values.
//
//	STAGEGEN_OPTIONS_STRICT=true      -> options.strict
//	STAGEGEN_LOG_MAX_SIZE_MB=50       -> log.max_size_mb
//	STAGEGEN_OPTIONS_INCLUDE_TYPES=A,B -> options.include_types
func (c *Config) LoadEnv() error {
	k := koanf.New(".")
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}

	for _, key := range []string{"options.include_types", "options.exclude_types"} {
		if k.Exists(key) {
			if err := k.Set(key, splitList(k.String(key))); err != nil {
				return fmt.Errorf("setting %s: %w", key, err)
			}
		}
	}

	if err := k.Unmarshal("", c); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// envKey maps STAGEGEN_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	switch c.Options.Format {
	case FormatGo, FormatYAML:
	default:
		return fmt.Errorf("invalid options.format %q (want %q or %q)", c.Options.Format, FormatGo, FormatYAML)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log.format %q (want \"console\" or \"json\")", c.Log.Format)
	}
	if c.Options.TagKey == "" || c.Options.DefaultTagKey == "" {
		return fmt.Errorf("options.tag_key and options.default_tag_key must not be empty")
	}
	return nil
}

// ShouldIncludeRecord checks if a record should be generated based on config.
// Records without a builder directive are only considered with all_structs.
func (c *Config) ShouldIncludeRecord(name string, isExported, annotated bool) bool {
	if !annotated && !c.Options.AllStructs {
		return false
	}

	// Check exported only filter
	if c.Options.ExportedOnly && !isExported {
		return false
	}

	// Check include list (if specified, type must be in it)
	if len(c.Options.IncludeTypes) > 0 && !slices.Contains(c.Options.IncludeTypes, name) {
		return false
	}

	// Check exclude list
	return !slices.Contains(c.Options.ExcludeTypes, name)
}
