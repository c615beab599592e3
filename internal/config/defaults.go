// Package config provides configuration handling for stagegen.
package config

// Output formats.
const (
	FormatGo   = "go"
	FormatYAML = "yaml"
)

// DefaultOptions returns the default generation options.
func DefaultOptions() Options {
	return Options{
		ExportedOnly:  false,
		TagKey:        "builder",
		DefaultTagKey: "default",
		Format:        FormatGo,
	}
}

// DefaultLog returns the default logger settings.
func DefaultLog() LogConfig {
	return LogConfig{
		Level:      "info",
		Format:     "console",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}
