package logger

import "fmt"

// Config contains logging configuration for the client.
type Config struct {
	// Level is the minimum level to emit: trace, debug, info, warn, error.
	Level string `yaml:"level" mapstructure:"level"`
	// Format selects the output format: "json" or "console".
	Format string `yaml:"format" mapstructure:"format"`
	// Output selects the destination: "stdout" or "stderr".
	Output string `yaml:"output" mapstructure:"output"`
	// NoColor disables ANSI colors in console output.
	NoColor bool `yaml:"no_color" mapstructure:"no_color"`
	// Caller adds the caller file:line to each entry.
	Caller bool `yaml:"caller" mapstructure:"caller"`
}

// ApplyDefaults fills zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Level {
	case "trace", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("logger: level must be one of [trace, debug, info, warn, error, fatal] (got: %s)", c.Level)
	}
	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger: format must be one of [json, console] (got: %s)", c.Format)
	}
	return nil
}
