// Package config loads client configuration from YAML files, .env files,
// and environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Options controls where configuration is loaded from.
type Options struct {
	// ConfigFile is an explicit YAML config file path. When empty, the
	// conventional locations are searched.
	ConfigFile string
	// EnvFile is an explicit .env file path. When empty, "./.env" is used
	// if it exists.
	EnvFile string
	// EnvPrefix is the environment variable prefix, e.g. "RINCON" binds
	// RINCON_BASE_URL to base_url. Defaults to the upper-cased name passed
	// to Load.
	EnvPrefix string
}

// Option is a functional option for Load.
type Option func(*Options)

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) Option {
	return func(o *Options) { o.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) Option {
	return func(o *Options) { o.EnvFile = path }
}

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(o *Options) { o.EnvPrefix = prefix }
}

// Load populates cfg from, in increasing precedence: a YAML config file, a
// .env file, and prefixed environment variables. Missing files are not an
// error; a malformed config file is.
func Load(name string, cfg interface{}, opts ...Option) error {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.EnvPrefix == "" {
		o.EnvPrefix = strings.ToUpper(name)
	}

	// .env first so viper's env binding sees its variables.
	envFile := o.EnvFile
	if envFile == "" && fileExists(".env") {
		envFile = ".env"
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("config: load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(o.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configFile := o.ConfigFile
	if configFile == "" {
		configFile = findConfigFile(name)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	bindKeys(v, cfg)

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshal for %s: %w", name, err)
	}
	return nil
}

// findConfigFile searches the conventional locations for a config file.
func findConfigFile(name string) string {
	candidates := []string{
		fmt.Sprintf("%s.yml", name),
		fmt.Sprintf("%s.yaml", name),
		"config.yml",
		"config.yaml",
		fmt.Sprintf("config/%s.yml", name),
		"config/config.yml",
	}
	for _, path := range candidates {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// bindKeys registers every config key with viper so AutomaticEnv can
// resolve env-only values that appear in no config file.
func bindKeys(v *viper.Viper, cfg interface{}) {
	settings := map[string]interface{}{}
	if err := mapstructureKeys(cfg, "", settings); err != nil {
		return
	}
	for key := range settings {
		_ = v.BindEnv(key)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
