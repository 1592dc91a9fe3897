// Package config loads service configuration from an optional config file
// and DELIBERATE_-prefixed environment variables, with sane defaults.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete service configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Models  ModelsConfig  `mapstructure:"models"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	// Addr is the listen address (default ":8080")
	Addr string `mapstructure:"addr"`
}

// ModelsConfig controls which backends deliberate by default.
type ModelsConfig struct {
	// Default is the model trio used when a request names none.
	Default []string `mapstructure:"default"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error" (default "info")
	Level string `mapstructure:"level"`
}

// DefaultModels is a diverse trio spanning three providers.
var DefaultModels = []string{
	"anthropic/claude-haiku-4.5",
	"liquid/lfm-2.5-1.2b-thinking:free",
	"google/gemini-3-flash-preview",
}

// Load reads configuration. path may be empty, in which case only defaults
// and environment variables apply; a missing file at a non-empty path is an
// error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("models.default", DefaultModels)
	v.SetDefault("logging.level", "info")

	v.SetEnvPrefix("DELIBERATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
