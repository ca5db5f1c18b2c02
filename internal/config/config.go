// Package config provides configuration management for tsxrunner using Viper
// for loading from files, environment variables, and command-line flags.
//
// The configuration system supports YAML files, environment variable overrides
// with the TSXRUNNER_ prefix, defaults and validation. It covers the HTTP
// server, the playground pipeline (fixture, timeouts, source limits) and
// logging.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults applied by Load when a value is not configured.
const (
	DefaultHost           = "localhost"
	DefaultPort           = 8080
	DefaultFixtureProp    = "value"
	DefaultFixtureValue   = "Test Button"
	DefaultTimeout        = 2 * time.Second
	DefaultMaxSourceBytes = 256 * 1024
	DefaultDebounce       = 150 * time.Millisecond
)

type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Playground PlaygroundConfig `yaml:"playground" mapstructure:"playground"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	Host           string   `yaml:"host" mapstructure:"host"`
	Open           bool     `yaml:"open" mapstructure:"open"`
	NoOpen         bool     `yaml:"no-open" mapstructure:"no-open"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	Environment    string   `yaml:"environment" mapstructure:"environment"`
}

type PlaygroundConfig struct {
	// SampleFile replaces the bundled sample when set.
	SampleFile     string        `yaml:"sample_file" mapstructure:"sample_file"`
	FixtureProp    string        `yaml:"fixture_prop" mapstructure:"fixture_prop"`
	FixtureValue   string        `yaml:"fixture_value" mapstructure:"fixture_value"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxSourceBytes int           `yaml:"max_source_bytes" mapstructure:"max_source_bytes"`
	WatchFile      string        `yaml:"watch_file" mapstructure:"watch_file"`
	Debounce       time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Fixture returns the single property passed to the rendered component.
func (p PlaygroundConfig) Fixture() map[string]interface{} {
	return map[string]interface{}{p.FixtureProp: p.FixtureValue}
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg, func(string) bool { return false })
	return cfg
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Handle allowed_origins set via viper (workaround for viper slice handling)
	if viper.IsSet("server.allowed_origins") && len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = viper.GetStringSlice("server.allowed_origins")
	}

	applyDefaults(&config, viper.IsSet)

	// Override no-open if explicitly set via flag
	if viper.IsSet("server.no-open") && viper.GetBool("server.no-open") {
		config.Server.Open = false
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *Config, isSet func(string) bool) {
	if config.Server.Host == "" {
		config.Server.Host = DefaultHost
	}
	if !isSet("server.port") && config.Server.Port == 0 {
		config.Server.Port = DefaultPort
	}
	if config.Server.Environment == "" {
		config.Server.Environment = "development"
	}

	if config.Playground.FixtureProp == "" {
		config.Playground.FixtureProp = DefaultFixtureProp
	}
	if !isSet("playground.fixture_value") && config.Playground.FixtureValue == "" {
		config.Playground.FixtureValue = DefaultFixtureValue
	}
	if config.Playground.Timeout == 0 {
		config.Playground.Timeout = DefaultTimeout
	}
	if config.Playground.MaxSourceBytes == 0 {
		config.Playground.MaxSourceBytes = DefaultMaxSourceBytes
	}
	if config.Playground.Debounce == 0 {
		config.Playground.Debounce = DefaultDebounce
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validatePlaygroundConfig(&config.Playground); err != nil {
		return fmt.Errorf("playground config: %w", err)
	}
	if err := validateLogConfig(&config.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	for _, origin := range config.AllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("allowed origin %q must start with http:// or https://", origin)
		}
	}

	return nil
}

func validatePlaygroundConfig(config *PlaygroundConfig) error {
	if config.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got %s", config.Timeout)
	}
	if config.MaxSourceBytes < 0 {
		return fmt.Errorf("max_source_bytes must be positive, got %d", config.MaxSourceBytes)
	}
	if config.Debounce < 0 {
		return fmt.Errorf("debounce must be positive, got %s", config.Debounce)
	}
	if !isIdentifier(config.FixtureProp) {
		return fmt.Errorf("fixture_prop %q is not a valid property name", config.FixtureProp)
	}

	for name, path := range map[string]string{"sample_file": config.SampleFile, "watch_file": config.WatchFile} {
		if path == "" {
			continue
		}
		if err := validatePath(path); err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, path, err)
		}
	}

	return nil
}

func validateLogConfig(config *LogConfig) error {
	switch strings.ToLower(config.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown level %q", config.Level)
	}

	switch config.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown format %q (valid: text, json)", config.Format)
	}

	return nil
}

// validatePath validates a file path for security
func validatePath(path string) error {
	cleanPath := filepath.Clean(path)

	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if segment == ".." {
			return fmt.Errorf("path contains traversal: %s", path)
		}
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
