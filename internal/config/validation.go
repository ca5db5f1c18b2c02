package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("❌ Validation Errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("    💡 %s\n", suggestion))
			}
		}
		builder.WriteString("\n")
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("⚠️  Validation Warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("    💡 %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

// ValidateConfigWithDetails performs comprehensive validation with detailed feedback
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateServerConfigDetails(&config.Server, result)
	validatePlaygroundConfigDetails(&config.Playground, result)
	validateLogConfigDetails(&config.Log, result)

	result.Valid = !result.HasErrors()

	return result
}

func validateServerConfigDetails(config *ServerConfig, result *ValidationResult) {
	if config.Port < 0 || config.Port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: fmt.Sprintf("port %d is not in valid range 0-65535", config.Port),
			Suggestions: []string{
				"Use a port between 1024-65535 for non-privileged access",
				"Port 0 allows system to assign an available port",
			},
		})
	} else if config.Port > 0 && config.Port < 1024 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: "port below 1024 requires elevated privileges",
			Suggestions: []string{
				"Consider using a port above 1024 for development",
			},
		})
	}

	if config.Host != "" {
		if err := validateHostname(config.Host); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.host",
				Value:   config.Host,
				Message: err.Error(),
				Suggestions: []string{
					"Use 'localhost' for local development",
					"Use '0.0.0.0' to bind to all interfaces",
				},
			})
		} else if config.Host == "0.0.0.0" || config.Host == "::" {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   "server.host",
				Value:   config.Host,
				Message: "the playground executes submitted code and is reachable from other machines",
				Suggestions: []string{
					"Bind to 'localhost' unless remote access is required",
				},
			})
		}
	}

	validEnvs := []string{"development", "production", "testing"}
	if config.Environment != "" && !contains(validEnvs, config.Environment) {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "server.environment",
			Value:   config.Environment,
			Message: "unknown environment type",
			Suggestions: []string{
				"Use 'development' for local development",
				"Use 'production' for production deployments",
				"Use 'testing' for automated testing",
			},
		})
	}

	for _, origin := range config.AllowedOrigins {
		if origin == "*" {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   "server.allowed_origins",
				Value:   origin,
				Message: "wildcard origin allows any site to submit code",
				Suggestions: []string{
					"List explicit origins such as http://localhost:3000",
				},
			})
			continue
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.allowed_origins",
				Value:   origin,
				Message: "origin must start with http:// or https://",
			})
		}
	}
}

func validatePlaygroundConfigDetails(config *PlaygroundConfig, result *ValidationResult) {
	if !isIdentifier(config.FixtureProp) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "playground.fixture_prop",
			Value:   config.FixtureProp,
			Message: "fixture property must be a valid identifier",
			Suggestions: []string{
				"Use 'value' to match the bundled sample component",
			},
		})
	}

	switch {
	case config.Timeout < 0:
		result.Errors = append(result.Errors, ValidationError{
			Field:   "playground.timeout",
			Value:   config.Timeout,
			Message: "timeout must be positive",
		})
	case config.Timeout > 0 && config.Timeout < 100*time.Millisecond:
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "playground.timeout",
			Value:   config.Timeout,
			Message: "very short timeouts may interrupt ordinary components",
			Suggestions: []string{
				"Use at least 500ms",
			},
		})
	case config.Timeout > time.Minute:
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "playground.timeout",
			Value:   config.Timeout,
			Message: "long timeouts let runaway code hold the playground",
		})
	}

	if config.MaxSourceBytes < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "playground.max_source_bytes",
			Value:   config.MaxSourceBytes,
			Message: "max_source_bytes must be positive",
		})
	} else if config.MaxSourceBytes > 8*1024*1024 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "playground.max_source_bytes",
			Value:   config.MaxSourceBytes,
			Message: "source limit above 8MiB",
		})
	}

	if config.Debounce < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "playground.debounce",
			Value:   config.Debounce,
			Message: "debounce must be positive",
		})
	}

	for field, path := range map[string]string{
		"playground.sample_file": config.SampleFile,
		"playground.watch_file":  config.WatchFile,
	} {
		if path == "" {
			continue
		}
		if err := validatePath(path); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   field,
				Value:   path,
				Message: err.Error(),
				Suggestions: []string{
					"Use a path inside the current project",
				},
			})
			continue
		}
		if !pathExists(path) {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   field,
				Value:   path,
				Message: "file does not exist",
				Suggestions: []string{
					fmt.Sprintf("Create the file: touch %s", path),
				},
			})
		}
	}
}

func validateLogConfigDetails(config *LogConfig, result *ValidationResult) {
	validLevels := []string{"debug", "info", "warn", "warning", "error"}
	if !contains(validLevels, strings.ToLower(config.Level)) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "log.level",
			Value:   config.Level,
			Message: "unknown log level",
			Suggestions: []string{
				"Available levels: debug, info, warn, error",
			},
		})
	}

	if config.Format != "text" && config.Format != "json" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "log.format",
			Value:   config.Format,
			Message: "unknown log format",
			Suggestions: []string{
				"Use 'text' for terminals and 'json' for log collectors",
			},
		})
	}
}

// Helper validation functions

var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

func validateHostname(host string) error {
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
	for _, char := range dangerousChars {
		if strings.Contains(host, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}

	if net.ParseIP(host) != nil {
		return nil
	}

	if !hostnameRegex.MatchString(host) {
		return fmt.Errorf("invalid hostname format")
	}

	return nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
