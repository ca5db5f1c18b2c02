package errors

import (
	"fmt"
	"strings"
)

// ErrorSuggestion represents a suggestion for fixing an error
type ErrorSuggestion struct {
	Title       string
	Description string
	Command     string
	Example     string
}

// SuggestionContext provides context for generating suggestions
type SuggestionContext struct {
	ConfigPath     string
	AllowedModules []string
	FixtureProp    string
}

// Suggest returns fixes for a failed run, keyed on the failing stage.
func Suggest(pe *PlaygroundError, ctx *SuggestionContext) []ErrorSuggestion {
	if pe == nil {
		return nil
	}
	if ctx == nil {
		ctx = &SuggestionContext{}
	}

	switch pe.Kind {
	case KindCompile:
		suggestions := []ErrorSuggestion{
			{
				Title:       "Check the TSX syntax",
				Description: "Unclosed tags and unbalanced braces are the most common causes",
			},
		}
		if pe.Line > 0 {
			suggestions[0].Description = fmt.Sprintf("The compiler stopped at line %d, column %d", pe.Line, pe.Column)
		}
		if strings.Contains(pe.Message, "byte limit") {
			suggestions = append(suggestions, ErrorSuggestion{
				Title:   "Raise the source limit",
				Command: "TSXRUNNER_PLAYGROUND_MAX_SOURCE_BYTES=1048576 tsxrunner serve",
			})
		}
		return suggestions

	case KindImport:
		suggestions := []ErrorSuggestion{
			{
				Title:       "Import only from the available modules",
				Description: "Available: " + joinAllowed(ctx.AllowedModules),
				Example:     `import { Button } from "@fluentui/react-components";`,
			},
		}
		if pe.Module != "" && strings.HasPrefix(pe.Module, ".") {
			suggestions = append(suggestions, ErrorSuggestion{
				Title:       "Inline local modules",
				Description: "Relative imports cannot be resolved; paste the code into the same file",
			})
		}
		return suggestions

	case KindExport:
		prop := ctx.FixtureProp
		if prop == "" {
			prop = "value"
		}
		return []ErrorSuggestion{
			{
				Title:       "Export a component as the default export",
				Description: "The default export must be a function or class component",
				Example:     fmt.Sprintf("export default function Demo({ %s }) { return <span>{%s}</span>; }", prop, prop),
			},
		}

	case KindRuntime:
		suggestions := []ErrorSuggestion{
			{
				Title:       "Check the props the component reads",
				Description: fmt.Sprintf("Only %q is passed when the component renders", ctx.FixtureProp),
			},
		}
		if strings.Contains(pe.Message, "timed out") || strings.Contains(pe.Message, "interrupted") {
			suggestions = append(suggestions, ErrorSuggestion{
				Title:       "Look for infinite loops or raise the timeout",
				Description: "Runs are stopped after playground.timeout",
				Command:     "tsxrunner run --timeout 5s Component.tsx",
			})
		}
		return suggestions
	}

	return nil
}

// ServerStartError generates suggestions for server startup errors
func ServerStartError(err error, port int, ctx *SuggestionContext) []ErrorSuggestion {
	suggestions := []ErrorSuggestion{}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "address already in use") || strings.Contains(errStr, "bind") {
		suggestions = append(suggestions,
			ErrorSuggestion{
				Title:       "Port is already in use",
				Description: fmt.Sprintf("Port %d is being used by another process", port),
				Command:     fmt.Sprintf("tsxrunner serve --port %d", port+1),
			},
			ErrorSuggestion{
				Title:   "Let the system pick a port",
				Command: "tsxrunner serve --port 0",
			},
		)
	}

	if strings.Contains(errStr, "permission denied") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Permission denied",
			Description: "Ports below 1024 require elevated privileges",
			Command:     "tsxrunner serve --port 8080",
		})
	}

	return suggestions
}

// ConfigurationError generates suggestions for configuration errors
func ConfigurationError(configError string, ctx *SuggestionContext) []ErrorSuggestion {
	configPath := ".tsxrunner.yml"
	if ctx != nil && ctx.ConfigPath != "" {
		configPath = ctx.ConfigPath
	}

	suggestions := []ErrorSuggestion{
		{
			Title:       "Validate the configuration file",
			Description: fmt.Sprintf("Check %s for errors", configPath),
			Command:     "tsxrunner config validate --file " + configPath,
		},
	}

	errLower := strings.ToLower(configError)
	if strings.Contains(errLower, "yaml") || strings.Contains(errLower, "decoding") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Fix the YAML syntax",
			Description: "Check indentation and quoting",
		})
	}
	if strings.Contains(errLower, "port") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:   "Use a port between 1024 and 65535",
			Example: "server:\n       port: 8080",
		})
	}

	return suggestions
}

// FormatSuggestions formats suggestions into a user-friendly string
func FormatSuggestions(title string, suggestions []ErrorSuggestion) string {
	if len(suggestions) == 0 {
		return title
	}

	var output strings.Builder
	output.WriteString(title + "\n\n")
	output.WriteString("Suggestions:\n")

	for i, suggestion := range suggestions {
		output.WriteString(fmt.Sprintf("  %d. %s\n", i+1, suggestion.Title))
		if suggestion.Description != "" {
			output.WriteString(fmt.Sprintf("     %s\n", suggestion.Description))
		}
		if suggestion.Command != "" {
			output.WriteString(fmt.Sprintf("     Run: %s\n", suggestion.Command))
		}
		if suggestion.Example != "" {
			output.WriteString(fmt.Sprintf("     Example: %s\n", suggestion.Example))
		}
		output.WriteString("\n")
	}

	return output.String()
}

// EnhancedError wraps an error with suggestions
type EnhancedError struct {
	OriginalError error
	Title         string
	Suggestions   []ErrorSuggestion
}

// Error implements the error interface
func (e *EnhancedError) Error() string {
	return FormatSuggestions(e.Title, e.Suggestions)
}

// Unwrap returns the original error
func (e *EnhancedError) Unwrap() error {
	return e.OriginalError
}

// NewEnhancedError creates a new enhanced error with suggestions
func NewEnhancedError(title string, originalError error, suggestions []ErrorSuggestion) *EnhancedError {
	return &EnhancedError{
		OriginalError: originalError,
		Title:         title,
		Suggestions:   suggestions,
	}
}
