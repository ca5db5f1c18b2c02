package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggest(t *testing.T) {
	ctx := &SuggestionContext{
		AllowedModules: []string{"react", "@fluentui/react-components"},
		FixtureProp:    "value",
	}

	tests := []struct {
		name   string
		err    *PlaygroundError
		titles []string
		check  func(t *testing.T, s []ErrorSuggestion)
	}{
		{
			name:   "compile error with location",
			err:    NewCompileError("Expected \")\"").WithLocation(3, 7),
			titles: []string{"Check the TSX syntax"},
			check: func(t *testing.T, s []ErrorSuggestion) {
				assert.Contains(t, s[0].Description, "line 3, column 7")
			},
		},
		{
			name:   "source too large",
			err:    NewCompileError("Source is 10 bytes, which exceeds the 4 byte limit."),
			titles: []string{"Check the TSX syntax", "Raise the source limit"},
		},
		{
			name:   "package import",
			err:    NewImportError("lodash", ctx.AllowedModules),
			titles: []string{"Import only from the available modules"},
			check: func(t *testing.T, s []ErrorSuggestion) {
				assert.Equal(t, "Available: react and @fluentui/react-components", s[0].Description)
			},
		},
		{
			name:   "relative import",
			err:    NewImportError("./Button", ctx.AllowedModules),
			titles: []string{"Import only from the available modules", "Inline local modules"},
		},
		{
			name:   "export",
			err:    NewExportError(),
			titles: []string{"Export a component as the default export"},
			check: func(t *testing.T, s []ErrorSuggestion) {
				assert.Contains(t, s[0].Example, "{ value }")
			},
		},
		{
			name:   "runtime timeout",
			err:    NewRuntimeError("Execution timed out after 2s.", nil),
			titles: []string{"Check the props the component reads", "Look for infinite loops or raise the timeout"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Suggest(tt.err, ctx)
			require.Len(t, s, len(tt.titles))
			for i, title := range tt.titles {
				assert.Equal(t, title, s[i].Title)
			}
			if tt.check != nil {
				tt.check(t, s)
			}
		})
	}

	assert.Nil(t, Suggest(nil, ctx))
	assert.NotEmpty(t, Suggest(NewExportError(), nil))
}

func TestServerStartError(t *testing.T) {
	s := ServerStartError(fmt.Errorf("listen tcp :8080: bind: address already in use"), 8080, nil)
	require.Len(t, s, 2)
	assert.Equal(t, "tsxrunner serve --port 8081", s[0].Command)

	s = ServerStartError(fmt.Errorf("listen tcp :80: permission denied"), 80, nil)
	require.Len(t, s, 1)
	assert.Equal(t, "Permission denied", s[0].Title)
}

func TestConfigurationError(t *testing.T) {
	s := ConfigurationError("server config: port 70000 is not in valid range", &SuggestionContext{ConfigPath: "ci.yml"})
	require.Len(t, s, 2)
	assert.Equal(t, "tsxrunner config validate --file ci.yml", s[0].Command)

	s = ConfigurationError("yaml: line 2: mapping values are not allowed", nil)
	assert.Equal(t, "Fix the YAML syntax", s[1].Title)
}

func TestEnhancedError(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := NewEnhancedError("Failed to start", cause, []ErrorSuggestion{
		{Title: "Try again", Command: "tsxrunner serve", Example: "x"},
	})

	assert.ErrorIs(t, err, cause)
	out := err.Error()
	assert.Contains(t, out, "Failed to start\n\nSuggestions:\n  1. Try again\n")
	assert.Contains(t, out, "Run: tsxrunner serve")
	assert.Equal(t, "plain", FormatSuggestions("plain", nil))
}
