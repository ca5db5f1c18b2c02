package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindLabel(t *testing.T) {
	assert.Equal(t, "Compile Error", KindCompile.Label())
	assert.Equal(t, "Import Error", KindImport.Label())
	assert.Equal(t, "Export Error", KindExport.Label())
	assert.Equal(t, "Runtime Error", KindRuntime.Label())
}

func TestNewImportError(t *testing.T) {
	err := NewImportError("unknown-package", []string{"react", "@fluentui/react-components"})

	assert.Equal(t, KindImport, err.Kind)
	assert.Equal(t, "unknown-package", err.Module)
	assert.Contains(t, err.Error(), `"unknown-package" is not available`)
	assert.Contains(t, err.Error(), "Only React and @fluentui/react-components are allowed.")
}

func TestJoinAllowed(t *testing.T) {
	assert.Equal(t, "no modules", joinAllowed(nil))
	assert.Equal(t, "react", joinAllowed([]string{"react"}))
	assert.Equal(t, "a, b and c", joinAllowed([]string{"a", "b", "c"}))
}

func TestDisplayNames(t *testing.T) {
	in := []string{"react", "@fluentui/react-components"}
	assert.Equal(t, []string{"React", "@fluentui/react-components"}, displayNames(in))
	assert.Equal(t, "react", in[0])
}

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"compile", NewCompileError("bad syntax"), KindCompile},
		{"import", NewImportError("fs", []string{"react"}), KindImport},
		{"export", NewExportError(), KindExport},
		{"runtime", NewRuntimeError("boom", nil), KindRuntime},
		{"wrapped", fmt.Errorf("stage: %w", NewExportError()), KindExport},
		{"foreign", errors.New("plain"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.kind == KindCompile, IsCompileError(tt.err))
			assert.Equal(t, tt.kind == KindImport, IsImportError(tt.err))
			assert.Equal(t, tt.kind == KindExport, IsExportError(tt.err))
			assert.Equal(t, tt.kind == KindRuntime, IsRuntimeError(tt.err))
		})
	}
}

func TestAsPreservesMessage(t *testing.T) {
	assert.Nil(t, As(nil))

	foreign := errors.New("something broke")
	pe := As(foreign)
	require.NotNil(t, pe)
	assert.Equal(t, KindRuntime, pe.Kind)
	assert.Equal(t, "something broke", pe.Message)
	assert.ErrorIs(t, pe, foreign)

	original := NewCompileError("unexpected token")
	assert.Same(t, original, As(fmt.Errorf("wrap: %w", original)))
}

func TestIsMatchesKind(t *testing.T) {
	err := NewRuntimeError("x is not defined", nil)

	assert.ErrorIs(t, err, &PlaygroundError{Kind: KindRuntime})
	assert.NotErrorIs(t, err, &PlaygroundError{Kind: KindCompile})
	assert.NotErrorIs(t, err, &PlaygroundError{Kind: KindRuntime, Message: "other"})
}

func TestWithLocation(t *testing.T) {
	err := NewCompileError("Expected \";\"").WithLocation(3, 14)
	assert.Equal(t, 3, err.Line)
	assert.Equal(t, 14, err.Column)
}
