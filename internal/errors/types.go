// Package errors defines the failure taxonomy of a playground run.
//
// Every stage of the pipeline reports failures as a *PlaygroundError whose
// Kind tells the caller where the run stopped: the transpile step
// (KindCompile), module resolution inside the sandbox (KindImport), the
// default export check (KindExport) or anything thrown while the user code
// executes (KindRuntime).
package errors

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind represents the stage a run failed at.
type Kind string

const (
	KindCompile Kind = "compile_error"
	KindImport  Kind = "import_error"
	KindExport  Kind = "export_error"
	KindRuntime Kind = "runtime_error"
)

var titleCaser = cases.Title(language.English)

// Label returns a human readable name such as "Compile Error".
func (k Kind) Label() string {
	return titleCaser.String(strings.ReplaceAll(string(k), "_", " "))
}

// PlaygroundError is a structured error carrying the failing stage.
type PlaygroundError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Module  string `json:"module,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Cause   error  `json:"-"`
}

// Error implements the error interface. Only the message is returned so
// what the user sees matches what the script threw.
func (e *PlaygroundError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause error.
func (e *PlaygroundError) Unwrap() error {
	return e.Cause
}

// Is reports kind equality so sentinel-style comparisons work.
func (e *PlaygroundError) Is(target error) bool {
	var t *PlaygroundError
	if errors.As(target, &t) {
		return e.Kind == t.Kind && (t.Message == "" || e.Message == t.Message)
	}

	return false
}

// WithLocation adds source location information.
func (e *PlaygroundError) WithLocation(line, column int) *PlaygroundError {
	e.Line = line
	e.Column = column

	return e
}

// WithCause records the error that triggered this one.
func (e *PlaygroundError) WithCause(cause error) *PlaygroundError {
	e.Cause = cause

	return e
}

// NewCompileError creates a transpile failure.
func NewCompileError(message string) *PlaygroundError {
	return &PlaygroundError{Kind: KindCompile, Message: message}
}

// NewImportError creates a failure for a module name outside the import table.
func NewImportError(module string, allowed []string) *PlaygroundError {
	return &PlaygroundError{
		Kind:   KindImport,
		Module: module,
		Message: fmt.Sprintf(
			"Module %q is not available. Only %s are allowed.",
			module,
			joinAllowed(displayNames(allowed)),
		),
	}
}

// NewExportError creates a failure for a missing or non-callable default export.
func NewExportError() *PlaygroundError {
	return &PlaygroundError{
		Kind:    KindExport,
		Message: "The code must export a default React component.",
	}
}

// NewRuntimeError creates a failure for anything thrown by user code.
func NewRuntimeError(message string, cause error) *PlaygroundError {
	return &PlaygroundError{Kind: KindRuntime, Message: message, Cause: cause}
}

// displayNames spells module names the way they read in prose: the view
// library is "React", scoped packages stay as imported.
func displayNames(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		if name == "react" {
			name = "React"
		}
		out[i] = name
	}
	return out
}

func joinAllowed(names []string) string {
	switch len(names) {
	case 0:
		return "no modules"
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}

// KindOf returns the kind of a playground error, or "" for other errors.
func KindOf(err error) Kind {
	var pe *PlaygroundError
	if errors.As(err, &pe) {
		return pe.Kind
	}

	return ""
}

// IsCompileError checks if an error came from the transpile step.
func IsCompileError(err error) bool { return KindOf(err) == KindCompile }

// IsImportError checks if an error came from module resolution.
func IsImportError(err error) bool { return KindOf(err) == KindImport }

// IsExportError checks if an error came from the default export check.
func IsExportError(err error) bool { return KindOf(err) == KindExport }

// IsRuntimeError checks if an error was thrown by the user code.
func IsRuntimeError(err error) bool { return KindOf(err) == KindRuntime }

// As converts any error into a *PlaygroundError. Foreign errors become
// runtime errors with their message preserved.
func As(err error) *PlaygroundError {
	if err == nil {
		return nil
	}
	var pe *PlaygroundError
	if errors.As(err, &pe) {
		return pe
	}

	return NewRuntimeError(err.Error(), err)
}
