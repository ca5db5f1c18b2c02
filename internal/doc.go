// Package internal contains the core implementation packages for tsxrunner.
//
// # Package Organization
//
// The internal packages are organized by pipeline stage:
//
//   - compiler: TSX to CommonJS transpilation with esbuild
//   - sandbox: goja runtime with a closed module table and console capture
//   - react: minimal createElement and hooks module exposed to scripts
//   - fluent: Fluent UI components built on the react module
//   - render: element tree to sanitized HTML
//   - playground: the Runner pipeline and the shared Session
//   - errors: the four failure kinds and suggested fixes
//   - server, middleware, websocket, ui: the HTTP playground
//   - watcher: debounced file following for watch mode
//   - config, logging, metrics, validation, version: supporting packages
//
// A run flows compiler, sandbox, render. The playground package owns the
// ordering and turns each stage's failure into exactly one error kind.
package internal
