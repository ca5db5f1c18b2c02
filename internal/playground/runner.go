// Package playground runs component source through the compile, load and
// render pipeline and keeps the session state shown to the user.
package playground

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/conneroisu/tsxrunner/internal/compiler"
	"github.com/conneroisu/tsxrunner/internal/errors"
	"github.com/conneroisu/tsxrunner/internal/fluent"
	"github.com/conneroisu/tsxrunner/internal/logging"
	"github.com/conneroisu/tsxrunner/internal/metrics"
	"github.com/conneroisu/tsxrunner/internal/react"
	"github.com/conneroisu/tsxrunner/internal/render"
	"github.com/conneroisu/tsxrunner/internal/sandbox"
)

// Sample is the component the buffer starts with.
//
//go:embed sample.tsx
var Sample string

// DefaultFixture is the single property every component is rendered with.
func DefaultFixture() map[string]interface{} {
	return map[string]interface{}{"value": "Test Button"}
}

// Options configures a Runner.
type Options struct {
	Fixture        map[string]interface{}
	Timeout        time.Duration
	MaxSourceBytes int
	Logger         logging.Logger
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Result is the output of a successful run.
type Result struct {
	HTML     string             `json:"html"`
	Console  []sandbox.LogEntry `json:"console,omitempty"`
	Duration time.Duration      `json:"duration"`
}

// Runner executes the pipeline. It holds no per-run state and is safe for
// concurrent use; every run gets a fresh VM and module table.
type Runner struct {
	compiler *compiler.Compiler
	loader   *sandbox.Loader
	renderer *render.Renderer
	fixture  map[string]interface{}
	metrics  *metrics.Metrics
	logger   logging.Logger
}

// Modules returns the import table user code is evaluated against.
func Modules() *sandbox.Table {
	return sandbox.NewTable().
		Register(react.ModuleName, react.New).
		Register(fluent.ModuleName, fluent.New)
}

// NewRunner creates a runner. Zero options fall back to the defaults.
func NewRunner(opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Fixture == nil {
		opts.Fixture = DefaultFixture()
	}

	sandboxConfig := sandbox.DefaultConfig()
	if opts.Timeout > 0 {
		sandboxConfig.Timeout = opts.Timeout
	}

	return &Runner{
		compiler: compiler.New(compiler.Options{MaxSourceBytes: opts.MaxSourceBytes}),
		loader:   sandbox.NewLoader(Modules(), sandboxConfig, opts.Logger),
		renderer: render.New(render.Options{Logger: opts.Logger}),
		fixture:  opts.Fixture,
		metrics:  opts.Metrics,
		logger:   opts.Logger.WithComponent("runner"),
	}
}

// Run compiles, evaluates and renders source. Any failure is returned as a
// *errors.PlaygroundError; the partial result still carries the captured
// console output and timing.
func (r *Runner) Run(ctx context.Context, source string) (Result, error) {
	start := time.Now()
	perf := logging.StartOperation(r.logger, "run")

	res, err := r.guardedRun(ctx, source)
	res.Duration = time.Since(start)

	outcome := string(StatusRendered)
	if err != nil {
		pe := errors.As(err)
		err = pe
		outcome = string(pe.Kind)
		perf.EndWithError(ctx, err, "kind", pe.Kind, "source", logging.SanitizeForLog(source))
	} else {
		perf.End(ctx, "bytes", len(res.HTML))
	}

	if r.metrics != nil {
		r.metrics.RecordRun(outcome, res.Duration, len(source), len(res.Console))
	}

	return res, err
}

// guardedRun converts a panic escaping the pipeline into a runtime error.
func (r *Runner) guardedRun(ctx context.Context, source string) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			cause, _ := p.(error)
			r.logger.Error(ctx, cause, "Recovered from panic during run", "panic", fmt.Sprint(p))
			res, err = Result{}, errors.NewRuntimeError(fmt.Sprintf("Unexpected failure: %v", p), cause)
		}
	}()

	return r.run(ctx, source)
}

func (r *Runner) run(ctx context.Context, source string) (Result, error) {
	stage := time.Now()
	script, err := r.compiler.Compile(ctx, source)
	r.observe("compile", stage)
	if err != nil {
		return Result{}, err
	}
	for _, w := range script.Warnings {
		r.logger.Debug(ctx, "Compiler warning", "warning", w)
	}

	stage = time.Now()
	exp, err := r.loader.Load(ctx, script.Code)
	r.observe("load", stage)
	if err != nil {
		return Result{}, err
	}
	defer exp.Close()

	stage = time.Now()
	out, err := r.renderer.Render(ctx, exp, r.fixture)
	r.observe("render", stage)

	res := Result{Console: exp.Console()}
	if err != nil {
		return res, err
	}
	res.HTML = out

	return res, nil
}

func (r *Runner) observe(stage string, start time.Time) {
	if r.metrics != nil {
		r.metrics.ObserveStage(stage, time.Since(start))
	}
}
