package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/viper"

	"github.com/conneroisu/tsxrunner/internal/config"
	"github.com/conneroisu/tsxrunner/internal/errors"
	"github.com/conneroisu/tsxrunner/internal/logging"
	"github.com/conneroisu/tsxrunner/internal/metrics"
	"github.com/conneroisu/tsxrunner/internal/playground"
)

// loadConfig loads the effective configuration from every source.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.NewEnhancedError(
			"Failed to load configuration: "+err.Error(),
			err,
			errors.ConfigurationError(err.Error(), &errors.SuggestionContext{ConfigPath: configPathInUse()}),
		)
	}
	return cfg, nil
}

func configPathInUse() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return ".tsxrunner.yml"
}

// suggestionContext describes the pipeline for error suggestions.
func suggestionContext(cfg *config.Config) *errors.SuggestionContext {
	return &errors.SuggestionContext{
		ConfigPath:     configPathInUse(),
		AllowedModules: playground.Modules().Names(),
		FixtureProp:    cfg.Playground.FixtureProp,
	}
}

// newLogger builds the logger described by cfg. quiet raises the default
// level to warn for commands whose stdout is the product.
func newLogger(cfg *config.Config, out io.Writer, quiet bool) (logging.Logger, error) {
	levelName := cfg.Log.Level
	if quiet && !viper.IsSet("log.level") {
		levelName = "warn"
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: out,
	}), nil
}

// newRunner builds the pipeline from the playground section. m may be nil.
func newRunner(cfg *config.Config, logger logging.Logger, m *metrics.Metrics) *playground.Runner {
	return playground.NewRunner(playground.Options{
		Fixture:        cfg.Playground.Fixture(),
		Timeout:        cfg.Playground.Timeout,
		MaxSourceBytes: cfg.Playground.MaxSourceBytes,
		Logger:         logger,
		Metrics:        m,
	})
}

// loadSample returns the configured sample file or the bundled sample.
func loadSample(cfg *config.Config) (string, error) {
	if cfg.Playground.SampleFile == "" {
		return playground.Sample, nil
	}
	data, err := os.ReadFile(cfg.Playground.SampleFile)
	if err != nil {
		return "", fmt.Errorf("failed to read sample file: %w", err)
	}
	return string(data), nil
}
