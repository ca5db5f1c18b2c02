package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tsxrunner/internal/errors"
	"github.com/conneroisu/tsxrunner/internal/metrics"
	"github.com/conneroisu/tsxrunner/internal/playground"
	"github.com/conneroisu/tsxrunner/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the browser playground",
	Long: `Start the playground server. The page shows an editor holding the sample
component, a Run Code button and the rendered output or error.

With --watch the buffer follows a file on disk and re-runs on every save;
connected browsers update live.

Examples:
  tsxrunner serve                       # Serve on localhost:8080
  tsxrunner serve --port 3000 --open    # Serve on port 3000 and open a browser
  tsxrunner serve --watch Button.tsx    # Follow Button.tsx`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().Bool("open", false, "Open a browser once the server is up")
	serveCmd.Flags().Bool("no-open", false, "Don't open a browser even if configured")
	serveCmd.Flags().StringP("watch", "w", "", "Follow this file and re-run it on every save")
	bindings := addPlaygroundFlags(serveCmd)

	AddFlagValidation(serveCmd, "port", ValidatePort)
	AddFlagValidation(serveCmd, "watch", ValidateFileExists)

	bindings["port"] = "server.port"
	bindings["host"] = "server.host"
	bindings["open"] = "server.open"
	bindings["no-open"] = "server.no-open"
	bindings["watch"] = "playground.watch_file"
	bindOnRun(serveCmd, bindings)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, os.Stderr, false)
	if err != nil {
		return err
	}

	sample, err := loadSample(cfg)
	if err != nil {
		return err
	}

	m := metrics.New()
	session := playground.NewSession(newRunner(cfg, logger, m), sample, logger)
	srv := server.New(cfg, session, m, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Playground.WatchFile != "" {
		follower, err := playground.Follow(ctx, session, cfg.Playground.WatchFile, cfg.Playground.Debounce, logger, nil)
		if err != nil {
			return err
		}
		defer follower.Stop()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Starting tsxrunner playground at http://%s\n", cfg.Server.Addr())

	if err := srv.Start(ctx); err != nil {
		if suggestions := errors.ServerStartError(err, cfg.Server.Port, suggestionContext(cfg)); len(suggestions) > 0 {
			return errors.NewEnhancedError(
				fmt.Sprintf("Failed to start server on %s", cfg.Server.Addr()),
				err,
				suggestions,
			)
		}
		return fmt.Errorf("server error: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Server stopped")

	return nil
}
