package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tsxrunner/internal/errors"
	"github.com/conneroisu/tsxrunner/internal/playground"
	"github.com/conneroisu/tsxrunner/internal/sandbox"
)

var runFormat string

var runCmd = &cobra.Command{
	Use:     "run [file.tsx|-]",
	Aliases: []string{"r"},
	Short:   "Render a component once and print the HTML",
	Long: `Compile, evaluate and render a component once. The rendered HTML is
written to stdout; console output goes to stderr. A failed run prints
"Error: <message>" and exits non-zero.

Without a file, or with "-", the source is read from stdin.

Examples:
  tsxrunner run Button.tsx                 # Print the rendered HTML
  tsxrunner run --value Save Button.tsx    # Render with {value: "Save"}
  cat Button.tsx | tsxrunner run -         # Read the source from stdin
  tsxrunner run --format json Button.tsx   # Print the full outcome as JSON`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFormat, "format", "f", "html", "Output format (html, json)")
	bindOnRun(runCmd, addPlaygroundFlags(runCmd))
}

func runRun(cmd *cobra.Command, args []string) error {
	if runFormat != "html" && runFormat != "json" {
		return fmt.Errorf("unsupported format: %s (supported: html, json)", runFormat)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}

	source, err := readSource(cmd, args)
	if err != nil {
		return err
	}

	session := playground.NewSession(newRunner(cfg, logger, nil), source, logger)
	snap := session.Run(cmd.Context())

	printConsole(cmd.ErrOrStderr(), snap.Console)

	if runFormat == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(snap); err != nil {
			return err
		}
	} else if snap.Status == playground.StatusRendered {
		fmt.Fprintln(cmd.OutOrStdout(), snap.HTML)
	}

	if snap.Status == playground.StatusFailed {
		if suggestions := errors.Suggest(snap.Error, suggestionContext(cfg)); len(suggestions) > 0 {
			fmt.Fprint(cmd.ErrOrStderr(), errors.FormatSuggestions(snap.Error.Kind.Label(), suggestions))
		}
		return snap.Error
	}
	return nil
}

func readSource(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}

func printConsole(w io.Writer, entries []sandbox.LogEntry) {
	for _, entry := range entries {
		fmt.Fprintf(w, "[console.%s] %s\n", entry.Level, entry.Message)
	}
}
