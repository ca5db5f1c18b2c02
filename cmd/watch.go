package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tsxrunner/internal/playground"
)

var watchCmd = &cobra.Command{
	Use:     "watch <file.tsx>",
	Aliases: []string{"w"},
	Short:   "Re-render a component on every save",
	Long: `Run a component, then run it again every time the file is saved, and print
each outcome. Stop with Ctrl+C.

Examples:
  tsxrunner watch Button.tsx
  tsxrunner watch --value Save Button.tsx`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Duration("debounce", 0, "Delay before re-running after a change (default 150ms)")
	bindings := addPlaygroundFlags(watchCmd)
	bindings["debounce"] = "playground.debounce"
	bindOnRun(watchCmd, bindings)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := ValidateFileExists(args[0]); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	session := playground.NewSession(newRunner(cfg, logger, nil), "", logger)
	follower, err := playground.Follow(ctx, session, args[0], cfg.Playground.Debounce, logger, func(snap *playground.Snapshot) {
		fmt.Fprintf(out, "--- run %d at %s (%s)\n", snap.Runs, snap.RanAt.Format("15:04:05"), snap.Duration)
		printConsole(cmd.ErrOrStderr(), snap.Console)
		fmt.Fprintln(out, snap.Shown())
	})
	if err != nil {
		return err
	}
	defer follower.Stop()

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", follower.Path())
	<-ctx.Done()

	return nil
}
