package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/tsxrunner/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect tsxrunner configuration",
	Long: `Inspect tsxrunner configuration files and settings.

Examples:
  tsxrunner config show                  # Show the effective configuration
  tsxrunner config show --format json    # Show it as JSON
  tsxrunner config validate              # Validate .tsxrunner.yml
  tsxrunner config validate --file ci.yml --strict`,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a tsxrunner configuration file for correctness and best practices.

This command checks for:
- Valid port ranges and hostnames
- Fixture, timeout and source limit settings
- Path traversal in sample and watch files
- Settings that expose the playground beyond this machine`,
	RunE: runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the current configuration including all resolved values.

This shows the final configuration after:
- Loading from configuration file
- Applying environment variable overrides
- Setting default values
- Processing command-line flags`,
	RunE: runConfigShow,
}

var (
	configFile   string
	configFormat string
	configStrict bool
)

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)

	configValidateCmd.Flags().
		StringVarP(&configFile, "file", "f", "", "Configuration file to validate (default: .tsxrunner.yml)")
	configValidateCmd.Flags().BoolVar(&configStrict, "strict", false, "Treat warnings as errors")

	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "Output format (yaml, json)")
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	targetFile := configFile
	if targetFile == "" {
		if _, err := os.Stat(".tsxrunner.yml"); err != nil {
			return errors.New("no configuration file found. Use --file to specify a config file")
		}
		targetFile = ".tsxrunner.yml"
	}

	if _, err := os.Stat(targetFile); os.IsNotExist(err) {
		return fmt.Errorf("configuration file %s does not exist", targetFile)
	}

	fmt.Fprintf(out, "🔍 Validating configuration file: %s\n", targetFile)
	fmt.Fprintln(out, "=====================================")

	v := viper.New()
	v.SetConfigFile(targetFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read configuration file: %w", err)
	}

	cfg := config.Default()
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	validation := config.ValidateConfigWithDetails(cfg)

	if validation.Valid && !validation.HasWarnings() {
		fmt.Fprintln(out, "✅ Configuration is valid!")
		fmt.Fprintln(out, "No errors or warnings found.")
		return nil
	}

	fmt.Fprint(out, validation.String())

	if validation.HasErrors() {
		return fmt.Errorf("configuration validation failed with %d errors", len(validation.Errors))
	}
	if configStrict {
		return fmt.Errorf(
			"configuration validation failed in strict mode with %d warnings",
			len(validation.Warnings),
		)
	}

	fmt.Fprintln(out, "✅ Configuration is valid (with warnings)")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch configFormat {
	case "yaml", "yml":
		fmt.Fprintln(out, "# Resolved from all sources (file, env vars, defaults)")
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(cfg)
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)
	default:
		return fmt.Errorf("unsupported format: %s (supported: yaml, json)", configFormat)
	}
}
