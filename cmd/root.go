// Package cmd provides the command-line interface for tsxrunner with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --port, etc.) - highest priority
//	2. TSXRUNNER_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (TSXRUNNER_SERVER_PORT, etc.)
//	4. Configuration files (.tsxrunner.yml) - lowest priority
//
// Environment Variables:
//
//	TSXRUNNER_CONFIG_FILE: Path to custom configuration file
//	TSXRUNNER_SERVER_PORT: Override server port
//	TSXRUNNER_PLAYGROUND_TIMEOUT: Override the run timeout
//	And more following the TSXRUNNER_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tsxrunner",
	Short: "Compile, run and render TSX components in a sandbox",
	Long: `tsxrunner compiles a TSX component, evaluates it in a sandbox that only
resolves react and @fluentui/react-components, and renders its default
export with the fixture props {value: "Test Button"}.

Quick Start:
  tsxrunner serve                 Start the browser playground
  tsxrunner run Button.tsx        Render a component once and print the HTML
  tsxrunner watch Button.tsx      Re-render a component on every save
  tsxrunner config show           Show the effective configuration`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .tsxrunner.yml, can also use TSXRUNNER_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	bindFlags(rootCmd.PersistentFlags(), map[string]string{
		"log-level":  "log.level",
		"log-format": "log.format",
	})
}

// initConfig initializes the configuration system.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. TSXRUNNER_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .tsxrunner.yml in current directory
//
// Every key can also be overridden with a TSXRUNNER_ prefixed environment
// variable (e.g., TSXRUNNER_SERVER_PORT=8080).
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("TSXRUNNER_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".tsxrunner")
	}

	viper.SetEnvPrefix("TSXRUNNER")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing or unreadable file leaves defaults in place
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
