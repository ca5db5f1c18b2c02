package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlags binds flags to viper configuration keys. Unknown flag names
// are a programming error.
func bindFlags(flags *pflag.FlagSet, bindings map[string]string) {
	for flagName, configKey := range bindings {
		flag := flags.Lookup(flagName)
		if flag == nil {
			panic(fmt.Sprintf("bindFlags: unknown flag %q", flagName))
		}
		if err := viper.BindPFlag(configKey, flag); err != nil {
			panic(fmt.Sprintf("bindFlags: %s: %v", flagName, err))
		}
	}
}

// bindOnRun binds cmd's flags when cmd is the one being executed. Several
// commands share configuration keys and viper keeps one flag per key.
func bindOnRun(cmd *cobra.Command, bindings map[string]string) {
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		bindFlags(cmd.Flags(), bindings)
	}
}

// addPlaygroundFlags adds the flags shared by every command that runs code
// and returns their bindings.
func addPlaygroundFlags(cmd *cobra.Command) map[string]string {
	cmd.Flags().String("value", "", `fixture value passed to the component (default "Test Button")`)
	cmd.Flags().Duration("timeout", 0, "run timeout (default 2s)")

	return map[string]string{
		"value":   "playground.fixture_value",
		"timeout": "playground.timeout",
	}
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidatePort accepts 0, which picks a free port, and 1-65535.
func ValidatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}

	if port < 0 || port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", port)
	}

	return nil
}

// ValidateFileExists rejects paths that do not exist. Empty is allowed for
// optional files.
func ValidateFileExists(filename string) error {
	if filename == "" {
		return nil
	}

	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filename)
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", filename)
	}

	return nil
}
