package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/tsxrunner/internal/errors"
	"github.com/conneroisu/tsxrunner/internal/playground"
)

// inTempDir moves the test into an empty working directory.
func inTempDir(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
}

// execute runs the CLI with every flag back at its default.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
	return name
}

func TestRunCommand(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		stdin     string
		wantErr   string
		stdout    string
		stderr    string
		noStdout  bool
		setupFile string
	}{
		{
			name:      "renders the sample from a file",
			args:      []string{"run", "Sample.tsx"},
			setupFile: playground.Sample,
			stdout:    "Test Button",
		},
		{
			name:   "reads stdin",
			args:   []string{"run", "-"},
			stdin:  `export default ({ value }) => <b>{value}</b>;`,
			stdout: "<b>Test Button</b>",
		},
		{
			name:   "fixture value flag",
			args:   []string{"run", "--value", "Save"},
			stdin:  `export default ({ value }) => <b>{value}</b>;`,
			stdout: "<b>Save</b>",
		},
		{
			name:     "import error exits non-zero",
			args:     []string{"run"},
			stdin:    `import x from "unknown-package"; export default () => x;`,
			wantErr:  `Module "unknown-package" is not available`,
			noStdout: true,
			stderr:   "Available: react and @fluentui/react-components",
		},
		{
			name:     "export error exits non-zero",
			args:     []string{"run"},
			stdin:    `export default "not a component";`,
			wantErr:  "The code must export a default React component.",
			noStdout: true,
		},
		{
			name:   "console output goes to stderr",
			args:   []string{"run"},
			stdin:  `export default () => { console.log("hi", 1); return <i />; };`,
			stdout: "<i></i>",
			stderr: "[console.log] hi 1",
		},
		{
			name:    "missing file",
			args:    []string{"run", "missing.tsx"},
			wantErr: "failed to read missing.tsx",
		},
		{
			name:    "bad format",
			args:    []string{"run", "--format", "xml"},
			wantErr: "unsupported format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inTempDir(t)
			if tt.setupFile != "" {
				writeFile(t, "Sample.tsx", tt.setupFile)
			}

			stdout, stderr, err := execute(t, tt.stdin, tt.args...)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			if tt.stdout != "" {
				assert.Contains(t, stdout, tt.stdout)
			}
			if tt.noStdout {
				assert.Empty(t, stdout)
			}
			if tt.stderr != "" {
				assert.Contains(t, stderr, tt.stderr)
			}
		})
	}
}

func TestRunCommandJSON(t *testing.T) {
	inTempDir(t)

	stdout, _, err := execute(t, `export default () => { throw new Error("boom"); };`, "run", "--format", "json")
	require.Error(t, err)
	assert.True(t, errors.IsRuntimeError(err))

	var snap playground.Snapshot
	require.NoError(t, json.Unmarshal([]byte(stdout), &snap))
	assert.Equal(t, playground.StatusFailed, snap.Status)
	assert.Equal(t, errors.KindRuntime, snap.Error.Kind)
	assert.Contains(t, snap.Error.Message, "boom")
	assert.Equal(t, 1, snap.Runs)
}

func TestConfigShow(t *testing.T) {
	inTempDir(t)
	writeFile(t, ".tsxrunner.yml", "server:\n  port: 4000\nplayground:\n  fixture_value: Hello\n")

	stdout, _, err := execute(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "port: 4000")
	assert.Contains(t, stdout, "fixture_value: Hello")
	assert.Contains(t, stdout, "timeout: 2s")

	stdout, _, err = execute(t, "", "config", "show", "--format", "json")
	require.NoError(t, err)
	var cfg map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &cfg))
	assert.Contains(t, cfg, "Server")

	_, _, err = execute(t, "", "config", "show", "--format", "toml")
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		args    []string
		wantErr string
		stdout  string
	}{
		{
			name:    "valid",
			content: "server:\n  port: 4000\n",
			stdout:  "Configuration is valid!",
		},
		{
			name:    "errors",
			content: "log:\n  format: xml\n",
			wantErr: "failed with 1 errors",
			stdout:  "log.format",
		},
		{
			name:    "warnings pass",
			content: "server:\n  host: 0.0.0.0\n",
			stdout:  "valid (with warnings)",
		},
		{
			name:    "warnings fail in strict mode",
			content: "server:\n  host: 0.0.0.0\n",
			args:    []string{"--strict"},
			wantErr: "strict mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inTempDir(t)
			writeFile(t, "check.yml", tt.content)

			args := append([]string{"config", "validate", "--file", "check.yml"}, tt.args...)
			stdout, _, err := execute(t, "", args...)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			if tt.stdout != "" {
				assert.Contains(t, stdout, tt.stdout)
			}
		})
	}

	t.Run("no file", func(t *testing.T) {
		inTempDir(t)
		_, _, err := execute(t, "", "config", "validate")
		assert.ErrorContains(t, err, "no configuration file found")
	})
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "tsxrunner ")

	stdout, _, err = execute(t, "", "version", "--format", "json")
	require.NoError(t, err)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Contains(t, info, "go_version")
	assert.Contains(t, info, "is_release")

	_, _, err = execute(t, "", "version", "--format", "xml")
	assert.Error(t, err)
}

func TestServeFlagValidation(t *testing.T) {
	inTempDir(t)

	_, _, err := execute(t, "", "serve", "--port", "70000")
	assert.ErrorContains(t, err, "port must be between 0 and 65535")

	_, _, err = execute(t, "", "serve", "--watch", "missing.tsx")
	assert.ErrorContains(t, err, "file does not exist")
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, ValidatePort("0"))
	assert.NoError(t, ValidatePort("8080"))
	assert.Error(t, ValidatePort("-1"))
	assert.Error(t, ValidatePort("65536"))
	assert.Error(t, ValidatePort("http"))
}

func TestValidateFileExists(t *testing.T) {
	inTempDir(t)
	writeFile(t, "a.tsx", "")

	assert.NoError(t, ValidateFileExists(""))
	assert.NoError(t, ValidateFileExists("a.tsx"))
	assert.Error(t, ValidateFileExists("b.tsx"))
	assert.Error(t, ValidateFileExists("."))
}

func TestConfigLoadFailureSuggestsValidate(t *testing.T) {
	inTempDir(t)
	writeFile(t, ".tsxrunner.yml", "log:\n  format: xml\n")

	_, _, err := execute(t, `export default () => <i />;`, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to load configuration")
	assert.Contains(t, err.Error(), "tsxrunner config validate --file")

	var enhanced *errors.EnhancedError
	assert.ErrorAs(t, err, &enhanced)
}
