package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tsxrunner/internal/version"
)

var (
	versionFormat string
	versionShort  bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for tsxrunner including:

- Semantic version number
- Git commit hash
- Build timestamp
- Go version and target platform
- Versions of the embedded compiler, JavaScript runtime and sanitizer

Examples:
  tsxrunner version               # Show version
  tsxrunner version --detailed    # Show detailed version info
  tsxrunner version --format json # Output as JSON`,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
	versionCmd.Flags().Bool("detailed", false, "Show detailed version information")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	detailed, _ := cmd.Flags().GetBool("detailed")
	out := cmd.OutOrStdout()

	switch versionFormat {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(struct {
			*version.BuildInfo
			IsRelease bool `json:"is_release"`
		}{version.GetBuildInfo(), version.IsRelease()})
	case "text":
		switch {
		case versionShort:
			fmt.Fprintln(out, version.GetShortVersion())
		case detailed:
			fmt.Fprintln(out, version.GetDetailedVersion())
			if version.IsRelease() {
				fmt.Fprintln(out, "Build type: release")
			} else {
				fmt.Fprintln(out, "Build type: development")
			}
		default:
			info := version.GetBuildInfo()
			fmt.Fprintf(out, "tsxrunner %s", info.Version)
			if info.GitCommit != "unknown" && len(info.GitCommit) >= 7 {
				fmt.Fprintf(out, " (%s)", info.GitCommit[:7])
			}
			fmt.Fprintf(out, "\nGo: %s\nPlatform: %s\n", info.GoVersion, info.Platform)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", versionFormat)
	}
}
