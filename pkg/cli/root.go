package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/msm/pkg/cli/internal/flags"
)

var (
	// Persistent flags available to all subcommands
	configFile  string
	jsonOutput  bool
	optionFlags flags.Options

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "msm",
	Short: "msm serves HTTP mocks from a directory of definition files",
	Long: `msm answers API requests from JSON, JSON5 and expr definition files laid out
by method and path, and can record a real upstream into that layout.

Options can be provided via a config file, MSM_* environment variables or flags.
By default, msm looks for msm.yaml, msm.yml or msm.json in the working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute runs the root command and exits non-zero on error.
// This is called by main.main().
func Execute() {
	os.Exit(Main())
}

// Main runs the root command with os.Args and returns the exit code.
func Main() int {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
	optionFlags.Register(rootCmd.PersistentFlags())

	rootCmd.AddCommand(serveCmd, composeCmd, listCmd, validateCmd, versionCmd)
}
