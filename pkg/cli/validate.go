package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/msm/pkg/cli/internal/output"
	"github.com/getmockd/msm/pkg/fixtures"
)

// errInvalidFixtures is returned when validate finds problems.
var errInvalidFixtures = errors.New("invalid definition files")

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every definition file under the API directory",
	Long: `Check every definition file under the API directory.

JSON and JSON5 files must be objects with a body key, an optional integer
code (100-599) and optional headers whose values are strings or null.
.expr files must compile to a map.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		report, err := fixtures.Validate(cfg)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if jsonOutput {
			if err := output.JSON(w, report); err != nil {
				return err
			}
		} else {
			for _, p := range report.Problems {
				fmt.Fprintln(w, p.String())
			}
			fmt.Fprintf(w, "%d files checked, %d problems\n", report.Checked, len(report.Problems))
		}

		if !report.OK() {
			return fmt.Errorf("%w: %d problems", errInvalidFixtures, len(report.Problems))
		}
		return nil
	},
}
