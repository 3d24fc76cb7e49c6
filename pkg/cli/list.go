package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/msm/pkg/cli/internal/output"
	"github.com/getmockd/msm/pkg/fixtures"
)

var listMethod string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List definition files under the API directory",
	Example: `  msm list
  msm list --method get --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		all, err := fixtures.List(cfg)
		if err != nil {
			return err
		}
		list := all[:0:0]
		for _, f := range all {
			if listMethod == "" || f.Method == listMethod {
				list = append(list, f)
			}
		}

		w := cmd.OutOrStdout()
		if jsonOutput {
			return output.JSON(w, list)
		}
		if len(list) == 0 {
			fmt.Fprintf(w, "No definitions found in %s\n", cfg.APIRoot())
			return nil
		}

		tw := output.Table(w)
		fmt.Fprintln(tw, "METHOD\tFORMAT\tFILE")
		for _, f := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Method, f.Format, f.Rel)
		}
		return tw.Flush()
	},
}

func init() {
	listCmd.Flags().StringVarP(&listMethod, "method", "m", "", "Only list definitions for this lower-case method")
}
