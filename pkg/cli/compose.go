package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/msm/pkg/cli/internal/output"
	"github.com/getmockd/msm/pkg/definition"
	"github.com/getmockd/msm/pkg/definition/script"
	"github.com/getmockd/msm/pkg/modpath"
)

// ComposeOutput is the JSON form of the compose command.
type ComposeOutput struct {
	Method     string   `json:"method"`
	URL        string   `json:"url"`
	Path       string   `json:"path"`
	Candidates []string `json:"candidates"`
	NoQuery    string   `json:"noQuery,omitempty"`
}

var composeCmd = &cobra.Command{
	Use:   "compose METHOD URL",
	Short: "Print the definition path a request is looked up at",
	Example: `  msm compose GET '/api/user/1?b=2&a=1'
  msm compose post /api/items --json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		method, rawURL := args[0], args[1]
		path, err := modpath.ComposeURL(method, rawURL, cfg)
		if err != nil {
			return err
		}

		out := ComposeOutput{
			Method:     method,
			URL:        rawURL,
			Path:       path,
			Candidates: append(definition.Candidates(path), path+script.Ext),
		}
		if cfg.FallbackToNoQuery {
			noQuery, err := modpath.ComposeURL(method, rawURL, cfg.WithoutQuery())
			if err != nil {
				return err
			}
			if noQuery != path {
				out.NoQuery = noQuery
			}
		}

		w := cmd.OutOrStdout()
		if jsonOutput {
			return output.JSON(w, out)
		}

		fmt.Fprintln(w, out.Path)
		for _, c := range out.Candidates {
			fmt.Fprintf(w, "  %s\n", c)
		}
		if out.NoQuery != "" {
			fmt.Fprintf(w, "fallback: %s\n", out.NoQuery)
		}
		return nil
	},
}
