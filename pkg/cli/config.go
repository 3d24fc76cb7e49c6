package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/msm/pkg/config"
)

// loadConfig resolves the options for cmd: defaults < config file <
// environment < flags.
func loadConfig(cmd *cobra.Command) (*config.Parsed, error) {
	var cfg config.Config

	path := configFile
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = config.FindFile(wd)
		}
	}
	if path != "" {
		fileCfg, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = config.Merge(cfg, fileCfg)
	}

	if err := config.ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := optionFlags.Apply(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	parsed, err := config.Parse(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return parsed, nil
}
