// Package cli implements the msm command-line interface.
//
// Every command resolves its options the same way: built-in defaults, then
// the config file (--config, or msm.yaml / msm.yml / msm.json in the working
// directory), then MSM_* environment variables, then flags.
package cli
