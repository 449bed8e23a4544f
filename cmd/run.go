package cmd

import (
	"github.com/cmpt-474-edu-monitor/sdk/hooks"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:     "run",
	Aliases: []string{"r"},
	Short:   "Run the gateway node",
	Long: `
"run" starts the gateway with settings depending on the configuration file.
Namespaces of kind lua are served in process, kind http are forwarded.`,
	RunE: hooks.Run,
}

func init() {
	rootCmd.AddCommand(runCmd)
}
