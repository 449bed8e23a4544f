package cmd

import (
	"github.com/cmpt-474-edu-monitor/sdk/hooks"
	"github.com/spf13/cobra"
)

var serviceCmd = &cobra.Command{
	Use:     "service",
	Aliases: []string{"svc"},
	Short:   "Host Lua interfaces for remote gateways",
	Long: `
"service" serves the scripts of service.scripts on service.route, to be
used by gateways that list this node as an http namespace.`,
	RunE: hooks.Service,
}

func init() {
	rootCmd.AddCommand(serviceCmd)
}
