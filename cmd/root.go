package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/cmpt-474-edu-monitor/sdk/hooks"
	"github.com/cmpt-474-edu-monitor/sdk/internal/colors"
	"github.com/cmpt-474-edu-monitor/sdk/internal/core/corestate"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "node",
	Short: "EduMonitor node",
	Long:  "JSON-RPC gateway and service host for EduMonitor",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
	SilenceUsage: true,
}

func Execute() {
	log.SetOutput(os.Stdout)
	log.SetPrefix(colors.SetBrightBlack(fmt.Sprintf("(%s) ", corestate.StageNotReady)))
	log.SetFlags(log.Ldate | log.Ltime)
	hooks.Compositor.LoadCMDLine(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Printf("%s: %s", colors.PrintError(), err.Error())
		os.Exit(1)
	}
}
