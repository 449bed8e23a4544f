package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cmpt-474-edu-monitor/sdk/hooks"
	"github.com/cmpt-474-edu-monitor/sdk/pkg/client"
	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call Namespace::method [json-args...]",
	Short: "Call a namespace method through a gateway",
	Long: `
"call" sends one request to a gateway. Every argument after the method is
parsed as JSON, falling back to a plain string. The result is printed as
JSON; with --session the returned session is printed to stderr.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := hooks.Compositor.CMDLine.Call

		namespace, method, ok := strings.Cut(args[0], "::")
		if !ok {
			return fmt.Errorf("method must look like Namespace::method, got %q", args[0])
		}
		params := make([]any, 0, len(args)-1)
		for _, a := range args[1:] {
			params = append(params, parseArg(a))
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(flags.Timeout)*time.Second)
		defer cancel()

		c := client.New(flags.URL, client.WithSession(flags.Session))
		result, err := c.Invoke(ctx, namespace, method, params...)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(result))
		if flags.Session != "" || c.Session() != "" {
			fmt.Fprintf(os.Stderr, "session: %s\n", c.Session())
		}
		return nil
	},
}

func parseArg(a string) any {
	var v any
	if err := json.Unmarshal([]byte(a), &v); err != nil {
		return a
	}
	return v
}

func init() {
	rootCmd.AddCommand(callCmd)
}
