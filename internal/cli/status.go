package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show agent and session status",
	Long: `Show whether the Clustta Agent is reachable and, when it is, the active
account, studio and project. Unlike other commands, status does not fail when
the agent is down.`,
	Args: cobra.NoArgs,
	Run:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	c := initContext()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Agent:   %s ", c.Client.BaseURL())
	ok, err := c.Client.HealthCheck(ctx)
	if !ok {
		color.New(color.FgRed).Fprintln(out, "(not running)")
		if err != nil {
			fmt.Fprintf(out, "\n%v\n", err)
		}
		return
	}
	color.New(color.FgGreen).Fprintln(out, "(running)")

	s := c.connect(ctx)
	printActive(out, s.State())
}
