package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "List or switch accounts",
	Long: `List the accounts known to the Clustta Agent. The active account is
marked with '*'.

Examples:
  clustta account                 List accounts
  clustta account switch <id>     Make another account active`,
	Args: cobra.NoArgs,
	Run:  runAccountList,
}

var accountSwitchCmd = &cobra.Command{
	Use:   "switch <id>",
	Short: "Switch the active account",
	Long:  `Switch the active account. The active studio and project are re-read from the agent.`,
	Args:  cobra.ExactArgs(1),
	Run:   runAccountSwitch,
}

func init() {
	accountCmd.AddCommand(accountSwitchCmd)
}

func runAccountList(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	c := initSessionContext(ctx)
	out := cmd.OutOrStdout()

	accounts, err := c.Session.ListAccounts(ctx)
	if err != nil {
		exitError("%v", err)
	}
	if len(accounts) == 0 {
		fmt.Fprintln(out, "No accounts")
		return
	}

	active := c.Session.State().Account.ID
	green := color.New(color.FgGreen)
	dim := color.New(color.Faint)
	for _, a := range accounts {
		if a.ID == active {
			green.Fprintf(out, "* %s", a.Label())
		} else {
			fmt.Fprintf(out, "  %s", a.Label())
		}
		dim.Fprintf(out, "  %s\n", a.ID)
	}
}

func runAccountSwitch(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	c := initSessionContext(ctx)
	out := cmd.OutOrStdout()

	if err := c.Session.SwitchAccount(ctx, args[0]); err != nil {
		exitError("failed to switch account: %v", err)
	}

	fmt.Fprintf(out, "Switched to account %s\n", args[0])
	printActive(out, c.Session.State())
}
