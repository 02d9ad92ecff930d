package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var studioCmd = &cobra.Command{
	Use:   "studio",
	Short: "List or switch studios",
	Long: `List the studios of the active account. The active studio is marked with '*'.

Examples:
  clustta studio                  List studios
  clustta studio switch <name>    Make another studio active`,
	Args: cobra.NoArgs,
	Run:  runStudioList,
}

var studioSwitchCmd = &cobra.Command{
	Use:   "switch <name>",
	Short: "Switch the active studio",
	Long:  `Switch the active studio. The active project is cleared.`,
	Args:  cobra.ExactArgs(1),
	Run:   runStudioSwitch,
}

func init() {
	studioCmd.AddCommand(studioSwitchCmd)
}

func runStudioList(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	c := initSessionContext(ctx)
	out := cmd.OutOrStdout()

	studios, err := c.Session.ListStudios(ctx)
	if err != nil {
		exitError("%v", err)
	}
	if len(studios) == 0 {
		fmt.Fprintln(out, "No studios")
		return
	}

	active := c.Session.State().Studio.Name
	green := color.New(color.FgGreen)
	dim := color.New(color.Faint)
	for _, s := range studios {
		if s.Name == active {
			green.Fprintf(out, "* %s", s.Name)
		} else {
			fmt.Fprintf(out, "  %s", s.Name)
		}
		if s.URL != "" {
			dim.Fprintf(out, "  %s", s.URL)
		}
		fmt.Fprintln(out)
	}
}

func runStudioSwitch(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	c := initSessionContext(ctx)

	// Populate the studio list so the switched studio keeps its URL.
	if _, err := c.Session.ListStudios(ctx); err != nil {
		c.Logger.Debug("list studios failed", "error", err)
	}
	if err := c.Session.SwitchStudio(ctx, args[0]); err != nil {
		exitError("failed to switch studio: %v", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Switched to studio %s\n", args[0])
}
