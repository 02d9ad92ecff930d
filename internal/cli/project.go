package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "List or switch projects",
	Long: `List the projects of the active studio. The active project is marked with '*'.

Examples:
  clustta project                 List projects
  clustta project switch <uri>    Make another project active`,
	Args: cobra.NoArgs,
	Run:  runProjectList,
}

var projectSwitchCmd = &cobra.Command{
	Use:   "switch <uri>",
	Short: "Switch the active project",
	Long:  `Switch the active project by uri. Loaded assets and checkpoints are discarded.`,
	Args:  cobra.ExactArgs(1),
	Run:   runProjectSwitch,
}

func init() {
	projectCmd.AddCommand(projectSwitchCmd)
}

func runProjectList(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	c := initSessionContext(ctx)
	out := cmd.OutOrStdout()

	projects, err := c.Session.ListProjects(ctx)
	if err != nil {
		exitError("%v", err)
	}
	if len(projects) == 0 {
		fmt.Fprintln(out, "No projects")
		return
	}

	active := c.Session.State().Project.URI
	green := color.New(color.FgGreen)
	dim := color.New(color.Faint)
	for _, p := range projects {
		if p.URI == active {
			green.Fprintf(out, "* %s", p.Name)
		} else {
			fmt.Fprintf(out, "  %s", p.Name)
		}
		dim.Fprintf(out, "  %s\n", p.URI)
	}
}

func runProjectSwitch(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	c := initSessionContext(ctx)

	// Without the list the switched project is named by its uri.
	if _, err := c.Session.ListProjects(ctx); err != nil {
		c.Logger.Debug("list projects failed", "error", err)
	}
	if err := c.Session.SwitchProject(ctx, args[0]); err != nil {
		exitError("failed to switch project: %v", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Switched to project %s\n", c.Session.State().Project.Name)
}
