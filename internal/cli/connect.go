package cli

import (
	"fmt"
	"io"

	"github.com/clustta/clustta-blender/internal/session"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect to the Clustta Agent",
	Long: `Check that the Clustta Agent is running and show the active account,
studio and project.`,
	Args: cobra.NoArgs,
	Run:  runConnect,
}

func runConnect(cmd *cobra.Command, args []string) {
	c := initSessionContext(cmd.Context())
	out := cmd.OutOrStdout()

	color.New(color.FgGreen).Fprintf(out, "Connected to Clustta Agent at %s\n", c.Client.BaseURL())
	printActive(out, c.Session.State())
}

// printActive shows the active account, studio and project.
func printActive(out io.Writer, st session.State) {
	dim := color.New(color.Faint)

	fmt.Fprint(out, "Account: ")
	if st.Account.ID != "" {
		fmt.Fprintln(out, st.Account.Label())
	} else {
		dim.Fprintln(out, "(none)")
	}

	fmt.Fprint(out, "Studio:  ")
	if st.Studio.Name != "" {
		fmt.Fprintln(out, st.Studio.Name)
	} else {
		dim.Fprintln(out, "(none)")
	}

	fmt.Fprint(out, "Project: ")
	if st.Project.URI != "" {
		fmt.Fprintf(out, "%s ", st.Project.Name)
		dim.Fprintf(out, "(%s)\n", st.Project.URI)
	} else {
		dim.Fprintln(out, "(none)")
	}
}
