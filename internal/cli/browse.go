package cli

import (
	"github.com/clustta/clustta-blender/internal/tui"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse assets and checkpoints interactively",
	Long: `Open an interactive browser for the active project.

Keys:
  up/down, j/k   move           tab    switch between assets and checkpoints
  r              refresh        f / s  cycle type / status filter
  c              new checkpoint q      quit`,
	Args: cobra.NoArgs,
	Run:  runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	c := initSessionContext(ctx)
	project := c.requireProject()

	if err := tui.Run(ctx, c.Session, project); err != nil {
		exitError("%v", err)
	}
}
