package cli

import (
	"fmt"
	"io"

	"github.com/clustta/clustta-blender/internal/models"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var checkpointsCmd = &cobra.Command{
	Use:               "checkpoints <asset-id>",
	Short:             "Show the checkpoint history of an asset",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeAssetIDs,
	Run:               runCheckpoints,
}

func runCheckpoints(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	c := initSessionContext(ctx)
	s := c.Session
	project := c.requireProject()

	if err := s.EnsureAssetsLoaded(ctx, project); err != nil {
		exitError("failed to load assets: %v", err)
	}
	if err := s.SelectAssetByID(ctx, args[0]); err != nil {
		exitError("%v", err)
	}

	asset, _ := s.ActiveAsset()
	printCheckpoints(cmd.OutOrStdout(), asset, s.State().Checkpoints)
}

// printCheckpoints writes an asset's checkpoints, newest first as the agent returns them.
func printCheckpoints(out io.Writer, asset models.Asset, checkpoints []models.Checkpoint) {
	fmt.Fprintf(out, "%s ", asset.Name)
	color.New(color.Faint).Fprintf(out, "(%s)\n", asset.FilePath)

	if len(checkpoints) == 0 {
		fmt.Fprintln(out, "No checkpoints yet")
		return
	}

	yellow := color.New(color.FgYellow)
	for _, cp := range checkpoints {
		yellow.Fprintf(out, "%s ", cp.ShortID())
		fmt.Fprintf(out, "%-9s  %s\n", cp.CreatedAtDisplay, cp.Message)
	}
}
