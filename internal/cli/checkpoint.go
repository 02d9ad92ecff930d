package cli

import (
	"fmt"
	"strings"

	"github.com/clustta/clustta-blender/internal/session"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint -m <message> <asset-id>",
	Short: "Create a checkpoint of an asset",
	Long: `Record the current state of an asset's file as a new checkpoint.

The file defaults to the asset's path inside the project working directory;
use --file to checkpoint a file saved elsewhere.

Examples:
  clustta checkpoint -m "blockout done" 3f9c1a
  clustta checkpoint -m "lighting pass" --file /tmp/shot.blend 3f9c1a`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeAssetIDs,
	Run:               runCheckpoint,
}

var (
	checkpointMessage string
	checkpointFile    string
)

func init() {
	checkpointCmd.Flags().StringVarP(&checkpointMessage, "message", "m", "", "Checkpoint message")
	checkpointCmd.Flags().StringVar(&checkpointFile, "file", "", "File to checkpoint instead of the asset's working copy")
	_ = checkpointCmd.MarkFlagRequired("message")
}

func runCheckpoint(cmd *cobra.Command, args []string) {
	if strings.TrimSpace(checkpointMessage) == "" {
		exitError("%v", session.ErrEmptyMessage)
	}

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
	if err := s.CreateCheckpoint(ctx, checkpointMessage, checkpointFile); err != nil {
		exitError("%v", err)
	}

	out := cmd.OutOrStdout()
	asset, _ := s.ActiveAsset()
	color.New(color.FgGreen).Fprint(out, "Checkpoint created")
	fmt.Fprintf(out, " for %s\n", asset.Name)
	if cps := s.State().Checkpoints; len(cps) > 0 {
		fmt.Fprintf(out, "[%s] %s\n", cps[0].ShortID(), cps[0].Message)
	}
}
