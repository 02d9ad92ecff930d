package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/clustta/clustta-blender/internal/models"
	"github.com/clustta/clustta-blender/internal/session"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "List assets of the active project",
	Long: `List the assets of the active project, one per line with a file state
marker:

  ✓ normal   ↓ outdated   ✎ modified   ↻ rebuildable   ! missing

Filter values are the raw type and status names shown by the agent.`,
	Args: cobra.NoArgs,
	Run:  runAssets,
}

var (
	assetsType     string
	assetsStatus   string
	assetsRefresh  bool
	assetsAssignee string
)

func init() {
	assetsCmd.Flags().StringVar(&assetsType, "type", models.FilterAll, "Only show assets of this type")
	assetsCmd.Flags().StringVar(&assetsStatus, "status", models.FilterAll, "Only show assets with this status")
	assetsCmd.Flags().BoolVar(&assetsRefresh, "refresh", false, "Re-fetch the asset list from the agent")
	assetsCmd.Flags().StringVar(&assetsAssignee, "assignee", "", "Only show assets assigned to this user id")
}

func runAssets(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	c := initContext()
	c.Query.Assignee = assetsAssignee
	s := c.connect(ctx)
	project := c.requireProject()

	load := s.EnsureAssetsLoaded
	if assetsRefresh {
		load = s.RefreshAssets
	}
	if err := load(ctx, project); err != nil {
		exitError("failed to load assets: %v", err)
	}
	if err := s.SetFilters(assetsType, assetsStatus); err != nil {
		exitError("%v", err)
	}

	printAssets(cmd.OutOrStdout(), s.State(), s.VisibleAssetIndices())
}

// printAssets writes the visible assets as an aligned table.
func printAssets(out io.Writer, st session.State, visible []int) {
	if len(st.Assets) == 0 {
		fmt.Fprintln(out, "No assets")
		return
	}
	if len(visible) == 0 {
		fmt.Fprintf(out, "No assets match the filters (%d total)\n", len(st.Assets))
		return
	}

	nameWidth, typeWidth := len("NAME"), len("TYPE")
	for _, i := range visible {
		a := st.Assets[i]
		nameWidth = max(nameWidth, len(a.Name))
		typeWidth = max(typeWidth, len(a.AssetType))
	}

	dim := color.New(color.Faint)
	dim.Fprintf(out, "  %-*s  %-*s  %-8s  %s\n", nameWidth, "NAME", typeWidth, "TYPE", "STATUS", "ID")
	for _, i := range visible {
		a := st.Assets[i]
		stateColor(a.FileState).Fprint(out, a.FileState.Glyph())
		fmt.Fprintf(out, " %-*s  %-*s  %-8s  ", nameWidth, a.Name, typeWidth, a.AssetType, strings.ToUpper(a.Status))
		dim.Fprintln(out, a.ID)
	}
}

func stateColor(s models.FileState) *color.Color {
	switch s {
	case models.FileStateNormal:
		return color.New(color.FgGreen)
	case models.FileStateOutdated, models.FileStateRebuildable:
		return color.New(color.FgYellow)
	case models.FileStateModified:
		return color.New(color.FgCyan)
	case models.FileStateMissing:
		return color.New(color.FgRed)
	}
	return color.New(color.Faint)
}
