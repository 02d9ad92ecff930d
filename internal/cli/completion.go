package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for clustta.

Asset IDs complete from the active project when the agent is running.

Bash:
  $ source <(clustta completion bash)

Zsh:
  $ clustta completion zsh > "${fpath[1]}/_clustta"

Fish:
  $ clustta completion fish > ~/.config/fish/completions/clustta.fish

PowerShell:
  PS> clustta completion powershell | Out-String | Invoke-Expression
`,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletionV2(out, true)
			case "zsh":
				return rootCmd.GenZshCompletion(out)
			case "fish":
				return rootCmd.GenFishCompletion(out, true)
			default:
				return rootCmd.GenPowerShellCompletionWithDesc(out)
			}
		},
	})
}

// completeAssetIDs offers the active project's asset IDs, described by name.
// Completion stays silent when the agent is unreachable.
func completeAssetIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	c := initContext()
	ctx := cmd.Context()
	project, err := c.Client.GetActiveProject(ctx)
	if err != nil || project == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	assets, err := c.Client.GetAssets(ctx, c.Query)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	out := make([]string, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.ID+"\t"+a.Name)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
