package cli

import (
	"fmt"
	"time"

	"github.com/clustta/clustta-blender/internal/launcher"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Start the Clustta Agent if it is not running",
	Long: `Start the Clustta Agent in the background and wait until it answers.

The binary is looked up in order: --path, the agent_path config value, an
agent/ directory next to this executable, the per-OS install location, then
$PATH. With --save the binary is written to the config file as agent_path.`,
	Args: cobra.NoArgs,
	Run:  runLaunch,
}

var (
	launchPath    string
	launchTimeout time.Duration
	launchSave    bool
)

func init() {
	launchCmd.Flags().StringVar(&launchPath, "path", "", "Agent binary to start")
	launchCmd.Flags().DurationVar(&launchTimeout, "wait", 15*time.Second, "How long to wait for the agent to answer")
	launchCmd.Flags().BoolVar(&launchSave, "save", false, "Remember the agent binary as agent_path in the config file")
}

func runLaunch(cmd *cobra.Command, args []string) {
	c := initContext()
	out := cmd.OutOrStdout()

	poll := launcher.DefaultPollConfig()
	poll.Timeout = launchTimeout
	l := launcher.New(c.Client, launcher.WithLogger(c.Logger), launcher.WithPollConfig(poll))

	explicit := launchPath
	if explicit == "" {
		explicit = c.Config.AgentPath
	}

	res, err := l.Launch(cmd.Context(), explicit)
	if err != nil {
		exitError("%v", err)
	}
	if res.AlreadyRunning {
		fmt.Fprintf(out, "Clustta Agent is already running at %s\n", c.Client.BaseURL())
	} else {
		color.New(color.FgGreen).Fprintf(out, "Started Clustta Agent ")
		fmt.Fprintf(out, "from %s\n", res.Path)
	}

	if !launchSave {
		return
	}
	// An already running agent tells us nothing about its binary.
	saved := res.Path
	if saved == "" {
		saved = launchPath
	}
	if saved == "" {
		exitError("nothing to save: pass --path to name the agent binary")
	}
	c.Config.AgentPath = saved
	if err := c.Config.Save(); err != nil {
		exitError("%v", err)
	}
	fmt.Fprintf(out, "Saved agent_path to %s\n", c.Config.Path())
}
