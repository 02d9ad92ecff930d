// Command clustta is a command-line client for the local Clustta Agent.
package main

import (
	"os"

	"github.com/clustta/clustta-blender/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
