// Command clustta-package builds the installable Blender addon archive.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/clustta/clustta-blender/internal/packaging"
)

func main() {
	source := flag.String("source", envOrDefault("CLUSTTA_ADDON_DIR", "."), "Addon source directory")
	dist := flag.String("dist", "", "Output directory (default <source>/dist)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	manifest, err := packaging.ReadManifest(*source)
	if err != nil {
		logger.Error("failed to read manifest", "error", err, "source", *source)
		os.Exit(1)
	}
	fmt.Printf("Packaging Clustta Blender Addon v%s...\n", manifest.Version)

	opts := packaging.DefaultOptions(*source)
	opts.DistDir = *dist
	res, err := packaging.Package(opts)
	if err != nil {
		logger.Error("packaging failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("  Package: %s (%.1f MB, %d files)\n", res.Path, float64(res.Size)/(1<<20), len(res.Entries))
	fmt.Println("Done.")
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
