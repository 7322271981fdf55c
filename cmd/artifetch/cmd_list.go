package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/ochairo/artifetch/internal/external-adapters/yaml"
)

func runList(ctx context.Context, args []string) int {
	fs := pflag.NewFlagSet("list", pflag.ExitOnError)
	var (
		manifestsDir = fs.String("manifests-dir", "manifests", "Path to manifests directory")
		verbose      = addVerboseFlag(fs)
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: artifetch list [options]

List all artifact manifests.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return 1
	}

	repo := yaml.NewManifestRepository(*manifestsDir, newLogger(*verbose))
	manifests, err := repo.ListManifests(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing manifests: %v\n", err)
		return 1
	}

	fmt.Printf("Available manifests (%d total):\n\n", len(manifests))
	for _, m := range manifests {
		fmt.Printf("  %-20s %d artifact(s)\n", m.Name, len(m.Artifacts))
		if m.Build != nil && m.Server != nil {
			fmt.Printf("  %-20s Build: %s #%d on %s\n", "", m.Build.Job, m.Build.Number, m.Server.BaseURL)
		}
		if m.OutputDir != "" {
			fmt.Printf("  %-20s Output: %s\n", "", m.OutputDir)
		}
		fmt.Println()
	}
	return 0
}
