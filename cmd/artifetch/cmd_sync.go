package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/ochairo/artifetch/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/artifetch/internal/domain-orchestrators"
	"github.com/ochairo/artifetch/internal/domain/entities"
	"github.com/ochairo/artifetch/internal/domain/interfaces"
	"github.com/ochairo/artifetch/internal/external-adapters/yaml"
)

func runSync(ctx context.Context, args []string) int {
	fs := pflag.NewFlagSet("sync", pflag.ExitOnError)
	var (
		outputDir = fs.String("output-dir", "", "Override the manifest's output directory")
		keysFile  = fs.String("keys-file", "", "Override the manifest's GPG public keys file")
		verbose   = addVerboseFlag(fs)
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: artifetch sync <manifest.yml> [options]

Fetch every artifact listed in a manifest into its output directory. Local
copies confirmed by the build server are kept. Entries with a signature_url
are checked against the keys file when one is configured.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  artifetch sync manifests/nightly.yml
  artifetch sync manifests/nightly.yml --output-dir /srv/artifacts
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return 1
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: manifest path is required\n\n")
		fs.Usage()
		return 1
	}

	manifest, err := yaml.NewManifestParser().ParseFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		return 1
	}
	if *outputDir != "" {
		manifest.OutputDir = *outputDir
	}
	if *keysFile != "" {
		manifest.KeysFile = *keysFile
	}
	if manifest.OutputDir == "" {
		manifest.OutputDir = "."
	}

	if err := os.MkdirAll(manifest.OutputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		return 1
	}

	logger := newLogger(*verbose)
	downloader := gateways.NewDownloader()

	orchestrator, err := newSyncOrchestrator(manifest, downloader, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Printf("📦 Syncing %s (%d artifacts) into %s\n\n", manifest.Name, len(manifest.Artifacts), manifest.OutputDir)

	result, syncErr := orchestrator.Sync(ctx, manifest)
	for _, a := range result.Artifacts {
		printArtifactSyncResult(a)
	}
	fmt.Println()
	fmt.Println(result.GetSyncSummary())

	if syncErr != nil {
		fmt.Fprintf(os.Stderr, "\nErrors:\n%v\n", syncErr)
		return 1
	}
	return 0
}

func newSyncOrchestrator(manifest *entities.Manifest, downloader *gateways.Downloader, logger interfaces.Logger) (*orchestrators.SyncOrchestrator, error) {
	resolver := newResolver(downloader, logger)

	if manifest.KeysFile == "" {
		for _, a := range manifest.Artifacts {
			if a.SignatureURL != "" {
				logger.Warn("manifest lists signatures but no keys file, signatures will not be checked",
					interfaces.F("manifest", manifest.Name),
				)
				break
			}
		}
		return orchestrators.NewSyncOrchestrator(resolver, nil, logger), nil
	}

	transport := downloader.Plain()
	if manifest.Server != nil {
		transport = downloader.Authenticated(*manifest.Server)
	}
	signatures := gateways.NewGPGVerifier(transport)
	if err := signatures.ImportGPGKeyFromFile(manifest.KeysFile); err != nil {
		return nil, err
	}
	logger.Debug("imported signing keys",
		interfaces.F("file", manifest.KeysFile),
		interfaces.F("keys", signatures.GetKeyringSize()),
	)

	return orchestrators.NewSyncOrchestrator(resolver, signatures, logger), nil
}

func printArtifactSyncResult(a orchestrators.ArtifactSyncResult) {
	switch {
	case a.Error != nil:
		fmt.Printf("❌ %-30s %v\n", a.Name, a.Error)
		return
	case a.Downloaded:
		fmt.Printf("⬇️  %-30s downloaded (%s, %v)\n", a.Name, a.Verification.Status, a.Duration.Round(time.Millisecond))
	default:
		fmt.Printf("✅ %-30s up to date\n", a.Name)
	}
	if a.SignatureVerified {
		fmt.Printf("   %-30s 🔐 signature verified\n", "")
	}
}
