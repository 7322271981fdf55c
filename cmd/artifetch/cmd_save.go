package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"

	"github.com/spf13/pflag"

	"github.com/ochairo/artifetch/internal/domain-adapters/gateways"
	"github.com/ochairo/artifetch/internal/domain/entities"
)

func runSave(ctx context.Context, args []string) int {
	fs := pflag.NewFlagSet("save", pflag.ExitOnError)
	var server serverFlags
	var (
		name    = fs.String("name", "", "Artifact file name (default: last segment of the URL)")
		output  = fs.StringP("output", "o", "", "Destination file path (default: ./<name>)")
		dir     = fs.StringP("dir", "d", "", "Existing directory to save into as <dir>/<name>")
		verbose = addVerboseFlag(fs)
	)
	server.register(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: artifetch save <url> [options]

Download an artifact. When --server, --job and --build are given and the
destination already exists, the local copy is checked against the build's
fingerprint first and kept if it matches.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Plain download
  artifetch save https://example.com/tool.tar.gz

  # Build artifact, skipped when the local copy is verified
  artifetch save https://ci.example.com/job/app/42/artifact/dist/app.tar.gz \
    --server https://ci.example.com --job app --build 42 --dir dist
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return 1
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: artifact URL is required\n\n")
		fs.Usage()
		return 1
	}
	if *output != "" && *dir != "" {
		fmt.Fprintf(os.Stderr, "Error: --output and --dir are mutually exclusive\n")
		return 1
	}

	rawURL := fs.Arg(0)
	artifactName := *name
	if artifactName == "" {
		var err error
		if artifactName, err = nameFromURL(rawURL); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	build, err := server.buildContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger := newLogger(*verbose)
	resolver := newResolver(gateways.NewDownloader(), logger)
	artifact := entities.NewArtifact(artifactName, rawURL, build)

	var result *entities.SaveResult
	if *dir != "" {
		result, err = resolver.ResolveToDir(ctx, artifact, *dir)
	} else {
		dest := *output
		if dest == "" {
			dest = artifactName
		}
		result, err = resolver.Resolve(ctx, artifact, dest)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	printSaveResult(result)
	return 0
}

func printSaveResult(result *entities.SaveResult) {
	if result.Downloaded {
		fmt.Printf("⬇️  Downloaded %s\n", result.Path)
	} else {
		fmt.Printf("✅ %s is up to date\n", result.Path)
	}

	switch result.Verification.Status {
	case entities.VerificationConfirmed:
		fmt.Printf("   Fingerprint: %s (confirmed)\n", result.Verification.Digest)
	case entities.VerificationMismatch:
		fmt.Printf("   Fingerprint: %s (does not match the build)\n", result.Verification.Digest)
	default:
		if result.Verification.Err != nil {
			fmt.Printf("   Fingerprint: not verified (%v)\n", result.Verification.Err)
		} else {
			fmt.Printf("   Fingerprint: not verified\n")
		}
	}
}

// nameFromURL returns the last non-empty path segment of rawURL
func nameFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." || base == "" {
		return "", fmt.Errorf("cannot derive a file name from %q, use --name", rawURL)
	}
	return base, nil
}
