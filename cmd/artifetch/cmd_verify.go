package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/ochairo/artifetch/internal/domain-adapters/gateways"
	"github.com/ochairo/artifetch/internal/domain/entities"
)

// Exit codes of the verify command
const (
	exitVerified      = 0
	exitMismatch      = 1
	exitIndeterminate = 2
)

func runVerify(ctx context.Context, args []string) int {
	fs := pflag.NewFlagSet("verify", pflag.ExitOnError)
	var server serverFlags
	var (
		gpgSig     = fs.String("gpg-sig", "", "Detached GPG signature file (.asc or .sig)")
		gpgKeyFile = fs.String("gpg-key-file", "", "GPG public key file for --gpg-sig")
		verbose    = addVerboseFlag(fs)
	)
	server.register(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: artifetch verify <file> --server <url> --job <job> --build <n> [options]

Check a local file against the fingerprint the build server recorded for it.
The file name must match the archived artifact name.

Exit status: 0 confirmed, 1 mismatch or bad signature, 2 fingerprint unavailable.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  artifetch verify dist/app.tar.gz --server https://ci.example.com --job app --build 42
  artifetch verify app.tar.gz --server https://ci.example.com --job app --build 42 \
    --gpg-sig app.tar.gz.asc --gpg-key-file release-keys.asc
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return 1
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: file path is required\n\n")
		fs.Usage()
		return 1
	}
	if server.url == "" {
		fmt.Fprintf(os.Stderr, "Error: --server is required\n")
		return 1
	}
	if (*gpgSig == "") != (*gpgKeyFile == "") {
		fmt.Fprintf(os.Stderr, "Error: --gpg-sig and --gpg-key-file must be used together\n")
		return 1
	}

	build, err := server.buildContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	filePath := fs.Arg(0)
	if !fileExists(filePath) {
		fmt.Fprintf(os.Stderr, "Error: file not found: %s\n", filePath)
		return 1
	}

	fmt.Printf("🔍 Verifying %s\n\n", filepath.Base(filePath))

	resolver := newResolver(gateways.NewDownloader(), newLogger(*verbose))
	artifact := entities.NewArtifact(filepath.Base(filePath), "", build)
	result := resolver.Verify(ctx, artifact, filePath)

	code := exitVerified
	switch result.Status {
	case entities.VerificationConfirmed:
		fmt.Printf("✅ Fingerprint %s confirmed for %s #%d\n", result.Digest, server.job, server.build)
	case entities.VerificationMismatch:
		fmt.Printf("❌ Fingerprint %s does not belong to %s #%d\n", result.Digest, server.job, server.build)
		code = exitMismatch
	default:
		fmt.Printf("⚠️  Fingerprint could not be verified: %v\n", result.Err)
		code = exitIndeterminate
	}

	if *gpgSig != "" {
		fmt.Printf("🔐 Verifying GPG signature...\n")
		if err := verifySignatureFile(filePath, *gpgSig, *gpgKeyFile); err != nil {
			fmt.Printf("❌ GPG signature verification FAILED: %v\n", err)
			return exitMismatch
		}
		fmt.Printf("✅ GPG signature verified\n")
	}

	return code
}

func verifySignatureFile(filePath, sigPath, keyPath string) error {
	verifier := gateways.NewGPGVerifier(nil)
	if err := verifier.ImportGPGKeyFromFile(keyPath); err != nil {
		return err
	}
	return verifier.VerifyGPGSignatureFromFile(filePath, sigPath)
}
