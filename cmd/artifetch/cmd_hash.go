package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/ochairo/artifetch/internal/domain-adapters/gateways"
)

func runHash(ctx context.Context, args []string) int {
	fs := pflag.NewFlagSet("hash", pflag.ExitOnError)
	check := fs.String("check", "", "Expected MD5 digest; exit non-zero when it differs")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: artifetch hash <file> [options]

Print the MD5 digest of a file, the same digest the build server fingerprints.

Options:
`)
		fs.PrintDefaults()
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

	filePath := fs.Arg(0)
	checksums := gateways.NewChecksumVerifier()

	if *check != "" {
		if err := checksums.VerifyChecksum(ctx, filePath, *check); err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			return 1
		}
		fmt.Printf("✅ %s: OK\n", filePath)
		return 0
	}

	digest, err := checksums.CalculateChecksum(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("%s  %s\n", digest, filePath)
	return 0
}
