// Package main provides the artifetch CLI for downloading and verifying build artifacts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	command := os.Args[1]

	// Dispatch to subcommand
	var code int
	switch command {
	case "save":
		code = runSave(ctx, os.Args[2:])
	case "sync":
		code = runSync(ctx, os.Args[2:])
	case "list":
		code = runList(ctx, os.Args[2:])
	case "verify":
		code = runVerify(ctx, os.Args[2:])
	case "hash":
		code = runHash(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		code = 1
	}

	stop()
	os.Exit(code)
}

func printUsage() {
	fmt.Println(`artifetch - Download build artifacts and keep verified local copies

Usage:
  artifetch <command> [options]

Commands:
  save      Download one artifact, skipping it when the local copy is verified
  sync      Fetch every artifact listed in a manifest
  list      List available manifests
  verify    Check a local file against a build fingerprint
  hash      Print the MD5 digest of a file

Use "artifetch <command> --help" for more information about a command.`)
}
