// Command autoclear marks the uncleared splits of an account cleared so that
// its cleared balance equals a statement ending balance.
//
//	autoclear -account checking -target -869.30 [-dry-run]
//
// Exit status is 0 when splits were cleared (or would be, with -dry-run),
// 2 when nothing was cleared, 3 when the search was refused and 1 on error.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eshaffer321/ledger-autoclear/internal/cli"
	"github.com/eshaffer321/ledger-autoclear/internal/infrastructure/config"
)

func main() {
	flags, err := cli.ParseAutoClearFlags(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitError)
	}

	cfg := config.LoadOrEnvWithPath(flags.ConfigPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code, err := cli.RunAutoClear(ctx, cfg, flags, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	stop()
	os.Exit(code)
}
