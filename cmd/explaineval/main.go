// Command explaineval computes the cumulative explainability curve of ranked
// predictions.
//
// Usage:
//
//	explaineval [flags] <predictions.tsv> <annotations.txt> <max_at>
//	explaineval history [id] [--limit N]
//	explaineval version
//
// The predictions table has one row per entity, key<TAB>item_0<TAB>item_1...
// in rank order. The annotation table has one row per item, item:yes or
// item:no. For each depth 1..max_at the command prints the fraction of
// entities, among those with enough predictions, whose top-depth items
// contain an item annotated "yes".
//
// Flags:
//
//	--config   YAML configuration file
//	--format   Output format: vector, summary, compact, json (default: vector)
//	--save     Also save the full result as JSON
//	--store    Archive the run in this badger directory
//	--verbose  Debug logging on stderr
//
// Exit status is 0 on success, 2 on a usage error and 1 on any other error.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	root := a.rootCommand()
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	cmd, err := root.ExecuteContextC(ctx)
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if err == nil {
		return exitOK
	}

	if errors.Is(err, errUsage) {
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		fmt.Fprint(stderr, cmd.UsageString())
		return exitUsage
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitError
}
