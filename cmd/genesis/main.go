// Command genesis is the CLI for the Genesis conversational task
// orchestrator.
//
// Usage:
//
//	genesis serve --config genesis.yaml
//	genesis tool-exec --driver tmp/genesis_translate_1/run_translate.json
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/pr0ta9/Genesis-sub000/pkg/config"
)

// CLI defines the command-line interface: the public serve command and
// the hidden tool-exec entrypoint every isolated child process re-execs
// into (see pkg/executor's runChild).
type CLI struct {
	Serve    ServeCmd    `cmd:"" help:"Start the Genesis HTTP server."`
	Validate ValidateCmd `cmd:"" help:"Validate a configuration file."`
	ToolExec ToolExecCmd `cmd:"" hidden:"" name:"tool-exec" help:"Internal: run one isolated tool step."`

	Config   string `short:"c" help:"Path to config file." type:"path" default:"genesis.yaml"`
	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info"`
}

func main() {
	_ = config.LoadEnvFiles()

	cli := CLI{}
	kctx := kong.Parse(&cli,
		kong.Name("genesis"),
		kong.Description("Genesis - conversational task orchestrator"),
		kong.UsageOnError(),
	)

	if err := kctx.Run(&cli); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// signalContext returns a context canceled on SIGINT/SIGTERM, so an
// in-flight graph run and its child processes are torn down cleanly on
// shutdown rather than left orphaned.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}
