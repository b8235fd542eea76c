package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/a3tai/fds-extractor/internal/app"
	"github.com/a3tai/fds-extractor/internal/config"
	"github.com/a3tai/fds-extractor/internal/mcp"
)

var version = "dev" // This will be set by build flags

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run serves the MCP tools on stdin/stdout. Logs go to stderr so they never
// interleave with the protocol.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load(config.CommandMCP, args)
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		fmt.Fprintf(stdout, "FDS MCP %s\n", version)
		return 0
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case err != nil:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if version != "dev" {
		cfg.Version = version
	}

	level, _ := cfg.SlogLevel()
	logger := app.NewLogger(stderr, level)

	server, err := mcp.NewServer(cfg, logger)
	if err != nil {
		logger.Error("failed to create MCP server", "error", err)
		return 1
	}

	if err := server.Serve(ctx, stdin, stdout); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", "error", err)
		return 1
	}
	logger.Info("server stopped")
	return 0
}
