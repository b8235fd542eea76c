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
	"github.com/a3tai/fds-extractor/internal/report"
)

var version = "dev" // This will be set by build flags

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run compares the images of every PDF with the reference pictograms and
// prints one {pdf, code, pictos} record per document
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(config.CommandPictograms, args)
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		fmt.Fprintf(stdout, "FDS Pictograms %s\n", version)
		return 0
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case err != nil:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	level, _ := cfg.SlogLevel()
	logger := app.NewLogger(stderr, level)

	svc, err := app.NewService(cfg, logger)
	if err != nil {
		logger.Error("failed to set up pictogram matching", "error", err)
		return 1
	}

	records, err := svc.ExtractFolder(ctx, cfg.InputDir, nil)
	if err != nil {
		logger.Error("extraction failed", "error", err)
		return 1
	}

	if err := report.WritePictogramJSON(stdout, records); err != nil {
		logger.Error("failed to write results", "error", err)
		return 1
	}
	return 0
}
