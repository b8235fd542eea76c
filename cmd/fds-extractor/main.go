package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/a3tai/fds-extractor/internal/app"
	"github.com/a3tai/fds-extractor/internal/config"
	"github.com/a3tai/fds-extractor/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one extraction and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(config.CommandExtract, args)
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		printVersion(stdout)
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
	if cfg.IsDebug() {
		logger.Debug("starting with configuration", "config", cfg.String())
	}

	svc, err := app.NewService(cfg, logger)
	if err != nil {
		logger.Error("failed to set up extraction", "error", err)
		return 1
	}

	progress := make(chan pdf.Progress, 16)
	go logProgress(logger, progress)

	records, err := svc.ExtractFolder(ctx, cfg.InputDir, progress)
	close(progress)
	if err != nil {
		logger.Error("extraction failed", "error", err)
		return 1
	}

	written, err := app.WriteResults(cfg, stdout, records)
	if err != nil {
		logger.Error("failed to write results", "error", err)
		return 1
	}
	for _, path := range written {
		logger.Info("wrote output", "path", path)
	}

	failed := 0
	for _, r := range records {
		if r.Error != "" {
			failed++
		}
	}
	logger.Info("done", "documents", len(records), "failed", failed)
	return 0
}

func logProgress(logger *slog.Logger, progress <-chan pdf.Progress) {
	for p := range progress {
		logger.Debug("processed document", "done", p.Done, "total", p.Total, "path", p.Path)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "FDS Extractor\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
