package gui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/a3tai/fds-extractor/internal/app"
	"github.com/a3tai/fds-extractor/internal/config"
	"github.com/a3tai/fds-extractor/internal/pdf"
	"github.com/a3tai/fds-extractor/internal/report"
)

// MappingFile is the mapping table looked up next to the program
const MappingFile = "clp_codes.csv"

// MappingDirs returns the folders searched for MappingFile: the executable's
// folder, then the working directory
func MappingDirs() []string {
	var dirs []string
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	return dirs
}

// FindMapping returns the first MappingFile found in dirs
func FindMapping(dirs []string) (string, bool) {
	for _, dir := range dirs {
		path := filepath.Join(dir, MappingFile)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}

// Runner extracts a folder and writes the CSV files into it
type Runner struct {
	MappingDirs []string
	Logger      *slog.Logger
}

// Run processes every PDF below folder and returns the written files. Mapped
// mode is used when a mapping table is found, raw mode otherwise. progress may
// be nil.
func (r Runner) Run(ctx context.Context, folder string, progress chan<- pdf.Progress) ([]string, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg := config.DefaultConfig(config.CommandExtract)
	cfg.InputDir = folder
	cfg.OutputDir = folder
	cfg.Format = string(report.FormatCSV)

	if mapping, ok := FindMapping(r.MappingDirs); ok {
		cfg.MappingFile = mapping
		logger.Info("using mapping table", "path", mapping)
	} else {
		cfg.Mode = string(pdf.ModeRaw)
		logger.Warn("mapping table not found, reporting raw hazard codes", "file", MappingFile, "searched", r.MappingDirs)
	}

	svc, err := app.NewService(cfg, logger)
	if err != nil {
		return nil, err
	}
	records, err := svc.ExtractFolder(ctx, folder, progress)
	if err != nil {
		return nil, err
	}

	written, err := app.WriteResults(cfg, nil, records)
	if err != nil {
		return nil, fmt.Errorf("failed to write results: %w", err)
	}
	logger.Info("extraction finished", "documents", len(records), "files", written)
	return written, nil
}
