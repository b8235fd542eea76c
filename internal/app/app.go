// Package app assembles the extraction pipeline from a loaded configuration.
// The command binaries and the desktop front-end share it.
package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/a3tai/fds-extractor/internal/config"
	"github.com/a3tai/fds-extractor/internal/hazard"
	"github.com/a3tai/fds-extractor/internal/pdf"
	"github.com/a3tai/fds-extractor/internal/pictogram"
	"github.com/a3tai/fds-extractor/internal/report"
)

// NewLogger returns a text logger writing to w. Every line carries the
// run_id of this process; it never reaches the output files.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("run_id", uuid.NewString())
}

// NewService builds the pipeline for cfg. The mapping table is only read in
// mapped mode and the pictogram stage is only enabled when a reference folder
// is configured.
func NewService(cfg *config.Config, logger *slog.Logger) (*pdf.Service, error) {
	mode, err := pdf.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	if cfg.Command == config.CommandPictograms {
		mode = pdf.ModeRaw
	}

	filter, err := hazard.ParseFilter(cfg.Filter)
	if err != nil {
		return nil, err
	}
	pages, err := pdf.ParsePages(cfg.Pages)
	if err != nil {
		return nil, err
	}

	opts := pdf.Options{
		Mode:        mode,
		Filter:      filter,
		Pages:       pages,
		Workers:     cfg.Workers,
		MaxFileSize: cfg.MaxFileSize,
		Product:     cfg.ProductLabels(),
	}

	if mode == pdf.ModeMapped {
		delimiter, err := cfg.Delimiter()
		if err != nil {
			return nil, err
		}
		mapping, err := hazard.LoadMapping(cfg.MappingFile, delimiter, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded mapping table", "path", cfg.MappingFile,
			"entries", mapping.Len(), "skipped", mapping.Skipped, "filter", filter)
		opts.Mapping = mapping
	}

	if cfg.PictogramDir != "" {
		visual, err := newVisualOptions(cfg, logger)
		if err != nil {
			return nil, err
		}
		opts.Visual = visual
	}

	return pdf.NewService(opts, logger)
}

func newVisualOptions(cfg *config.Config, logger *slog.Logger) (*pdf.VisualOptions, error) {
	refs, err := pictogram.LoadFolder(cfg.PictogramDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference pictograms: %w", err)
	}
	if len(refs) == 0 {
		logger.Warn("no reference pictograms found", "path", cfg.PictogramDir)
	}

	matcher, err := pictogram.NewMatcher(cfg.Strategy, cfg.Threshold)
	if err != nil {
		return nil, err
	}
	matcher = matcher.WithLogger(logger)
	logger.Info("pictogram matching enabled", "references", len(refs),
		"strategy", matcher.Strategy().Name(), "threshold", matcher.Threshold())

	visual := &pdf.VisualOptions{
		References:  refs,
		Matcher:     matcher,
		ExtractDir:  cfg.ExtractDir,
		ImageFilter: cfg.ImageFilter(),
		RenderPages: cfg.RenderPages,
	}
	if cfg.RenderPages {
		visual.Renderer = pdf.NewRenderer(pdf.ExecRunner{Logger: logger}, cfg.Pdftoppm, cfg.DPI)
	}
	return visual, nil
}

// WriteResults emits records in the configured format. JSON goes to stdout;
// csv and xlsx are written into cfg.OutputDir and their paths returned.
func WriteResults(cfg *config.Config, stdout io.Writer, records []pdf.DocumentRecord) ([]string, error) {
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	withPictograms := cfg.PictogramDir != ""
	switch format {
	case report.FormatCSV:
		return report.WriteCSVFiles(cfg.OutputDir, hazard.Codes(), records, withPictograms)
	case report.FormatXLSX:
		path, err := report.WriteXLSXFile(cfg.OutputDir, hazard.Codes(), records)
		if err != nil {
			return nil, err
		}
		written := []string{path}
		if withPictograms {
			path, err := report.WritePictogramsFile(cfg.OutputDir, records)
			if err != nil {
				return written, err
			}
			written = append(written, path)
		}
		return written, nil
	default:
		return nil, report.WriteJSON(stdout, records)
	}
}
