package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/a3tai/fds-extractor/internal/hazard"
	"github.com/a3tai/fds-extractor/internal/pictogram"
	"golang.org/x/sync/errgroup"
)

// Options configures a pipeline run
type Options struct {
	Mode    Mode
	Mapping *hazard.Mapping
	Filter  hazard.Filter
	Pages   PageSelection
	Workers int

	MaxFileSize int64

	// Product reads product identifiers from the first page when non-nil
	Product *ProductLabels

	// Visual enables the pictogram stage when non-nil
	Visual *VisualOptions
}

// VisualOptions configures pictogram matching
type VisualOptions struct {
	References []*pictogram.Image
	Matcher    *pictogram.Matcher

	// ExtractDir keeps extracted images; a temporary folder is used when empty
	ExtractDir  string
	ImageFilter ImageFilter

	// RenderPages also compares rasterised pages
	RenderPages bool
	Renderer    *Renderer
}

// Service runs the walker, the scanner and the optional pictogram stage
type Service struct {
	opts    Options
	terms   []Term
	search  *Search
	scanner *Scanner
	assets  *Assets
	logger  *slog.Logger
}

// NewService validates opts and assembles the pipeline
func NewService(opts Options, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Mode == "" {
		opts.Mode = ModeMapped
	}
	if opts.Filter == "" {
		opts.Filter = hazard.FilterPictogram
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	var terms []Term
	switch opts.Mode {
	case ModeRaw:
		terms = VocabularyTerms(hazard.Codes())
	case ModeMapped:
		if opts.Mapping == nil {
			return nil, fmt.Errorf("mapped mode requires a mapping table")
		}
		terms = MappingTerms(opts.Mapping, opts.Filter)
	default:
		return nil, fmt.Errorf("invalid mode %q", opts.Mode)
	}

	s := &Service{
		opts:    opts,
		terms:   terms,
		search:  NewSearch(logger),
		scanner: NewScanner(NewReader(opts.MaxFileSize), opts.Pages, logger).WithProductLabels(opts.Product),
		logger:  logger,
	}

	if v := opts.Visual; v != nil {
		if v.Matcher == nil {
			return nil, fmt.Errorf("pictogram stage requires a matcher")
		}
		s.assets = NewAssets(opts.MaxFileSize, v.ImageFilter, logger)
		if v.RenderPages && v.Renderer == nil {
			v.Renderer = NewRenderer(ExecRunner{Logger: logger}, "", 0)
		}
	}

	return s, nil
}

// WithOpener replaces the document opener, mainly for tests
func (s *Service) WithOpener(opener Opener) *Service {
	s.scanner = NewScanner(opener, s.opts.Pages, s.logger).WithProductLabels(s.opts.Product)
	return s
}

// Terms returns the terms searched in every document
func (s *Service) Terms() []Term {
	return s.terms
}

// Mode returns the label representation of this run
func (s *Service) Mode() Mode {
	return s.opts.Mode
}

// FindPDFs lists the documents below root in enumeration order
func (s *Service) FindPDFs(root string) ([]FileInfo, error) {
	return s.search.FindPDFs(root)
}

// ExtractFolder processes every PDF below root
func (s *Service) ExtractFolder(ctx context.Context, root string, progress chan<- Progress) ([]DocumentRecord, error) {
	files, err := s.search.FindPDFs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list PDF files: %w", err)
	}
	s.logger.Info("found PDF files", "root", root, "count", len(files))

	return s.ExtractFiles(ctx, root, Paths(files), progress)
}

// ExtractFile processes a single document
func (s *Service) ExtractFile(ctx context.Context, path string) (DocumentRecord, error) {
	records, err := s.ExtractFiles(ctx, filepath.Dir(path), []string{path}, nil)
	if err != nil {
		return DocumentRecord{}, err
	}
	return records[0], nil
}

// ExtractFiles processes paths with up to Workers documents in flight. Records
// are returned in the order of paths whatever the completion order. A
// document that fails is reported in its record; only cancellation fails the
// run.
func (s *Service) ExtractFiles(ctx context.Context, root string, paths []string, progress chan<- Progress) ([]DocumentRecord, error) {
	records := make([]DocumentRecord, len(paths))

	workDir, cleanup, err := s.workDir()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	var done atomic.Int64
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			records[i] = s.process(gctx, root, workDir, path)
			sendProgress(progress, Progress{Done: int(done.Add(1)), Total: len(paths), Path: path})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extraction cancelled: %w", err)
	}

	return records, nil
}

func (s *Service) process(ctx context.Context, root, workDir, path string) DocumentRecord {
	record := s.scanner.Scan(ctx, path, s.terms)
	if s.opts.Visual == nil || record.Error != "" {
		return record
	}

	dir := filepath.Join(workDir, RelativeDir(root, path))
	matches, err := s.matchPictograms(ctx, path, dir, record.PageCount)
	if err != nil {
		s.logger.Warn("pictogram matching failed", "path", path, "error", err)
		return record
	}

	refs := make(map[string]struct{})
	for _, m := range matches {
		refs[m.Reference] = struct{}{}
	}
	record.Matches = matches
	record.Pictograms = sortedSet(refs)
	return record
}

func (s *Service) matchPictograms(ctx context.Context, path, dir string, pageCount int) ([]PictogramMatch, error) {
	v := s.opts.Visual

	extracted, err := s.assets.ExtractImages(ctx, path, dir)
	if err != nil {
		return nil, err
	}

	var candidates []*pictogram.Image
	for _, img := range Kept(extracted) {
		candidate, err := pictogram.LoadFile(img.Path)
		if err != nil {
			s.logger.Warn("skipping undecodable image", "path", img.Path, "error", err)
			continue
		}
		candidates = append(candidates, candidate)
	}

	if v.RenderPages {
		pages, _ := s.opts.Pages.Resolve(pageCount)
		rendered, err := v.Renderer.RenderPages(ctx, path, dir, pages)
		if err != nil {
			s.logger.Warn("page rendering failed", "path", path, "error", err)
		}
		for _, p := range rendered {
			candidate, err := pictogram.LoadFile(p)
			if err != nil {
				s.logger.Warn("skipping undecodable page", "path", p, "error", err)
				continue
			}
			candidates = append(candidates, candidate)
		}
	}

	found, err := v.Matcher.Matches(ctx, candidates, v.References)
	if err != nil {
		return nil, err
	}

	matches := make([]PictogramMatch, len(found))
	for i, m := range found {
		matches[i] = PictogramMatch{
			Candidate:    m.Candidate,
			Reference:    m.Reference,
			Score:        m.Score,
			GoodMatches:  m.GoodMatches,
			TotalMatches: m.TotalMatches,
		}
	}
	return matches, nil
}

// workDir returns the root for extracted images and a cleanup function
func (s *Service) workDir() (string, func(), error) {
	v := s.opts.Visual
	if v == nil {
		return "", func() {}, nil
	}
	if v.ExtractDir != "" {
		if err := os.MkdirAll(v.ExtractDir, 0o755); err != nil {
			return "", nil, fmt.Errorf("failed to create extract folder: %w", err)
		}
		return v.ExtractDir, func() {}, nil
	}

	tmp, err := os.MkdirTemp("", "fds-images-")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp folder: %w", err)
	}
	return tmp, func() { os.RemoveAll(tmp) }, nil
}

// sendProgress never blocks the pipeline on a slow consumer
func sendProgress(ch chan<- Progress, p Progress) {
	if ch == nil {
		return
	}
	select {
	case ch <- p:
	default:
	}
}
