package pdf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// SkippedDir is the sub-folder receiving images rejected by the filter
const SkippedDir = "skipped"

const colorSpaceGray = "DeviceGray"

var disableConfigDir sync.Once

// ImageFilter rejects embedded images that cannot be pictograms
type ImageFilter struct {
	MinWidth  int
	MinHeight int
	SkipGray  bool
}

// DefaultImageFilter rejects images under 20x20 pixels and DeviceGray images
func DefaultImageFilter() ImageFilter {
	return ImageFilter{MinWidth: 20, MinHeight: 20, SkipGray: true}
}

// Reason returns why an image is rejected, or "" when it is kept
func (f ImageFilter) Reason(width, height int, colorSpace string, mask bool) string {
	switch {
	case width < f.MinWidth || height < f.MinHeight:
		return fmt.Sprintf("too small (%dx%d)", width, height)
	case mask:
		return "image mask"
	case f.SkipGray && colorSpace == colorSpaceGray:
		return "grayscale"
	default:
		return ""
	}
}

// ExtractedImage describes one embedded image written to disk
type ExtractedImage struct {
	Page       int    `json:"page"`
	Index      int    `json:"index"`
	Path       string `json:"path"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	ColorSpace string `json:"color_space"`
	Skipped    string `json:"skipped,omitempty"`
}

// Assets extracts embedded images with pdfcpu
type Assets struct {
	validator *Validator
	filter    ImageFilter
	logger    *slog.Logger
}

// NewAssets creates an image extractor
func NewAssets(maxFileSize int64, filter ImageFilter, logger *slog.Logger) *Assets {
	if logger == nil {
		logger = slog.Default()
	}
	disableConfigDir.Do(api.DisableConfigDir)

	return &Assets{
		validator: NewValidator(maxFileSize),
		filter:    filter,
		logger:    logger,
	}
}

// ExtractImages writes every embedded image of the PDF into outDir as
// page_<n>_image_<i>.<ext>, pages and images numbered from 1. outDir is
// emptied first. Rejected images go to outDir/skipped instead.
func (a *Assets) ExtractImages(ctx context.Context, pdfPath, outDir string) (images []ExtractedImage, err error) {
	if err := a.validator.ValidateFile(pdfPath); err != nil {
		return nil, &OpenError{Op: "validate", Path: pdfPath, Err: err}
	}

	if err := resetDir(outDir); err != nil {
		return nil, err
	}

	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, &OpenError{Op: "open", Path: pdfPath, Err: err}
	}
	defer f.Close()

	defer func() {
		if v := recover(); v != nil {
			err = &OpenError{Op: "extract_images", Path: pdfPath, Err: recovered(v)}
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, &OpenError{Op: "open", Path: pdfPath, Err: fmt.Errorf("failed to read PDF context: %w", err)}
	}

	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return images, err
		}

		pageImages, err := pdfcpu.ExtractPageImages(pdfCtx, pageNr, false)
		if err != nil {
			a.logger.Warn("failed to extract page images", "path", pdfPath, "page", pageNr, "error", err)
			continue
		}

		objNrs := make([]int, 0, len(pageImages))
		for objNr := range pageImages {
			objNrs = append(objNrs, objNr)
		}
		sort.Ints(objNrs)

		for i, objNr := range objNrs {
			img := pageImages[objNr]
			extracted, err := a.writeImage(outDir, pageNr, i+1, img)
			if err != nil {
				return images, err
			}
			images = append(images, extracted)
		}
	}

	a.logger.Debug("extracted images", "path", pdfPath, "count", len(images))
	return images, nil
}

func (a *Assets) writeImage(outDir string, page, index int, img model.Image) (ExtractedImage, error) {
	extracted := ExtractedImage{
		Page:       page,
		Index:      index,
		Width:      img.Width,
		Height:     img.Height,
		ColorSpace: img.Cs,
		Skipped:    a.filter.Reason(img.Width, img.Height, img.Cs, img.IsImgMask),
	}

	dir := outDir
	if extracted.Skipped != "" {
		dir = filepath.Join(outDir, SkippedDir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return extracted, fmt.Errorf("failed to create skipped folder: %w", err)
		}
		a.logger.Debug("skipping image", "page", page, "index", index, "reason", extracted.Skipped)
	}

	ext := img.FileType
	if ext == "" {
		ext = "bin"
	}
	extracted.Path = filepath.Join(dir, fmt.Sprintf("page_%d_image_%d.%s", page, index, ext))

	out, err := os.Create(extracted.Path)
	if err != nil {
		return extracted, fmt.Errorf("failed to create image file: %w", err)
	}
	defer out.Close()

	if img.Reader != nil {
		if _, err := io.Copy(out, img); err != nil {
			return extracted, fmt.Errorf("failed to write image %s: %w", extracted.Path, err)
		}
	}

	return extracted, nil
}

// Kept returns the images the filter accepted
func Kept(images []ExtractedImage) []ExtractedImage {
	var kept []ExtractedImage
	for _, img := range images {
		if img.Skipped == "" {
			kept = append(kept, img)
		}
	}
	return kept
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clean %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}
