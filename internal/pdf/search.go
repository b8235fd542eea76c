package pdf

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Search discovers PDF documents below a folder
type Search struct {
	logger *slog.Logger
}

// NewSearch creates a folder walker
func NewSearch(logger *slog.Logger) *Search {
	if logger == nil {
		logger = slog.Default()
	}
	return &Search{logger: logger}
}

// FindPDFs walks root recursively and returns every file whose extension is
// .pdf in any case. Paths are root joined with the relative path, in lexical
// walk order, so enumeration is deterministic. Symlinks to files are
// followed; symlinked folders are not descended. Unreadable entries are logged
// and skipped. Empty files are returned; they fail later when opened.
func (s *Search) FindPDFs(root string) ([]FileInfo, error) {
	if err := ValidateDirectory(root); err != nil {
		return nil, err
	}

	var files []FileInfo
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if !IsPDFName(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.logger.Warn("skipping file without info", "path", path, "error", err)
			return nil
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			if info, err = os.Stat(path); err != nil {
				s.logger.Warn("skipping broken symlink", "path", path, "error", err)
				return nil
			}
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		files = append(files, FileInfo{
			Path: path,
			Name: d.Name(),
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}

	return files, nil
}

// Paths returns the paths of files
func Paths(files []FileInfo) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

// RelativeDir returns the path of pdfPath relative to root, for use as a
// per-document working folder. The extension is kept as a suffix
// ("a.PDF" gives "a_PDF") so a.pdf and a.PDF never share a folder. Documents
// outside root fall back to their base name.
func RelativeDir(root, pdfPath string) string {
	rel, err := filepath.Rel(root, pdfPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(pdfPath)
	}
	ext := filepath.Ext(rel)
	if ext == "" {
		return rel
	}
	return strings.TrimSuffix(rel, ext) + "_" + ext[1:]
}
