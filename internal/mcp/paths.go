package mcp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator keeps tool arguments inside the served directory
type PathValidator struct {
	root     string
	realRoot string
}

// NewPathValidator creates a validator for root, which must exist
func NewPathValidator(root string) (*PathValidator, error) {
	if root == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}

	return &PathValidator{root: filepath.Clean(abs), realRoot: real}, nil
}

// Root returns the served directory
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve returns the absolute form of path. Relative paths are joined to the
// root and empty paths mean the root itself. Paths that leave the root,
// directly or through a symlink, are rejected.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		return v.root, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	clean := filepath.Clean(path)

	if !within(clean, v.root) && !within(clean, v.realRoot) {
		return "", fmt.Errorf("path is outside configured directory: %s", path)
	}

	// A missing path cannot escape through a link; the caller reports it.
	if real, err := filepath.EvalSymlinks(clean); err == nil && !within(real, v.realRoot) {
		return "", fmt.Errorf("path is outside configured directory: %s", path)
	}

	return clean, nil
}

// ResolveFile is Resolve for a path that must be an existing regular file
func (v *PathValidator) ResolveFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	resolved, err := v.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory: %s", path)
	}
	return resolved, nil
}

func within(path, dir string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}
