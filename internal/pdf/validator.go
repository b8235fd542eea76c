package pdf

import (
	"fmt"
	"os"
	"strings"
)

// Validator checks documents before they are handed to a parser
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a validator. A maxFileSize of zero or less disables
// the size limit.
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile stats path and checks it with ValidateFileInfo
func (v *Validator) ValidateFile(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	return v.ValidateFileInfo(path, info)
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(path string, info os.FileInfo) error {
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	if !IsPDFName(path) {
		return fmt.Errorf("%w: %s", ErrNotPDF, path)
	}

	if info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	if v.maxFileSize > 0 && info.Size() > v.maxFileSize {
		return fmt.Errorf("%w: %d bytes (max: %d bytes)", ErrFileTooLarge, info.Size(), v.maxFileSize)
	}

	return nil
}

// ValidateDirectory checks that dir exists and is a directory
func ValidateDirectory(dir string) error {
	if dir == "" {
		return ErrEmptyPath
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotADirectory, dir)
	}
	return nil
}

// IsPDFName reports whether name carries a .pdf extension, in any case
func IsPDFName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}
