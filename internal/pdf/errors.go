package pdf

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPath     = errors.New("path cannot be empty")
	ErrEmptyFile     = errors.New("file is empty")
	ErrNotPDF        = errors.New("file is not a PDF")
	ErrFileTooLarge  = errors.New("file too large")
	ErrNotADirectory = errors.New("path is not a directory")
)

// OpenError describes a failure to open or read a document
type OpenError struct {
	Op   string `json:"operation"`
	Path string `json:"path"`
	Err  error  `json:"error"`
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("PDF %s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// recovered converts a recovered panic value into an error
func recovered(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("parser panic: %w", err)
	}
	return fmt.Errorf("parser panic: %v", v)
}
