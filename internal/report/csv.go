package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/a3tai/fds-extractor/internal/pdf"
)

// WriteLabelsCSV writes the labels table
func WriteLabelsCSV(w io.Writer, records []pdf.DocumentRecord) error {
	return writeRows(w, LabelRows(records))
}

// WriteDetailCSV writes the detail matrix over vocabulary
func WriteDetailCSV(w io.Writer, vocabulary []string, records []pdf.DocumentRecord) error {
	return writeRows(w, DetailRows(vocabulary, records))
}

// WritePictogramsCSV writes the pictogram match table
func WritePictogramsCSV(w io.Writer, records []pdf.DocumentRecord) error {
	return writeRows(w, PictogramRows(records))
}

// WriteCSVFiles writes labels.csv and detailed_labels.csv into dir, plus
// pictograms.csv when withPictograms is set. It returns the written paths.
func WriteCSVFiles(dir string, vocabulary []string, records []pdf.DocumentRecord, withPictograms bool) ([]string, error) {
	outputs := []struct {
		name  string
		write func(io.Writer) error
	}{
		{name: LabelsFile, write: func(w io.Writer) error { return WriteLabelsCSV(w, records) }},
		{name: DetailFile, write: func(w io.Writer) error { return WriteDetailCSV(w, vocabulary, records) }},
	}
	if withPictograms {
		outputs = append(outputs, struct {
			name  string
			write func(io.Writer) error
		}{name: PictogramsFile, write: func(w io.Writer) error { return WritePictogramsCSV(w, records) }})
	}

	var written []string
	for _, out := range outputs {
		path := filepath.Join(dir, out.name)
		if err := writeFile(path, out.write); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeRows(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// WritePictogramsFile writes pictograms.csv into dir and returns its path
func WritePictogramsFile(dir string, records []pdf.DocumentRecord) (string, error) {
	path := filepath.Join(dir, PictogramsFile)
	err := writeFile(path, func(w io.Writer) error { return WritePictogramsCSV(w, records) })
	return path, err
}
