package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/a3tai/fds-extractor/internal/pdf"
)

// PictogramRecord is the per-document output of the pictogram command
type PictogramRecord struct {
	Path        string     `json:"pdf"`
	ProductCode string     `json:"code"`
	Pictograms  [][]string `json:"pictos"`
	Error       string     `json:"error,omitempty"`
}

// WriteJSON writes records as an indented JSON array. An empty batch is
// written as [].
func WriteJSON(w io.Writer, records []pdf.DocumentRecord) error {
	if records == nil {
		records = []pdf.DocumentRecord{}
	}
	return encode(w, records)
}

// PictogramRecords groups the matches of every record per candidate image
func PictogramRecords(records []pdf.DocumentRecord) []PictogramRecord {
	out := make([]PictogramRecord, 0, len(records))
	for _, r := range records {
		out = append(out, PictogramRecord{
			Path:        r.Path,
			ProductCode: r.ProductCode,
			Pictograms:  PictogramGroups(r),
			Error:       r.Error,
		})
	}
	return out
}

// WritePictogramJSON writes PictogramRecords as an indented JSON array
func WritePictogramJSON(w io.Writer, records []pdf.DocumentRecord) error {
	return encode(w, PictogramRecords(records))
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
