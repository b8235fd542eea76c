// Package report renders extraction records as CSV, JSON and XLSX.
//
// All writers are deterministic: records keep their enumeration order, labels
// are already sorted by the scanner, and nothing time dependent is emitted,
// so rerunning on the same input produces byte-identical files.
package report

import (
	"fmt"
	"strings"
)

// Format selects the output written by the extractor
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Output file names
const (
	LabelsFile     = "labels.csv"
	DetailFile     = "detailed_labels.csv"
	PictogramsFile = "pictograms.csv"
	WorkbookFile   = "hazard_labels.xlsx"
)

// Sheet names inside the workbook
const (
	LabelsSheet = "labels"
	DetailSheet = "detailed_labels"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format %q (must be one of: json, csv, xlsx)", s)
	}
}
