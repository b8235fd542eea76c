package report

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/a3tai/fds-extractor/internal/pdf"
)

// WriteXLSX writes a workbook with the labels and detailed_labels sheets
func WriteXLSX(w io.Writer, vocabulary []string, records []pdf.DocumentRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := fillSheet(f, LabelsSheet, LabelRows(records)); err != nil {
		return err
	}
	if err := fillSheet(f, DetailSheet, DetailRows(vocabulary, records)); err != nil {
		return err
	}

	// NewFile starts with Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("xlsx delete default sheet: %w", err)
	}
	index, _ := f.GetSheetIndex(LabelsSheet)
	f.SetActiveSheet(index)

	_ = f.SetColWidth(LabelsSheet, "A", "A", 60) // pdf
	_ = f.SetColWidth(LabelsSheet, "B", "C", 18) // code, label
	_ = f.SetColWidth(DetailSheet, "A", "A", 60)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

// WriteXLSXFile writes hazard_labels.xlsx into dir and returns its path
func WriteXLSXFile(dir string, vocabulary []string, records []pdf.DocumentRecord) (string, error) {
	path := filepath.Join(dir, WorkbookFile)
	err := writeFile(path, func(w io.Writer) error { return WriteXLSX(w, vocabulary, records) })
	return path, err
}

func fillSheet(f *excelize.File, sheet string, rows [][]string) error {
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("xlsx new sheet %s: %w", sheet, err)
		}
	}

	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("xlsx cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("xlsx set %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}
