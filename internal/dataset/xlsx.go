package dataset

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Sheet names a table for workbook export.
type Sheet struct {
	Name  string
	Table *Table
}

// WriteXLSX writes each table to its own worksheet, in order, with the header
// in row 1.
func WriteXLSX(path string, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to write")
	}

	f := excelize.NewFile()
	defer f.Close() // nolint:errcheck

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.Name); err != nil {
				return fmt.Errorf("naming sheet %s: %w", s.Name, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", s.Name, err)
		}

		if err := writeSheet(f, s); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, s Sheet) error {
	rows := append([][]string{s.Table.Header}, s.Table.Rows...)
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.Name, cell, &rows[i]); err != nil {
			return fmt.Errorf("writing %s row %d: %w", s.Name, i+1, err)
		}
	}
	return nil
}
