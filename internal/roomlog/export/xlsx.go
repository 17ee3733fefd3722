package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/BrandonDHaskell/roomlog/internal/roomlog/view"
)

// WriteXLSX writes a workbook with one sheet per date (named "2006-01-02"),
// newest date first, each holding the header and that date's rows.  An
// empty row set produces a single header-only sheet.
func WriteXLSX(w io.Writer, rows []view.Row) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	byDate := view.RowsByDate(rows)
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	first := f.GetSheetName(0)
	if len(dates) == 0 {
		if err := writeSheet(f, first, nil); err != nil {
			return err
		}
	}
	for i, d := range dates {
		name := d
		if i == 0 {
			if err := f.SetSheetName(first, name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("new sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, byDate[d]); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows []view.Row) error {
	if err := f.SetSheetRow(sheet, "A1", &view.Columns); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		cells := r.Cells()
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("xlsx row %d: %w", i+2, err)
		}
	}
	return nil
}
