// Package export renders day rows as sign-in sheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/BrandonDHaskell/roomlog/internal/roomlog/view"
)

// WriteCSV writes the header and one line per row.
func WriteCSV(w io.Writer, rows []view.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(view.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Cells()); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
