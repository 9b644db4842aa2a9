package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Format writes header and rows as comma-delimited text with LF
// line endings. Fields are quoted only when needed.
func Format(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatTable writes a parsed Table back out in header order.
func FormatTable(w io.Writer, t Table) error {
	rows := make([][]string, len(t.Records))
	for i, rec := range t.Records {
		rows[i] = rec.Values()
	}
	return Format(w, t.Header, rows)
}
