package tabular

// parse.go implements the record parser used for every source table.
//
// Rules:
//   - LF and CRLF line endings are both accepted
//   - blank and whitespace-only lines are dropped; a line of empty fields is kept
//   - a byte-order marker is stripped from the first header field only
//   - double-quoted fields may contain the delimiter or newlines; "" decodes to "
//   - a row shorter than the header is padded with empty strings
//   - fewer than two non-blank lines yields no records (not an error)

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

const bom = "\ufeff"

// Parse parses comma-delimited text into a Table.
func Parse(text string) Table {
	return ParseDelimited(text, ',')
}

// ParseDelimited parses text using the given field delimiter.
func ParseDelimited(text string, delim rune) Table {
	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, bom)))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A malformed line is skipped; the reader has already advanced past it.
			continue
		}
		if isBlankLine(rec) {
			continue
		}
		rows = append(rows, rec)
	}

	if len(rows) == 0 {
		return Table{}
	}

	names := rows[0]
	names[0] = strings.TrimPrefix(names[0], bom)
	header := NewHeader(names)

	t := Table{Header: header.Names()}
	if len(rows) < 2 {
		return t
	}

	t.Records = make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		t.Records = append(t.Records, NewRecord(header, row))
	}
	return t
}

// ParseReader reads the whole snapshot from r and parses it.
// Invalid UTF-8 is replaced rather than rejected.
func ParseReader(r io.Reader) (Table, error) {
	data, err := io.ReadAll(NewBOMSkippingReader(r))
	if err != nil {
		return Table{}, err
	}
	return Parse(strings.ToValidUTF8(string(data), "\uFFFD")), nil
}

// isBlankLine reports whether rec came from an empty or whitespace-only line.
// A line of bare delimiters such as ",,," is a real row of empty fields.
func isBlankLine(rec []string) bool {
	return len(rec) == 1 && strings.TrimSpace(rec[0]) == ""
}
