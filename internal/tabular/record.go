// Package tabular turns delimited text snapshots into ordered, field-keyed records.
//
// The parser is deliberately forgiving: short rows are padded, blank lines are
// dropped and malformed quoting is read lazily. Only a table with fewer than
// two non-blank lines is treated as "no data".
package tabular

import (
	"sort"
	"strings"
)

// Header maps column names to their position in a row.
// Lookups try the exact name first, then a case-insensitive match.
type Header struct {
	names  []string
	exact  map[string]int
	folded map[string]int
}

// NewHeader builds a Header from column names. Names are trimmed; the first
// occurrence of a duplicated name wins.
func NewHeader(names []string) *Header {
	h := &Header{
		names:  make([]string, len(names)),
		exact:  make(map[string]int, len(names)),
		folded: make(map[string]int, len(names)),
	}
	for i, n := range names {
		n = strings.TrimSpace(n)
		h.names[i] = n
		if _, ok := h.exact[n]; !ok {
			h.exact[n] = i
		}
		key := strings.ToLower(n)
		if _, ok := h.folded[key]; !ok {
			h.folded[key] = i
		}
	}
	return h
}

// Names returns the column names in header order.
func (h *Header) Names() []string {
	out := make([]string, len(h.names))
	copy(out, h.names)
	return out
}

// Index returns the position of col, or false if the column is absent.
func (h *Header) Index(col string) (int, bool) {
	if h == nil {
		return 0, false
	}
	if i, ok := h.exact[col]; ok {
		return i, true
	}
	i, ok := h.folded[strings.ToLower(strings.TrimSpace(col))]
	return i, ok
}

// Record is one parsed row. It is immutable once created.
type Record struct {
	header *Header
	values []string
}

// NewRecord zips values against header. Missing trailing values become ""
// and extra values are dropped.
func NewRecord(header *Header, values []string) Record {
	row := make([]string, len(header.names))
	copy(row, values)
	return Record{header: header, values: row}
}

// RecordFromMap builds a Record from a column/value map. Columns are ordered
// alphabetically. Mostly useful for tests and non-CSV sources.
func RecordFromMap(fields map[string]string) Record {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	values := make([]string, len(names))
	for i, n := range names {
		values[i] = fields[n]
	}
	return NewRecord(NewHeader(names), values)
}

// Get returns the raw value for col, or "" when the column is absent.
func (r Record) Get(col string) string {
	i, ok := r.header.Index(col)
	if !ok || i >= len(r.values) {
		return ""
	}
	return r.values[i]
}

// Trimmed returns Get(col) with surrounding whitespace removed.
func (r Record) Trimmed(col string) string {
	return strings.TrimSpace(r.Get(col))
}

// Has reports whether the record's header contains col.
func (r Record) Has(col string) bool {
	_, ok := r.header.Index(col)
	return ok
}

// Values returns a copy of the row values in header order.
func (r Record) Values() []string {
	out := make([]string, len(r.values))
	copy(out, r.values)
	return out
}

// Map returns a copy of the record as a column/value map.
func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r.values))
	if r.header == nil {
		return out
	}
	for i, n := range r.header.names {
		if _, seen := out[n]; seen {
			continue
		}
		out[n] = r.values[i]
	}
	return out
}

// Table is the result of parsing one delimited text snapshot.
type Table struct {
	Header  []string
	Records []Record
}

// Len returns the number of data records.
func (t Table) Len() int {
	return len(t.Records)
}

// Tables holds parsed snapshots keyed by table key.
type Tables map[string]Table

// Get returns the table for key, or an empty Table when it was not loaded.
func (ts Tables) Get(key string) Table {
	if ts == nil {
		return Table{}
	}
	return ts[key]
}
