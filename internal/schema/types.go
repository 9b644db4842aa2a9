// Package schema describes the source tables the history engine consumes:
// their file names, primary keys and required columns.
//
// Tables are registered at init time. Each [TableDefinition] is used by the
// source loader to fetch and validate a snapshot before derivation starts.
package schema

import "strings"

// Role distinguishes log tables (one event per row) from reference tables.
type Role string

const (
	RoleLog       Role = "log"
	RoleReference Role = "reference"
)

// ColumnSpec defines one expected column.
type ColumnSpec struct {
	Name     string // Column header name (matched case-insensitively)
	Required bool   // Column must exist in a non-empty table
}

// TableDefinition contains everything needed to load one source table.
type TableDefinition struct {
	Key        string       // Unique identifier: "statuslogs"
	Label      string       // Display name: "Status log"
	Role       Role         // Log or reference table
	File       string       // Snapshot file name: "statuslogs.csv"
	PrimaryKey string       // Column holding the row's identifier
	Columns    []ColumnSpec // Known columns; unknown extra columns are kept
}

// Required returns the names of required columns.
func (d TableDefinition) Required() []string {
	var out []string
	for _, c := range d.Columns {
		if c.Required {
			out = append(out, c.Name)
		}
	}
	return out
}

// HasColumn reports whether name is a known column of the table.
func (d TableDefinition) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}
