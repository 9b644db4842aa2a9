package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumn is returned when a non-empty table lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// ValidateHeaders checks that every required column of def is present in
// header. An empty header means the table had no data and always passes.
func ValidateHeaders(def TableDefinition, header []string) error {
	if len(header) == 0 {
		return nil
	}

	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.ToLower(strings.TrimSpace(h))] = true
	}

	var missing []string
	for _, name := range def.Required() {
		if !present[strings.ToLower(name)] {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%s: %w: %s", def.Key, ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}
