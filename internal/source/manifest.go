package source

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TableSource overrides where one table is read from.
type TableSource struct {
	// File replaces the registered file name in dir and http modes.
	File string `yaml:"file"`
	// Query replaces the default SELECT in postgres mode.
	Query string `yaml:"query"`
	// Optional tables may be missing at the source.
	Optional *bool `yaml:"optional"`
}

// Manifest maps table keys to source overrides.
//
//	tables:
//	  employees:
//	    file: employee_master.csv
//	  destinations:
//	    optional: true
//	  statuslogs:
//	    query: SELECT * FROM statuslogs WHERE "Timestamp" > now() - interval '2 years'
type Manifest struct {
	Tables map[string]TableSource `yaml:"tables"`
}

// defaultOptional lists tables that older exports do not include.
var defaultOptional = map[string]bool{
	"destinations": true,
	"cutters":      true,
}

// LoadManifest reads a YAML manifest. An empty path yields an empty manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return &Manifest{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}

func (m *Manifest) entry(key string) TableSource {
	if m == nil {
		return TableSource{}
	}
	return m.Tables[key]
}

// File returns the file name for a table, falling back to def.
func (m *Manifest) File(key, def string) string {
	if f := m.entry(key).File; f != "" {
		return f
	}
	return def
}

// Query returns the configured query for a table, or "".
func (m *Manifest) Query(key string) string {
	return m.entry(key).Query
}

// Optional reports whether a missing table is tolerated.
func (m *Manifest) Optional(key string) bool {
	if o := m.entry(key).Optional; o != nil {
		return *o
	}
	return defaultOptional[key]
}
