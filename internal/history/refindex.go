package history

import (
	"github.com/JonMunkholm/moldhistory/internal/schema"
	"github.com/JonMunkholm/moldhistory/internal/tabular"
)

// Index resolves foreign keys in log rows to reference records.
// Items are split per type so a mold and a cutter sharing an id never collide.
// An Index is built once per reload and is read-only afterwards.
type Index struct {
	Molds        map[string]tabular.Record
	Cutters      map[string]tabular.Record
	Companies    map[string]tabular.Record
	Employees    map[string]tabular.Record
	Destinations map[string]tabular.Record
}

// BuildIndex builds lookup maps for every reference table in tables.
// Keys are trimmed; rows without a primary key are skipped.
func BuildIndex(tables tabular.Tables) *Index {
	return &Index{
		Molds:        indexTable(tables, schema.Molds),
		Cutters:      indexTable(tables, schema.Cutters),
		Companies:    indexTable(tables, schema.Companies),
		Employees:    indexTable(tables, schema.Employees),
		Destinations: indexTable(tables, schema.Destinations),
	}
}

func indexTable(tables tabular.Tables, key string) map[string]tabular.Record {
	out := make(map[string]tabular.Record)
	def, ok := schema.Get(key)
	if !ok {
		return out
	}
	for _, rec := range tables.Get(key).Records {
		id := rec.Trimmed(def.PrimaryKey)
		if id == "" {
			continue
		}
		out[id] = rec
	}
	return out
}

// lookup returns the first non-empty column value of the record with id in m.
func lookup(m map[string]tabular.Record, id string, cols ...string) string {
	if m == nil || id == "" {
		return ""
	}
	rec, ok := m[id]
	if !ok {
		return ""
	}
	for _, c := range cols {
		if v := collapseSpace(rec.Get(c)); v != "" {
			return v
		}
	}
	return ""
}

// EmployeeName resolves an employee id, falling back to the id itself.
func (idx *Index) EmployeeName(id string) string {
	if name := lookup(idx.employees(), id, "EmployeeName"); name != "" {
		return name
	}
	return id
}

// CompanyName resolves a company id, falling back to the id itself.
func (idx *Index) CompanyName(id string) string {
	if name := lookup(idx.companies(), id, "CompanyShortName", "CompanyName"); name != "" {
		return name
	}
	return id
}

// DestinationName resolves a status-log destination. Destinations are looked up
// first, then companies, then the raw id is returned.
func (idx *Index) DestinationName(id string) string {
	if name := lookup(idx.destinations(), id, "DestinationName"); name != "" {
		return name
	}
	return idx.CompanyName(id)
}

// Item resolves display code and name for an item, falling back to the id.
func (idx *Index) Item(t ItemType, id string) (code, name string) {
	switch t {
	case ItemMold:
		code = lookup(idx.molds(), id, "MoldCode")
		name = lookup(idx.molds(), id, "MoldName")
	case ItemCutter:
		code = lookup(idx.cutters(), id, "CutterNo")
		name = lookup(idx.cutters(), id, "CutterName")
	}
	if code == "" {
		code = id
	}
	if name == "" {
		name = id
	}
	return code, name
}

func (idx *Index) molds() map[string]tabular.Record {
	if idx == nil {
		return nil
	}
	return idx.Molds
}

func (idx *Index) cutters() map[string]tabular.Record {
	if idx == nil {
		return nil
	}
	return idx.Cutters
}

func (idx *Index) companies() map[string]tabular.Record {
	if idx == nil {
		return nil
	}
	return idx.Companies
}

func (idx *Index) employees() map[string]tabular.Record {
	if idx == nil {
		return nil
	}
	return idx.Employees
}

func (idx *Index) destinations() map[string]tabular.Record {
	if idx == nil {
		return nil
	}
	return idx.Destinations
}
