package history

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/JonMunkholm/moldhistory/internal/metrics"
	"github.com/JonMunkholm/moldhistory/internal/schema"
	"github.com/JonMunkholm/moldhistory/internal/tabular"
)

// Build indexes the reference tables and derives the event collection.
func Build(tables tabular.Tables) ([]Event, *Index) {
	idx := BuildIndex(tables)
	return Derive(tables, idx), idx
}

// Derive turns every row of the three log tables into exactly one Event and
// returns them newest first. Rows with unparsable dates sort last. Missing
// tables contribute no events.
func Derive(tables tabular.Tables, idx *Index) []Event {
	locations := tables.Get(schema.LocationLog).Records
	shipments := tables.Get(schema.ShipLog).Records
	statuses := tables.Get(schema.StatusLog).Records

	events := make([]Event, 0, len(locations)+len(shipments)+len(statuses))

	location := NewClassifier(SourceLocation)
	for i, rec := range locations {
		events = append(events, locationEvent(rec, i, idx, location.Classify(rec)))
	}

	shipment := NewClassifier(SourceShipment)
	for i, rec := range shipments {
		events = append(events, shipmentEvent(rec, i, idx, shipment.Classify(rec)))
	}

	status := NewClassifier(SourceStatus)
	for i, rec := range statuses {
		events = append(events, statusEvent(rec, i, idx, status.Classify(rec)))
	}

	uniqueIDs(events)
	sortNewestFirst(events)
	return events
}

// sortNewestFirst orders events by OccurredTime descending. Zero times sort
// as the earliest.
func sortNewestFirst(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccurredTime.After(events[j].OccurredTime)
	})
}

// newEvent fills the fields shared by every source.
func newEvent(src Source, rec tabular.Record, pkCol string, row int, idx *Index, action Action, dateCols ...string) Event {
	e := Event{
		ID:     eventID(src, rec.Trimmed(pkCol), row),
		Source: src,
		Action: action,
	}
	e.ItemType, e.ItemID = resolveItem(src, e.ID, rec)
	if e.ItemID != "" {
		e.ItemCode, e.ItemName = idx.Item(e.ItemType, e.ItemID)
	}

	for _, col := range dateCols {
		if raw := collapseSpace(rec.Get(col)); raw != "" {
			e.OccurredAt = raw
			break
		}
	}
	if t, ok := ParseDate(e.OccurredAt); ok {
		e.OccurredTime = t
		e.OccurredDateKey = t.Format(DateKeyLayout)
	}

	e.HandlerID = rec.Trimmed("EmployeeID")
	if e.HandlerID != "" {
		e.Handler = idx.EmployeeName(e.HandlerID)
	}
	return e
}

func eventID(src Source, pk string, row int) string {
	if pk == "" {
		return fmt.Sprintf("%s-row-%d", src, row+1)
	}
	return fmt.Sprintf("%s-%s", src, pk)
}

// uniqueIDs suffixes repeated event ids with "#2", "#3", ... in derivation
// order. Repeats come from duplicate primary keys or from a real key that
// matches a synthesized row key.
func uniqueIDs(events []Event) {
	seen := make(map[string]int, len(events))
	for _, e := range events {
		seen[e.ID]++
	}
	taken := make(map[string]bool, len(events))
	for i := range events {
		id := events[i].ID
		if seen[id] == 1 {
			continue
		}
		if !taken[id] {
			taken[id] = true
			continue
		}
		for n := 2; ; n++ {
			alt := fmt.Sprintf("%s#%d", id, n)
			if seen[alt] == 0 && !taken[alt] {
				slog.Warn("duplicate event id", "event_id", id, "renamed", alt)
				events[i].ID = alt
				taken[alt] = true
				break
			}
		}
	}
}

// resolveItem picks the item a row refers to. A mold id wins over a cutter id;
// rows carrying both are reported as data-integrity problems.
func resolveItem(src Source, id string, rec tabular.Record) (ItemType, string) {
	mold := collapseSpace(rec.Get("MoldID"))
	cutter := collapseSpace(rec.Get("CutterID"))

	switch {
	case mold != "" && cutter != "":
		metrics.ItemConflicts.Inc()
		slog.Warn("log row references both a mold and a cutter",
			"source", src,
			"event_id", id,
			"mold_id", mold,
			"cutter_id", cutter,
		)
		return ItemMold, mold
	case mold != "":
		return ItemMold, mold
	case cutter != "":
		return ItemCutter, cutter
	}
	return ItemUnknown, ""
}

func locationEvent(rec tabular.Record, row int, idx *Index, action Action) Event {
	e := newEvent(SourceLocation, rec, "LocationLogID", row, idx, action, "DateEntry")
	e.FromRackLayer = collapseSpace(rec.Get("OldRackLayer"))
	e.ToRackLayer = collapseSpace(rec.Get("NewRackLayer"))
	e.Notes = collapseSpace(rec.Get("notes"))
	return e
}

func shipmentEvent(rec tabular.Record, row int, idx *Index, action Action) Event {
	e := newEvent(SourceShipment, rec, "ShipID", row, idx, action, "ShipDate", "DateEntry")
	e.FromCompanyID, e.FromCompanyName = shipCompany(rec, idx, "FromCompanyID", "FromCompany")
	e.ToCompanyID, e.ToCompanyName = shipCompany(rec, idx, "ToCompanyID", "ToCompany")
	e.Notes = collapseSpace(rec.Get("ShipNotes"))
	if e.HandlerID == "" || e.Handler == e.HandlerID {
		if h := collapseSpace(rec.Get("handler")); h != "" {
			e.Handler = h
		}
	}
	return e
}

// shipCompany resolves a company id column, falling back to the free-text
// company column when the id is empty.
func shipCompany(rec tabular.Record, idx *Index, idCol, textCol string) (id, name string) {
	id = collapseSpace(rec.Get(idCol))
	if id != "" {
		return id, idx.CompanyName(id)
	}
	return "", collapseSpace(rec.Get(textCol))
}

func statusEvent(rec tabular.Record, row int, idx *Index, action Action) Event {
	e := newEvent(SourceStatus, rec, "StatusLogID", row, idx, action, "Timestamp", "AuditDate")
	e.Notes = collapseSpace(rec.Get("Notes"))

	dest := collapseSpace(rec.Get("DestinationID"))
	if dest == "" {
		return e
	}
	switch action {
	case ActionShipIn:
		e.FromCompanyID, e.FromCompanyName = dest, idx.DestinationName(dest)
	case ActionShipOut:
		e.ToCompanyID, e.ToCompanyName = dest, idx.DestinationName(dest)
	}
	return e
}

// CountBySource returns the number of events per source.
func CountBySource(events []Event) map[Source]int {
	out := map[Source]int{SourceLocation: 0, SourceShipment: 0, SourceStatus: 0}
	for _, e := range events {
		out[e.Source]++
	}
	return out
}

// latest returns the newest OccurredTime in events, or the zero time.
func latest(events []Event) time.Time {
	var t time.Time
	for _, e := range events {
		if e.OccurredTime.After(t) {
			t = e.OccurredTime
		}
	}
	return t
}
