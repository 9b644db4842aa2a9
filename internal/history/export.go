package history

import (
	"io"

	"github.com/JonMunkholm/moldhistory/internal/tabular"
)

// ExportHeader is the column order of CSV exports.
var ExportHeader = []string{
	"id", "source", "action", "itemType", "itemId", "itemCode", "itemName",
	"occurredAt", "occurredDate",
	"fromRackLayer", "toRackLayer",
	"fromCompanyId", "fromCompanyName", "toCompanyId", "toCompanyName",
	"notes", "handlerId", "handler",
}

// ExportRow returns e in ExportHeader order.
func ExportRow(e Event) []string {
	return []string{
		e.ID, string(e.Source), string(e.Action), string(e.ItemType), e.ItemID, e.ItemCode, e.ItemName,
		e.OccurredAt, e.OccurredDateKey,
		e.FromRackLayer, e.ToRackLayer,
		e.FromCompanyID, e.FromCompanyName, e.ToCompanyID, e.ToCompanyName,
		e.Notes, e.HandlerID, e.Handler,
	}
}

// WriteCSV writes events as CSV. A positive limit truncates the output.
func WriteCSV(w io.Writer, events []Event, limit int) error {
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	rows := make([][]string, len(events))
	for i, e := range events {
		rows[i] = ExportRow(e)
	}
	return tabular.Format(w, ExportHeader, rows)
}
