package main

import (
	"io"

	"github.com/JonMunkholm/moldhistory/internal/history"
)

func renderEvents(w io.Writer, events []history.Event) {
	t := newTable("DATE", "ITEM", "ACTION", "FROM", "TO", "NOTES", "HANDLER")
	for _, e := range events {
		t.addRow(
			e.OccurredAt,
			truncate(e.ItemCode+" "+e.ItemName, 32),
			string(e.Action),
			truncate(e.From(), 20),
			truncate(e.To(), 20),
			truncate(e.Notes, 30),
			truncate(e.Handler, 16),
		)
	}
	t.render(w)
}
