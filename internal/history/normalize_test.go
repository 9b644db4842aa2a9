package history

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/moldhistory/internal/metrics"
	"github.com/JonMunkholm/moldhistory/internal/schema"
	"github.com/JonMunkholm/moldhistory/internal/tabular"
)

func TestDerive_LocationThenAuditScenario(t *testing.T) {
	tables := tabular.Tables{
		schema.LocationLog: table(row{"MoldID": "M1", "OldRackLayer": "A1", "NewRackLayer": "B2", "DateEntry": "2025-01-10"}),
		schema.StatusLog:   table(row{"MoldID": "M1", "Status": "CHECK_IN", "Notes": "棚卸", "Timestamp": "2025-01-11"}),
	}

	events, _ := Build(tables)
	require.Len(t, events, 2)

	assert.Equal(t, "2025-01-11", events[0].OccurredDateKey)
	assert.Equal(t, SourceStatus, events[0].Source)
	assert.Equal(t, ActionAudit, events[0].Action)

	assert.Equal(t, "2025-01-10", events[1].OccurredDateKey)
	assert.Equal(t, ActionLocationChange, events[1].Action)
	assert.Equal(t, "A1", events[1].FromRackLayer)
	assert.Equal(t, "B2", events[1].ToRackLayer)
	assert.Empty(t, events[1].FromCompanyName)
	assert.Empty(t, events[1].ToCompanyName)
}

func TestDerive_Fixture(t *testing.T) {
	events, _ := Build(fixtureTables())
	require.Len(t, events, 9)

	var ids []string
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{
		"shipment-102", "status-503", "status-501", "location-2", "shipment-101",
		"shipment-100", "status-500", "location-1", "status-502",
	}, ids)

	t.Run("reference names resolve", func(t *testing.T) {
		e, ok := findEvent(events, "location-1")
		require.True(t, ok)
		assert.Equal(t, ItemMold, e.ItemType)
		assert.Equal(t, "MC-001", e.ItemCode)
		assert.Equal(t, "Front Panel", e.ItemName)
		assert.Equal(t, "Sato", e.Handler)
	})

	t.Run("cutter item", func(t *testing.T) {
		e, ok := findEvent(events, "location-2")
		require.True(t, ok)
		assert.Equal(t, ItemCutter, e.ItemType)
		assert.Equal(t, "CT-01", e.ItemCode)
		assert.Equal(t, "2025-03-01", e.OccurredDateKey)
	})

	t.Run("ship out uses company short name", func(t *testing.T) {
		e, ok := findEvent(events, "shipment-100")
		require.True(t, ok)
		assert.Equal(t, ActionShipOut, e.Action)
		assert.Equal(t, "10", e.FromCompanyID)
		assert.Equal(t, "ACME", e.FromCompanyName)
		assert.Empty(t, e.ToCompanyID)
		assert.Equal(t, "to customer", e.Notes)
	})

	t.Run("ship in falls back to company name and handler column", func(t *testing.T) {
		e, ok := findEvent(events, "shipment-101")
		require.True(t, ok)
		assert.Equal(t, ActionShipIn, e.Action)
		assert.Equal(t, "Beta Works", e.ToCompanyName)
		assert.Equal(t, "Suzuki", e.Handler)
	})

	t.Run("status ship in fills the from pair with the destination", func(t *testing.T) {
		e, ok := findEvent(events, "status-503")
		require.True(t, ok)
		assert.Equal(t, ActionShipIn, e.Action)
		assert.Equal(t, "D1", e.FromCompanyID)
		assert.Equal(t, "Plant North", e.FromCompanyName)
		assert.Empty(t, e.ToCompanyID)
		assert.Empty(t, e.FromRackLayer)
	})

	t.Run("unparsable date", func(t *testing.T) {
		e, ok := findEvent(events, "status-502")
		require.True(t, ok)
		assert.Equal(t, ActionOther, e.Action)
		assert.Equal(t, "not a date", e.OccurredAt)
		assert.Empty(t, e.OccurredDateKey)
		assert.True(t, e.OccurredTime.IsZero())
	})
}

func TestDerive_EventShape(t *testing.T) {
	events, _ := Build(fixtureTables())
	for _, e := range events {
		assert.NotEmpty(t, e.ID)
		assert.True(t, e.Action.Valid(), "event %s has action %q", e.ID, e.Action)
		assert.True(t, e.OccurredDateKey == "" || IsDateKey(e.OccurredDateKey), "event %s date key %q", e.ID, e.OccurredDateKey)

		if e.Action.IsMovement() {
			rack := e.FromRackLayer != "" || e.ToRackLayer != ""
			company := e.FromCompanyName != "" || e.ToCompanyName != ""
			assert.True(t, rack != company, "event %s must carry exactly one location pair", e.ID)
		}
	}
}

func TestDerive_MoldWinsOverCutter(t *testing.T) {
	before := testutil.ToFloat64(metrics.ItemConflicts)

	events := Derive(tabular.Tables{
		schema.LocationLog: table(row{"MoldID": "M9", "CutterID": "C9", "OldRackLayer": "A", "NewRackLayer": "B", "DateEntry": "2025-01-01"}),
	}, BuildIndex(nil))

	require.Len(t, events, 1)
	assert.Equal(t, ItemMold, events[0].ItemType)
	assert.Equal(t, "M9", events[0].ItemID)
	assert.Equal(t, "M9", events[0].ItemCode, "missing reference falls back to the raw id")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ItemConflicts))
}

func TestDerive_RowIDsAndWhitespace(t *testing.T) {
	events := Derive(tabular.Tables{
		schema.LocationLog: table(
			row{"LocationLogID": "", "OldRackLayer": " A  1 ", "NewRackLayer": "B\t2", "notes": "moved\n\nto  shelf", "DateEntry": "2025-01-01"},
		),
	}, nil)

	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, "location-row-1", e.ID)
	assert.Equal(t, ItemUnknown, e.ItemType)
	assert.Equal(t, "A 1", e.FromRackLayer)
	assert.Equal(t, "B 2", e.ToRackLayer)
	assert.Equal(t, "moved to shelf", e.Notes)
}

func TestDerive_EventIDsAreUnique(t *testing.T) {
	events := Derive(tabular.Tables{
		schema.LocationLog: table(
			row{"LocationLogID": "row-2", "DateEntry": "2025-01-03"},
			row{"LocationLogID": "", "DateEntry": "2025-01-02"},
			row{"LocationLogID": "7", "DateEntry": "2025-01-01"},
		),
		schema.StatusLog: table(
			row{"StatusLogID": "7", "Status": "CHECK_IN", "Timestamp": "2024-12-31"},
			row{"StatusLogID": "7", "Status": "CHECK_IN", "Timestamp": "2024-12-30"},
			row{"StatusLogID": "7#2", "Status": "CHECK_IN", "Timestamp": "2024-12-29"},
		),
	}, nil)

	var ids []string
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{
		"location-row-2", "location-row-2#2", "location-7",
		"status-7", "status-7#3", "status-7#2",
	}, ids)
}

func TestDerive_MovementWithoutLocations(t *testing.T) {
	events := Derive(tabular.Tables{
		schema.ShipLog: table(
			row{"ShipID": "S1", "MoldID": "M1", "ShipDate": "2025-01-02"},
		),
		schema.StatusLog: table(
			row{"StatusLogID": "T1", "MoldID": "M1", "AuditType": "SHIP_TO_COMPANY", "Timestamp": "2025-01-01"},
		),
	}, nil)
	require.Len(t, events, 2)

	// Rows with no company data still produce their movement event, with
	// both location pairs empty.
	for _, e := range events {
		assert.True(t, e.Action.IsMovement(), "event %s", e.ID)
		assert.Empty(t, e.FromCompanyID+e.FromCompanyName+e.ToCompanyID+e.ToCompanyName, "event %s", e.ID)
		assert.Empty(t, e.FromRackLayer+e.ToRackLayer, "event %s", e.ID)
	}
	assert.Equal(t, ActionShipMove, events[0].Action)
	assert.Equal(t, ActionShipOut, events[1].Action)
}

func TestDerive_MissingTables(t *testing.T) {
	assert.Empty(t, Derive(nil, nil))
}

func TestBuildIndex_SkipsEmptyKeys(t *testing.T) {
	idx := BuildIndex(tabular.Tables{
		schema.Employees: table(
			row{"EmployeeID": " E1 ", "EmployeeName": "Sato"},
			row{"EmployeeID": "  ", "EmployeeName": "Nobody"},
		),
	})

	assert.Len(t, idx.Employees, 1)
	assert.Equal(t, "Sato", idx.EmployeeName("E1"))
	assert.Equal(t, "E404", idx.EmployeeName("E404"))
	assert.Equal(t, "X", idx.DestinationName("X"))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2025-01-10", "2025-01-10"},
		{"2025/1/5", "2025-01-05"},
		{"2025-01-10 13:45:00", "2025-01-10"},
		{"2025-01-10T13:45:00", "2025-01-10"},
		{"2025-01-10T13:45:00Z", "2025-01-10"},
		{"1/15/2024", "2024-01-15"},
		{"Jan 15, 2024", "2024-01-15"},
		{"2025年3月4日", "2025-03-04"},
		{"", ""},
		{"not a date", ""},
		{"2025-13-45", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DateKey(tt.in))
		})
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	events, _ := Build(fixtureTables())

	var buf strings.Builder
	require.NoError(t, WriteCSV(&buf, events, 0))

	parsed := tabular.Parse(buf.String())
	require.Equal(t, len(events), parsed.Len())
	assert.Equal(t, ExportHeader, parsed.Header)
	for i, e := range events {
		assert.Equal(t, ExportRow(e), parsed.Records[i].Values())
	}

	buf.Reset()
	require.NoError(t, WriteCSV(&buf, events, 2))
	assert.Equal(t, 2, tabular.Parse(buf.String()).Len())
}
