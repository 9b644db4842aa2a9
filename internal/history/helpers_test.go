package history

import (
	"github.com/JonMunkholm/moldhistory/internal/schema"
	"github.com/JonMunkholm/moldhistory/internal/tabular"
)

type row = map[string]string

// table builds a Table whose header is the union of the rows' columns.
func table(rows ...row) tabular.Table {
	cols := map[string]bool{}
	var header []string
	for _, r := range rows {
		for c := range r {
			if !cols[c] {
				cols[c] = true
				header = append(header, c)
			}
		}
	}
	h := tabular.NewHeader(header)
	t := tabular.Table{Header: header}
	for _, r := range rows {
		values := make([]string, len(header))
		for i, c := range header {
			values[i] = r[c]
		}
		t.Records = append(t.Records, tabular.NewRecord(h, values))
	}
	return t
}

func rec(fields row) tabular.Record {
	return tabular.RecordFromMap(fields)
}

// fixtureTables is a small but complete data set covering every source.
func fixtureTables() tabular.Tables {
	return tabular.Tables{
		schema.Molds: table(
			row{"MoldID": "M1", "MoldCode": "MC-001", "MoldName": "Front  Panel"},
			row{"MoldID": "M2", "MoldCode": "MC-002", "MoldName": "Rear Panel"},
		),
		schema.Cutters: table(
			row{"CutterID": "C1", "CutterNo": "CT-01", "CutterName": "Blade"},
		),
		schema.Companies: table(
			row{"CompanyID": "10", "CompanyShortName": "ACME", "CompanyName": "Acme Industries"},
			row{"CompanyID": "20", "CompanyName": "Beta Works"},
		),
		schema.Employees: table(
			row{"EmployeeID": "E1", "EmployeeName": "Sato"},
			row{"EmployeeID": "E2", "EmployeeName": "Tanaka"},
		),
		schema.Destinations: table(
			row{"DestinationID": "D1", "DestinationName": "Plant North"},
		),
		schema.LocationLog: table(
			row{"LocationLogID": "1", "MoldID": "M1", "OldRackLayer": "A1", "NewRackLayer": "B2", "DateEntry": "2025-01-10", "EmployeeID": "E1"},
			row{"LocationLogID": "2", "CutterID": "C1", "OldRackLayer": "C3", "NewRackLayer": "C4", "DateEntry": "2025-03-01 09:30", "EmployeeID": "E2"},
		),
		schema.ShipLog: table(
			row{"ShipID": "100", "MoldID": "M2", "FromCompanyID": "10", "ToCompanyID": "", "DateEntry": "2025-02-01", "EmployeeID": "E1", "ShipNotes": "to customer"},
			row{"ShipID": "101", "MoldID": "M2", "FromCompanyID": "", "ToCompanyID": "20", "DateEntry": "2025-02-15", "handler": "Suzuki"},
			row{"ShipID": "102", "MoldID": "M1", "FromCompanyID": "10", "ToCompanyID": "20", "DateEntry": "2025-06-15"},
		),
		schema.StatusLog: table(
			row{"StatusLogID": "500", "MoldID": "M1", "Status": "CHECK_IN", "Notes": "棚卸", "Timestamp": "2025-01-11"},
			row{"StatusLogID": "501", "CutterID": "C1", "Status": "OUT", "Timestamp": "2025-04-01", "EmployeeID": "E2"},
			row{"StatusLogID": "502", "MoldID": "M2", "Status": "", "AuditType": "", "Notes": "", "Timestamp": "not a date"},
			row{"StatusLogID": "503", "MoldID": "M2", "Status": "IN", "AuditType": "SHIP_FROM_COMPANY", "DestinationID": "D1", "Timestamp": "2025-05-05"},
		),
	}
}

func findEvent(events []Event, id string) (Event, bool) {
	for _, e := range events {
		if e.ID == id {
			return e, true
		}
	}
	return Event{}, false
}
