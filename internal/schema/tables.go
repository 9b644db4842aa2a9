package schema

// Table keys. Log tables produce events; reference tables resolve display names.
const (
	LocationLog  = "locationlog"
	ShipLog      = "shiplog"
	StatusLog    = "statuslogs"
	Molds        = "molds"
	Cutters      = "cutters"
	Companies    = "companies"
	Employees    = "employees"
	Destinations = "destinations"
)

func init() {
	registerLogTables()
	registerReferenceTables()
}

func registerLogTables() {
	Register(TableDefinition{
		Key:        LocationLog,
		Label:      "Location log",
		Role:       RoleLog,
		File:       "locationlog.csv",
		PrimaryKey: "LocationLogID",
		Columns: []ColumnSpec{
			{Name: "LocationLogID"},
			{Name: "MoldID"},
			{Name: "CutterID"},
			{Name: "OldRackLayer", Required: true},
			{Name: "NewRackLayer", Required: true},
			{Name: "DateEntry", Required: true},
			{Name: "EmployeeID"},
			{Name: "notes"},
		},
	})

	Register(TableDefinition{
		Key:        ShipLog,
		Label:      "Shipment log",
		Role:       RoleLog,
		File:       "shiplog.csv",
		PrimaryKey: "ShipID",
		Columns: []ColumnSpec{
			{Name: "ShipID"},
			{Name: "MoldID"},
			{Name: "CutterID"},
			{Name: "FromCompanyID", Required: true},
			{Name: "ToCompanyID", Required: true},
			{Name: "FromCompany"},
			{Name: "ToCompany"},
			{Name: "ShipDate"},
			{Name: "DateEntry", Required: true},
			{Name: "EmployeeID"},
			{Name: "handler"},
			{Name: "ShipNotes"},
		},
	})

	Register(TableDefinition{
		Key:        StatusLog,
		Label:      "Status log",
		Role:       RoleLog,
		File:       "statuslogs.csv",
		PrimaryKey: "StatusLogID",
		Columns: []ColumnSpec{
			{Name: "StatusLogID"},
			{Name: "MoldID"},
			{Name: "CutterID"},
			{Name: "ItemType"},
			{Name: "Status", Required: true},
			{Name: "Timestamp", Required: true},
			{Name: "EmployeeID"},
			{Name: "DestinationID"},
			{Name: "Notes"},
			{Name: "AuditType"},
			{Name: "AuditDate"},
		},
	})
}

func registerReferenceTables() {
	Register(TableDefinition{
		Key:        Molds,
		Label:      "Molds",
		Role:       RoleReference,
		File:       "molds.csv",
		PrimaryKey: "MoldID",
		Columns: []ColumnSpec{
			{Name: "MoldID", Required: true},
			{Name: "MoldCode"},
			{Name: "MoldName"},
		},
	})

	Register(TableDefinition{
		Key:        Cutters,
		Label:      "Cutters",
		Role:       RoleReference,
		File:       "cutters.csv",
		PrimaryKey: "CutterID",
		Columns: []ColumnSpec{
			{Name: "CutterID", Required: true},
			{Name: "CutterNo"},
			{Name: "CutterName"},
		},
	})

	Register(TableDefinition{
		Key:        Companies,
		Label:      "Companies",
		Role:       RoleReference,
		File:       "companies.csv",
		PrimaryKey: "CompanyID",
		Columns: []ColumnSpec{
			{Name: "CompanyID", Required: true},
			{Name: "CompanyShortName"},
			{Name: "CompanyName"},
		},
	})

	Register(TableDefinition{
		Key:        Employees,
		Label:      "Employees",
		Role:       RoleReference,
		File:       "employee.csv",
		PrimaryKey: "EmployeeID",
		Columns: []ColumnSpec{
			{Name: "EmployeeID", Required: true},
			{Name: "EmployeeName"},
		},
	})

	Register(TableDefinition{
		Key:        Destinations,
		Label:      "Destinations",
		Role:       RoleReference,
		File:       "destinations.csv",
		PrimaryKey: "DestinationID",
		Columns: []ColumnSpec{
			{Name: "DestinationID", Required: true},
			{Name: "DestinationName"},
		},
	})
}
