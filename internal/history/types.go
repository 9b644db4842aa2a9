// Package history derives a unified, classified event stream from the
// location, shipment and status logs and serves it through filtering,
// sorting, pagination and aggregate counts.
package history

import "time"

// Action is the canonical category assigned to an Event.
type Action string

const (
	ActionAudit          Action = "AUDIT"
	ActionCheckIn        Action = "CHECK_IN"
	ActionCheckOut       Action = "CHECK_OUT"
	ActionLocationChange Action = "LOCATION_CHANGE"
	ActionShipOut        Action = "SHIP_OUT"
	ActionShipIn         Action = "SHIP_IN"
	ActionShipMove       Action = "SHIP_MOVE"
	ActionOther          Action = "OTHER"

	// ActionAll is the filter value meaning "any action".
	ActionAll Action = "ALL"
)

// Actions lists every concrete action in display order.
var Actions = []Action{
	ActionAudit, ActionCheckIn, ActionCheckOut, ActionLocationChange,
	ActionShipOut, ActionShipIn, ActionShipMove, ActionOther,
}

// Valid reports whether a is one of the concrete actions.
func (a Action) Valid() bool {
	for _, v := range Actions {
		if a == v {
			return true
		}
	}
	return false
}

// IsMovement reports whether the action moves an item between places.
func (a Action) IsMovement() bool {
	switch a {
	case ActionLocationChange, ActionShipMove, ActionShipIn, ActionShipOut:
		return true
	}
	return false
}

// Source identifies which log table an Event was derived from.
type Source string

const (
	SourceLocation Source = "location"
	SourceShipment Source = "shipment"
	SourceStatus   Source = "status"
)

// ItemType identifies the kind of tracked item.
type ItemType string

const (
	ItemMold    ItemType = "mold"
	ItemCutter  ItemType = "cutter"
	ItemUnknown ItemType = "unknown"
)

// Event is one normalized, classified occurrence derived from a log row.
// Events are values and are never modified after Derive returns them.
type Event struct {
	ID     string `json:"id"`
	Source Source `json:"source"`
	Action Action `json:"action"`

	ItemType ItemType `json:"itemType"`
	ItemID   string   `json:"itemId"`
	ItemCode string   `json:"itemCode"`
	ItemName string   `json:"itemName"`

	OccurredAt      string    `json:"occurredAt"`
	OccurredDateKey string    `json:"occurredDateKey"`
	OccurredTime    time.Time `json:"-"`

	FromRackLayer   string `json:"fromRackLayer"`
	ToRackLayer     string `json:"toRackLayer"`
	FromCompanyID   string `json:"fromCompanyId"`
	FromCompanyName string `json:"fromCompanyName"`
	ToCompanyID     string `json:"toCompanyId"`
	ToCompanyName   string `json:"toCompanyName"`

	Notes     string `json:"notes"`
	HandlerID string `json:"handlerId"`
	Handler   string `json:"handler"`
}

// From returns the display value of the origin: rack-layer or company name.
func (e Event) From() string {
	if e.FromRackLayer != "" {
		return e.FromRackLayer
	}
	return e.FromCompanyName
}

// To returns the display value of the destination: rack-layer or company name.
func (e Event) To() string {
	if e.ToRackLayer != "" {
		return e.ToRackLayer
	}
	return e.ToCompanyName
}

// ItemLabel is the item display string used for sorting: code followed by name.
func (e Event) ItemLabel() string {
	return e.ItemCode + e.ItemName
}

// Aggregates are summary counts over a filtered event sequence. The three
// buckets are disjoint; OtherCount holds everything else.
type Aggregates struct {
	Total      int `json:"total"`
	AuditCount int `json:"auditCount"`
	MoveCount  int `json:"moveCount"`
	InOutCount int `json:"inOutCount"`
	OtherCount int `json:"otherCount"`
}
