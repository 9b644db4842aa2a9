package templates

import "github.com/JonMunkholm/moldhistory/internal/history"

const pageTitle = "Mold & Cutter History / 金型・抜型履歴"

// actionLabels are the bilingual display names of each action.
var actionLabels = map[history.Action]string{
	history.ActionAudit:          "Audit / 棚卸",
	history.ActionCheckIn:        "Check in / 入庫",
	history.ActionCheckOut:       "Check out / 出庫",
	history.ActionLocationChange: "Location change / 棚移動",
	history.ActionShipOut:        "Ship out / 出荷",
	history.ActionShipIn:         "Ship in / 受入",
	history.ActionShipMove:       "Transfer / 移送",
	history.ActionOther:          "Other / その他",
}

// ActionLabel returns the display name of a, or a itself when unknown.
func ActionLabel(a history.Action) string {
	if l, ok := actionLabels[a]; ok {
		return l
	}
	return string(a)
}

// Column is a sortable table column.
type Column struct {
	Key   history.SortKey
	Label string
}

// Columns are the table columns in display order.
var Columns = []Column{
	{history.SortDate, "Date / 日時"},
	{history.SortItem, "Item / 品目"},
	{history.SortAction, "Action / 区分"},
	{history.SortFrom, "From / 移動元"},
	{history.SortTo, "To / 移動先"},
	{history.SortNotes, "Notes / 備考"},
	{history.SortHandler, "Handler / 担当者"},
}

type counter struct {
	Label string
	N     int
}

func counters(a history.Aggregates) []counter {
	return []counter{
		{"Total / 件数", a.Total},
		{"Audit / 棚卸", a.AuditCount},
		{"Move / 移動", a.MoveCount},
		{"In/Out / 入出庫", a.InOutCount},
	}
}

// ItemCell is the item column text: code and name when both are known.
func ItemCell(e history.Event) string {
	switch {
	case e.ItemCode != "" && e.ItemName != "":
		return e.ItemCode + " " + e.ItemName
	case e.ItemCode != "":
		return e.ItemCode
	default:
		return e.ItemName
	}
}

func ariaSort(dir history.SortDir) string {
	if dir == history.Desc {
		return "descending"
	}
	return "ascending"
}
