package history

import (
	"log/slog"
	"strings"

	"github.com/JonMunkholm/moldhistory/internal/metrics"
	"github.com/JonMunkholm/moldhistory/internal/tabular"
)

// Rule maps a row predicate to an action.
type Rule struct {
	Name   string
	Match  func(tabular.Record) bool
	Action Action
}

// Classifier assigns an action to a log row. Rules are evaluated in order and
// the first match wins; rows matching no rule get Fallback.
type Classifier struct {
	Source   Source
	Rules    []Rule
	Fallback Action

	// OnFallback is called for rows that matched no rule. Nil disables it.
	OnFallback func(Source, tabular.Record)
}

// Classify returns the action for rec. It never fails.
func (c Classifier) Classify(rec tabular.Record) Action {
	action, _ := c.Explain(rec)
	return action
}

// Explain returns the action for rec and the name of the rule that produced
// it. The name is empty when the fallback applied.
func (c Classifier) Explain(rec tabular.Record) (Action, string) {
	for _, r := range c.Rules {
		if r.Match(rec) {
			return r.Action, r.Name
		}
	}
	if c.OnFallback != nil {
		c.OnFallback(c.Source, rec)
	}
	if c.Fallback == "" {
		return ActionOther, ""
	}
	return c.Fallback, ""
}

// Status markers and families, compared after normalizeCode.
const (
	markerShipFromCompany = "SHIPFROMCOMPANY"
	markerShipToCompany   = "SHIPTOCOMPANY"
)

var (
	inFamily  = map[string]bool{"IN": true, "CHECKIN": true}
	outFamily = map[string]bool{"OUT": true, "CHECKOUT": true}

	// auditKeywords are matched case-insensitively. 棚卸 is "inventory check".
	auditKeywords = []string{"audit", "棚卸"}
)

func always(tabular.Record) bool { return true }

// LocationRules classify location-log rows. Every row is a location change.
var LocationRules = []Rule{
	{Name: "location", Match: always, Action: ActionLocationChange},
}

func hasFromCompany(rec tabular.Record) bool { return rec.Trimmed("FromCompanyID") != "" }
func hasToCompany(rec tabular.Record) bool   { return rec.Trimmed("ToCompanyID") != "" }

// ShipmentRules classify shipment-log rows by which company ids are present.
// Rows with both or neither id fall through to SHIP_MOVE.
var ShipmentRules = []Rule{
	{
		Name:   "from-only",
		Match:  func(r tabular.Record) bool { return hasFromCompany(r) && !hasToCompany(r) },
		Action: ActionShipOut,
	},
	{
		Name:   "to-only",
		Match:  func(r tabular.Record) bool { return !hasFromCompany(r) && hasToCompany(r) },
		Action: ActionShipIn,
	},
}

func auditTypeHas(marker string) func(tabular.Record) bool {
	return func(r tabular.Record) bool {
		return strings.Contains(normalizeCode(r.Get("AuditType")), marker)
	}
}

func statusIn(family map[string]bool) func(tabular.Record) bool {
	return func(r tabular.Record) bool {
		return family[normalizeCode(r.Get("Status"))]
	}
}

// hasAuditKeyword reports whether Notes or AuditType mention an audit.
func hasAuditKeyword(r tabular.Record) bool {
	for _, col := range []string{"Notes", "AuditType"} {
		v := foldForSearch(r.Get(col))
		if v == "" {
			continue
		}
		for _, kw := range auditKeywords {
			if strings.Contains(v, kw) {
				return true
			}
		}
	}
	return false
}

// StatusRules classify status-log rows. Order matters: explicit ship markers
// beat the status column, and an audit keyword turns a check-in into an audit.
var StatusRules = []Rule{
	{Name: "ship-from-company", Match: auditTypeHas(markerShipFromCompany), Action: ActionShipIn},
	{Name: "ship-to-company", Match: auditTypeHas(markerShipToCompany), Action: ActionShipOut},
	{
		Name: "check-in-audit",
		Match: func(r tabular.Record) bool {
			return statusIn(inFamily)(r) && hasAuditKeyword(r)
		},
		Action: ActionAudit,
	},
	{Name: "check-in", Match: statusIn(inFamily), Action: ActionCheckIn},
	{Name: "check-out", Match: statusIn(outFamily), Action: ActionCheckOut},
	{Name: "audit-keyword", Match: hasAuditKeyword, Action: ActionAudit},
}

// logUnclassified records a row that fell through to OTHER.
func logUnclassified(src Source, rec tabular.Record) {
	metrics.UnclassifiedRows.WithLabelValues(string(src)).Inc()
	slog.Warn("unclassified log row",
		"source", src,
		"status", rec.Get("Status"),
		"audit_type", rec.Get("AuditType"),
		"notes", rec.Get("Notes"),
	)
}

// NewClassifier returns the classifier for a log source.
func NewClassifier(src Source) Classifier {
	c := Classifier{Source: src, Fallback: ActionOther}
	switch src {
	case SourceLocation:
		c.Rules = LocationRules
	case SourceShipment:
		c.Rules = ShipmentRules
		c.Fallback = ActionShipMove
	case SourceStatus:
		c.Rules = StatusRules
		c.OnFallback = logUnclassified
	}
	return c
}

// ClassifyLocation classifies a location-log row.
func ClassifyLocation(rec tabular.Record) Action {
	return NewClassifier(SourceLocation).Classify(rec)
}

// ClassifyShipment classifies a shipment-log row.
func ClassifyShipment(rec tabular.Record) Action {
	return NewClassifier(SourceShipment).Classify(rec)
}

// ClassifyStatus classifies a status-log row.
func ClassifyStatus(rec tabular.Record) Action {
	return NewClassifier(SourceStatus).Classify(rec)
}
