package history

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DefaultPageSize is used when no positive page size is configured.
const DefaultPageSize = 50

var (
	ErrUnknownSortKey = errors.New("unknown sort key")
	ErrInvalidFilter  = errors.New("invalid filter")
)

// Filter selects events. Empty fields are unbounded; Action and EmployeeID
// also accept "ALL".
type Filter struct {
	DateFrom   string `json:"dateFrom"`
	DateTo     string `json:"dateTo"`
	Action     Action `json:"action"`
	EmployeeID string `json:"employeeId"`
	Rack       string `json:"rack"`
	Company    string `json:"company"`
	Keyword    string `json:"keyword"`
}

// FilterPatch is a partial Filter update. Nil fields are left unchanged.
type FilterPatch struct {
	DateFrom   *string `json:"dateFrom,omitempty"`
	DateTo     *string `json:"dateTo,omitempty"`
	Action     *Action `json:"action,omitempty"`
	EmployeeID *string `json:"employeeId,omitempty"`
	Rack       *string `json:"rack,omitempty"`
	Company    *string `json:"company,omitempty"`
	Keyword    *string `json:"keyword,omitempty"`
}

// Apply returns f with the non-nil fields of p applied.
func (p FilterPatch) Apply(f Filter) Filter {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&f.DateFrom, p.DateFrom)
	set(&f.DateTo, p.DateTo)
	set(&f.EmployeeID, p.EmployeeID)
	set(&f.Rack, p.Rack)
	set(&f.Company, p.Company)
	set(&f.Keyword, p.Keyword)
	if p.Action != nil {
		f.Action = Action(strings.ToUpper(strings.TrimSpace(string(*p.Action))))
	}
	return f
}

// Validate checks the date bounds and action of f.
func (f Filter) Validate() error {
	if f.DateFrom != "" && !IsDateKey(f.DateFrom) {
		return fmt.Errorf("%w: dateFrom %q is not YYYY-MM-DD", ErrInvalidFilter, f.DateFrom)
	}
	if f.DateTo != "" && !IsDateKey(f.DateTo) {
		return fmt.Errorf("%w: dateTo %q is not YYYY-MM-DD", ErrInvalidFilter, f.DateTo)
	}
	if f.Action != "" && f.Action != ActionAll && !f.Action.Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidFilter, f.Action)
	}
	return nil
}

func isAll(s string) bool {
	return s == "" || strings.EqualFold(s, string(ActionAll))
}

// Match reports whether e satisfies every predicate of f.
func (f Filter) Match(e Event) bool {
	if f.DateFrom != "" && (e.OccurredDateKey == "" || e.OccurredDateKey < f.DateFrom) {
		return false
	}
	if f.DateTo != "" && (e.OccurredDateKey == "" || e.OccurredDateKey > f.DateTo) {
		return false
	}
	if !isAll(string(f.Action)) && e.Action != f.Action {
		return false
	}
	if !isAll(f.EmployeeID) && e.HandlerID != f.EmployeeID {
		return false
	}
	if f.Rack != "" && !containsFold(e.FromRackLayer, f.Rack) && !containsFold(e.ToRackLayer, f.Rack) {
		return false
	}
	if f.Company != "" && !matchCompany(e, f.Company) {
		return false
	}
	if f.Keyword != "" && !containsFold(searchText(e), f.Keyword) {
		return false
	}
	return true
}

func matchCompany(e Event, q string) bool {
	for _, v := range []string{e.FromCompanyID, e.FromCompanyName, e.ToCompanyID, e.ToCompanyName} {
		if containsFold(v, q) {
			return true
		}
	}
	return false
}

// searchText is the haystack for keyword search.
func searchText(e Event) string {
	return strings.Join([]string{
		e.ItemID, e.ItemCode, e.ItemName,
		e.Notes, e.Handler,
		e.FromRackLayer, e.ToRackLayer,
		e.FromCompanyID, e.FromCompanyName, e.ToCompanyID, e.ToCompanyName,
		string(e.Action), string(e.Source),
	}, "\x00")
}

// ApplyFilters returns the events matching f in their original order. The
// input slice is not modified.
func ApplyFilters(events []Event, f Filter) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// SortKey names a sortable column.
type SortKey string

const (
	SortDate    SortKey = "date"
	SortItem    SortKey = "item"
	SortAction  SortKey = "action"
	SortFrom    SortKey = "from"
	SortTo      SortKey = "to"
	SortNotes   SortKey = "notes"
	SortHandler SortKey = "handler"
)

// SortKeys lists the accepted sort keys.
var SortKeys = []SortKey{SortDate, SortItem, SortAction, SortFrom, SortTo, SortNotes, SortHandler}

// ParseSortKey validates a sort key name.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range SortKeys {
		if k == v {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
}

// SortDir is the sort direction.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// ParseSortDir returns Asc for "asc" (any case) and Desc otherwise.
func ParseSortDir(s string) SortDir {
	if strings.EqualFold(strings.TrimSpace(s), string(Asc)) {
		return Asc
	}
	return Desc
}

// Sort is the sort state.
type Sort struct {
	Key SortKey `json:"key"`
	Dir SortDir `json:"dir"`
}

// DefaultSort orders newest first.
var DefaultSort = Sort{Key: SortDate, Dir: Desc}

// initialDir is the direction a key starts with when first selected.
func initialDir(k SortKey) SortDir {
	if k == SortDate {
		return Desc
	}
	return Asc
}

// Toggle returns the sort state after the user selects key.
func (s Sort) Toggle(key SortKey) Sort {
	if s.Key == key {
		if s.Dir == Asc {
			return Sort{Key: key, Dir: Desc}
		}
		return Sort{Key: key, Dir: Asc}
	}
	return Sort{Key: key, Dir: initialDir(key)}
}

// sortText is the display string compared for non-date keys.
func sortText(e Event, k SortKey) string {
	switch k {
	case SortItem:
		return e.ItemLabel()
	case SortAction:
		return string(e.Action)
	case SortFrom:
		return e.From()
	case SortTo:
		return e.To()
	case SortNotes:
		return e.Notes
	case SortHandler:
		return e.Handler
	}
	return ""
}

func compareEvents(a, b Event, k SortKey) int {
	if k == SortDate || k == "" {
		switch {
		case a.OccurredTime.Before(b.OccurredTime):
			return -1
		case a.OccurredTime.After(b.OccurredTime):
			return 1
		}
		return 0
	}
	return strings.Compare(foldForSearch(sortText(a, k)), foldForSearch(sortText(b, k)))
}

// SortEvents returns a sorted copy of events. Equal keys keep their input
// order. Unknown keys sort by date.
func SortEvents(events []Event, s Sort) []Event {
	out := make([]Event, len(events))
	copy(out, events)

	key := s.Key
	if _, err := ParseSortKey(string(key)); err != nil {
		key = SortDate
	}
	desc := s.Dir != Asc
	sort.SliceStable(out, func(i, j int) bool {
		c := compareEvents(out[i], out[j], key)
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// Page is one page of a sequence.
type Page struct {
	Items       []Event
	TotalCount  int
	TotalPages  int
	CurrentPage int
	PageSize    int
}

// Paginate slices events into pages of size. TotalPages is at least one and
// page is clamped to [1, TotalPages].
func Paginate(events []Event, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	n := len(events)
	totalPages := (n + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * size
	end := start + size
	if start > n {
		start = n
	}
	if end > n {
		end = n
	}

	return Page{
		Items:       events[start:end:end],
		TotalCount:  n,
		TotalPages:  totalPages,
		CurrentPage: page,
		PageSize:    size,
	}
}

// Aggregate counts events per bucket. Audit, move and in/out buckets are
// disjoint so their sum never exceeds Total.
func Aggregate(events []Event) Aggregates {
	a := Aggregates{Total: len(events)}
	for _, e := range events {
		switch e.Action {
		case ActionAudit:
			a.AuditCount++
		case ActionLocationChange, ActionShipMove:
			a.MoveCount++
		case ActionCheckIn, ActionCheckOut, ActionShipIn, ActionShipOut:
			a.InOutCount++
		default:
			a.OtherCount++
		}
	}
	return a
}

// Query is a complete filter/sort/page request.
type Query struct {
	Filter   Filter
	Sort     Sort
	Page     int
	PageSize int
}

// PageResult is everything a view needs to render one page.
type PageResult struct {
	Events      []Event    `json:"events"`
	TotalCount  int        `json:"totalCount"`
	TotalPages  int        `json:"totalPages"`
	CurrentPage int        `json:"currentPage"`
	PageSize    int        `json:"pageSize"`
	Aggregates  Aggregates `json:"aggregates"`
	Filter      Filter     `json:"filter"`
	Sort        Sort       `json:"sort"`
	Status      Status     `json:"status"`

	// Empty is true when the load succeeded but nothing matched the filter.
	Empty   bool   `json:"empty"`
	Message string `json:"message,omitempty"`
}

// Execute filters, sorts and paginates events for q.
func Execute(events []Event, status Status, q Query) PageResult {
	if q.Sort.Key == "" {
		q.Sort = DefaultSort
	}
	filtered := SortEvents(ApplyFilters(events, q.Filter), q.Sort)
	page := Paginate(filtered, q.Page, q.PageSize)

	res := PageResult{
		Events:      page.Items,
		TotalCount:  page.TotalCount,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
		PageSize:    page.PageSize,
		Aggregates:  Aggregate(filtered),
		Filter:      q.Filter,
		Sort:        q.Sort,
		Status:      status,
	}
	switch {
	case status.State == StateFailed && len(events) == 0:
		res.Message = status.Message
	case status.State == StateLoading && len(events) == 0:
		res.Message = MsgLoading
	case page.TotalCount == 0 && status.State != StateLoading && status.State != StateIdle:
		res.Empty = true
		res.Message = MsgNoMatches
	}
	return res
}
