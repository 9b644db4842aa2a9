package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/JonMunkholm/moldhistory/internal/history"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 64 << 10

// parseIntParam parses a positive integer query parameter.
func parseIntParam(q url.Values, name string, defaultVal int) int {
	val := q.Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseQuery reads a stateless history query from URL parameters:
// dateFrom, dateTo, action, employee, rack, company, q, sort, dir, page.
func parseQuery(q url.Values, pageSize int) (history.Query, error) {
	f := history.Filter{
		DateFrom:   strings.TrimSpace(q.Get("dateFrom")),
		DateTo:     strings.TrimSpace(q.Get("dateTo")),
		Action:     history.Action(strings.ToUpper(strings.TrimSpace(q.Get("action")))),
		EmployeeID: strings.TrimSpace(q.Get("employee")),
		Rack:       strings.TrimSpace(q.Get("rack")),
		Company:    strings.TrimSpace(q.Get("company")),
		Keyword:    strings.TrimSpace(q.Get("q")),
	}
	if err := f.Validate(); err != nil {
		return history.Query{}, err
	}

	sort := history.DefaultSort
	if key := q.Get("sort"); key != "" {
		k, err := history.ParseSortKey(key)
		if err != nil {
			return history.Query{}, err
		}
		sort = history.Sort{Key: k, Dir: history.ParseSortDir(q.Get("dir"))}
	}

	return history.Query{
		Filter:   f,
		Sort:     sort,
		Page:     parseIntParam(q, "page", 1),
		PageSize: parseIntParam(q, "pageSize", pageSize),
	}, nil
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

type sortRequest struct {
	Key string `json:"key"`
}

type pageRequest struct {
	Page int `json:"page"`
}

// jsonBody reports whether the request body is JSON. htmx posts forms.
func jsonBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}
	return nil
}

// readFilterPatch reads a FilterPatch from a JSON or form body. Form fields
// that are absent stay nil.
func readFilterPatch(w http.ResponseWriter, r *http.Request) (history.FilterPatch, error) {
	var p history.FilterPatch
	if jsonBody(r) {
		return p, decodeJSON(w, r, &p)
	}
	if err := parseForm(w, r); err != nil {
		return p, err
	}
	field := func(name string) *string {
		if _, ok := r.PostForm[name]; !ok {
			return nil
		}
		v := r.PostForm.Get(name)
		return &v
	}
	p.DateFrom = field("dateFrom")
	p.DateTo = field("dateTo")
	p.EmployeeID = field("employeeId")
	p.Rack = field("rack")
	p.Company = field("company")
	p.Keyword = field("keyword")
	if v := field("action"); v != nil {
		a := history.Action(*v)
		p.Action = &a
	}
	return p, nil
}

func readSortRequest(w http.ResponseWriter, r *http.Request) (sortRequest, error) {
	var req sortRequest
	if jsonBody(r) {
		return req, decodeJSON(w, r, &req)
	}
	if err := parseForm(w, r); err != nil {
		return req, err
	}
	req.Key = r.PostForm.Get("key")
	return req, nil
}

func readPageRequest(w http.ResponseWriter, r *http.Request) (pageRequest, error) {
	var req pageRequest
	if jsonBody(r) {
		return req, decodeJSON(w, r, &req)
	}
	if err := parseForm(w, r); err != nil {
		return req, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("page")))
	if err != nil {
		return req, fmt.Errorf("%w: %q", errInvalidPage, r.PostForm.Get("page"))
	}
	req.Page = n
	return req, nil
}
