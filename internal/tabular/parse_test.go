package tabular

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantHeader []string
		wantRows   []map[string]string
	}{
		{
			name:       "simple LF",
			input:      "MoldID,MoldCode\nM1,C-1\nM2,C-2\n",
			wantHeader: []string{"MoldID", "MoldCode"},
			wantRows: []map[string]string{
				{"MoldID": "M1", "MoldCode": "C-1"},
				{"MoldID": "M2", "MoldCode": "C-2"},
			},
		},
		{
			name:       "CRLF line endings",
			input:      "MoldID,MoldCode\r\nM1,C-1\r\n",
			wantHeader: []string{"MoldID", "MoldCode"},
			wantRows:   []map[string]string{{"MoldID": "M1", "MoldCode": "C-1"}},
		},
		{
			name:       "BOM on header",
			input:      "\ufeffMoldID,MoldCode\nM1,C-1\n",
			wantHeader: []string{"MoldID", "MoldCode"},
			wantRows:   []map[string]string{{"MoldID": "M1", "MoldCode": "C-1"}},
		},
		{
			name:       "blank lines dropped",
			input:      "MoldID,MoldCode\n\n   \nM1,C-1\n\n",
			wantHeader: []string{"MoldID", "MoldCode"},
			wantRows:   []map[string]string{{"MoldID": "M1", "MoldCode": "C-1"}},
		},
		{
			name:       "row of empty fields kept",
			input:      "StatusLogID,Status,AuditType,Notes\n,,,\n1,IN,,x\n",
			wantHeader: []string{"StatusLogID", "Status", "AuditType", "Notes"},
			wantRows: []map[string]string{
				{"StatusLogID": "", "Status": "", "AuditType": "", "Notes": ""},
				{"StatusLogID": "1", "Status": "IN", "AuditType": "", "Notes": "x"},
			},
		},
		{
			name:       "whitespace-only line in single column table dropped",
			input:      "ID\n1\n  \t\n2\n",
			wantHeader: []string{"ID"},
			wantRows:   []map[string]string{{"ID": "1"}, {"ID": "2"}},
		},
		{
			name:       "quoted delimiter and escaped quote",
			input:      "ID,Notes\n1,\"rack A, layer 2\"\n2,\"say \"\"hi\"\"\"\n",
			wantHeader: []string{"ID", "Notes"},
			wantRows: []map[string]string{
				{"ID": "1", "Notes": "rack A, layer 2"},
				{"ID": "2", "Notes": `say "hi"`},
			},
		},
		{
			name:       "embedded newline in quoted field",
			input:      "ID,Notes\n1,\"line one\nline two\"\n",
			wantHeader: []string{"ID", "Notes"},
			wantRows:   []map[string]string{{"ID": "1", "Notes": "line one\nline two"}},
		},
		{
			name:       "short row padded",
			input:      "A,B,C\n1\n",
			wantHeader: []string{"A", "B", "C"},
			wantRows:   []map[string]string{{"A": "1", "B": "", "C": ""}},
		},
		{
			name:       "header only is no data",
			input:      "A,B,C\n",
			wantHeader: []string{"A", "B", "C"},
		},
		{
			name:  "empty input",
			input: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if len(tt.wantHeader) == 0 && len(got.Header) != 0 {
				t.Fatalf("header = %v, want none", got.Header)
			}
			if len(tt.wantHeader) > 0 && !reflect.DeepEqual(got.Header, tt.wantHeader) {
				t.Errorf("header = %v, want %v", got.Header, tt.wantHeader)
			}
			if len(got.Records) != len(tt.wantRows) {
				t.Fatalf("got %d records, want %d", len(got.Records), len(tt.wantRows))
			}
			for i, want := range tt.wantRows {
				if m := got.Records[i].Map(); !reflect.DeepEqual(m, want) {
					t.Errorf("record %d = %v, want %v", i, m, want)
				}
			}
		})
	}
}

func TestRecordGet_CaseInsensitiveFallback(t *testing.T) {
	tbl := Parse("MoldID,notes\nM1,hello\n")
	rec := tbl.Records[0]

	if got := rec.Get("Notes"); got != "hello" {
		t.Errorf("Get(Notes) = %q, want %q", got, "hello")
	}
	if got := rec.Get("Missing"); got != "" {
		t.Errorf("Get(Missing) = %q, want empty", got)
	}
	if rec.Has("Missing") {
		t.Error("Has(Missing) = true, want false")
	}
}

func TestFormatRoundTrip(t *testing.T) {
	header := []string{"MoldID", "Notes", "Rack"}
	rows := [][]string{
		{"M1", "moved, then checked", "A-1"},
		{"M2", `quote "inside"`, ""},
		{"M3", " leading space", "B-2"},
	}

	var buf bytes.Buffer
	if err := Format(&buf, header, rows); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	got := Parse(buf.String())
	if !reflect.DeepEqual(got.Header, header) {
		t.Fatalf("header = %v, want %v", got.Header, header)
	}
	if len(got.Records) != len(rows) {
		t.Fatalf("got %d records, want %d", len(got.Records), len(rows))
	}
	for i, row := range rows {
		if vals := got.Records[i].Values(); !reflect.DeepEqual(vals, row) {
			t.Errorf("row %d = %q, want %q", i, vals, row)
		}
	}

	// A parsed table written back out is byte-identical.
	var again bytes.Buffer
	if err := FormatTable(&again, got); err != nil {
		t.Fatalf("FormatTable() error = %v", err)
	}
	if again.String() != buf.String() {
		t.Errorf("FormatTable() = %q, want %q", again.String(), buf.String())
	}
}

func TestParseReader_StripsBOMAndInvalidUTF8(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("ID,Name\n1,ab\xffc\n")...)
	tbl, err := ParseReader(bytes.NewReader(input))
	if err != nil {
		t.Fatalf("ParseReader() error = %v", err)
	}
	if tbl.Header[0] != "ID" {
		t.Errorf("header[0] = %q, want %q", tbl.Header[0], "ID")
	}
	if got := tbl.Records[0].Get("Name"); !strings.HasPrefix(got, "ab") || !strings.HasSuffix(got, "c") {
		t.Errorf("Name = %q, want sanitized value", got)
	}
}
