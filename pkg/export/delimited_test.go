package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	dashboard "github.com/sitewatch/sitewatch/components/dashboard"
)

func sampleRows() []dashboard.Row {
	return []dashboard.Row{
		{
			Columns: []string{"time", "clients"},
			Values:  map[string]any{"time": "2024-05-01 10:00", "clients": json.Number("12")},
		},
		{
			Columns: []string{"time", "clients"},
			Values:  map[string]any{"time": "2024-05-01 11:00", "clients": json.Number("15")},
		},
		{
			Columns: []string{"time", "clients"},
			Values:  map[string]any{"time": "2024-05-01 12:00", "clients": json.Number("9")},
		},
	}
}

func TestWriteDelimitedShape(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDelimited(&buf, sampleRows()); err != nil {
		t.Fatalf("WriteDelimited returned error: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected N+1 = 4 lines, got %d: %q", len(lines), lines)
	}
	if lines[0] != "time,clients" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "2024-05-01 10:00,12" {
		t.Fatalf("row 1 = %q", lines[1])
	}
	if lines[3] != "2024-05-01 12:00,9" {
		t.Fatalf("row 3 = %q", lines[3])
	}
}

func TestWriteDelimitedEmptyDatasetWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	err := WriteDelimited(&buf, nil)
	if !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("empty dataset produced output: %q", buf.String())
	}
}

func TestWriteDelimitedUsesFirstRowOrder(t *testing.T) {
	rows := []dashboard.Row{
		{Columns: []string{"name", "value"}, Values: map[string]any{"name": "good", "value": json.Number("30")}},
		// A later row with extra keys still serializes in row-0 order.
		{Columns: []string{"value", "name", "extra"}, Values: map[string]any{"name": "warning", "value": json.Number("5"), "extra": "x"}},
	}
	var buf bytes.Buffer
	if err := WriteDelimited(&buf, rows); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if lines[0] != "name,value" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[2] != "warning,5" {
		t.Fatalf("row 2 = %q", lines[2])
	}
}

func TestFormatCell(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"plain", "plain"},
		{json.Number("0.25"), "0.25"},
		{true, "true"},
		{float64(3), "3"},
		{42, "42"},
	}
	for _, tc := range cases {
		if got := formatCell(tc.in); got != tc.want {
			t.Fatalf("formatCell(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
