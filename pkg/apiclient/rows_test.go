package apiclient

import (
	"encoding/json"
	"testing"
)

func TestDecodeRowsKeepsKeyOrder(t *testing.T) {
	rows, err := decodeRows([]byte(`[
		{"zulu":1,"alpha":"x","mike":true},
		{"zulu":2,"alpha":"y","mike":false}
	]`))
	if err != nil {
		t.Fatalf("decodeRows returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	want := []string{"zulu", "alpha", "mike"}
	for i, col := range rows[0].Columns {
		if col != want[i] {
			t.Fatalf("column %d = %q, want %q", i, col, want[i])
		}
	}
	if rows[1].Value("alpha") != "y" {
		t.Fatalf("value lookup failed: %#v", rows[1])
	}
}

func TestDecodeRowsNumbersStayExact(t *testing.T) {
	rows, err := decodeRows([]byte(`[{"clients":12,"ratio":0.25}]`))
	if err != nil {
		t.Fatal(err)
	}
	if got := rows[0].Value("clients").(json.Number).String(); got != "12" {
		t.Fatalf("integer reformatted: %q", got)
	}
	if got := rows[0].Value("ratio").(json.Number).String(); got != "0.25" {
		t.Fatalf("float reformatted: %q", got)
	}
}

func TestDecodeRowsNullAndEmpty(t *testing.T) {
	for _, input := range []string{"null", "", "[]"} {
		rows, err := decodeRows([]byte(input))
		if err != nil {
			t.Fatalf("input %q: %v", input, err)
		}
		if rows == nil || len(rows) != 0 {
			t.Fatalf("input %q: expected empty rows, got %#v", input, rows)
		}
	}
}

func TestDecodeRowsRejectsNonArray(t *testing.T) {
	if _, err := decodeRows([]byte(`{"detail":"oops"}`)); err == nil {
		t.Fatalf("object accepted as row array")
	}
	if _, err := decodeRows([]byte(`[{"a":1},`)); err == nil {
		t.Fatalf("truncated array accepted")
	}
}

func TestDecodeRowsNestedValues(t *testing.T) {
	rows, err := decodeRows([]byte(`[{"name":"good","meta":{"severity":1},"tags":["a","b"]}]`))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows[0].Columns) != 3 {
		t.Fatalf("nested values broke key walk: %v", rows[0].Columns)
	}
}
