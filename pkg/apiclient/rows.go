package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"

	dashboard "github.com/sitewatch/sitewatch/components/dashboard"
)

// decodeRows decodes a JSON array of objects into rows that remember the
// key order each object was emitted with. encoding/json maps lose that
// order, and delimited exports must reproduce the backend's column
// order, so the array is walked token by token instead.
func decodeRows(data []byte) ([]dashboard.Row, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []dashboard.Row{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("apiclient: decode rows: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("apiclient: decode rows: expected array, got %v", tok)
	}

	rows := []dashboard.Row{}
	for dec.More() {
		row, err := decodeRow(dec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("apiclient: decode rows: %w", err)
	}
	return rows, nil
}

func decodeRow(dec *json.Decoder) (dashboard.Row, error) {
	tok, err := dec.Token()
	if err != nil {
		return dashboard.Row{}, fmt.Errorf("apiclient: decode row: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return dashboard.Row{}, fmt.Errorf("apiclient: decode row: expected object, got %v", tok)
	}

	row := dashboard.Row{Values: map[string]any{}}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return dashboard.Row{}, fmt.Errorf("apiclient: decode row key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return dashboard.Row{}, fmt.Errorf("apiclient: decode row key: got %v", keyTok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return dashboard.Row{}, fmt.Errorf("apiclient: decode row value %q: %w", key, err)
		}
		row.Columns = append(row.Columns, key)
		row.Values[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return dashboard.Row{}, fmt.Errorf("apiclient: decode row: %w", err)
	}
	return row, nil
}
