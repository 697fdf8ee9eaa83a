package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	dashboard "github.com/sitewatch/sitewatch/components/dashboard"
)

// ErrEmptyDataset signals that a widget had no rows to export. Callers
// must not create a file in that case.
var ErrEmptyDataset = errors.New("export: dataset is empty")

// WriteDelimited serializes rows as CSV. The header is the key order of
// the first row; every later row emits its values in that same order.
// Nothing is written for an empty dataset.
func WriteDelimited(w io.Writer, rows []dashboard.Row) error {
	if len(rows) == 0 {
		return ErrEmptyDataset
	}
	columns := rows[0].Columns
	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	record := make([]string, len(columns))
	for i, row := range rows {
		for j, column := range columns {
			record[j] = formatCell(row.Value(column))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("export: write row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return nil
}

// formatCell renders one cell. json.Number keeps the backend's exact
// textual form.
func formatCell(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case json.Number:
		return value.String()
	case bool:
		return strconv.FormatBool(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	default:
		return fmt.Sprintf("%v", value)
	}
}
