package backup

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// RenderCSV writes a header row followed by one row per record. Rows are
// separated by a bare newline and no trailing newline follows the last row.
// The header is written even when rows is empty.
func RenderCSV[T any](columns []Column[T], rows []T) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	record := make([]string, len(columns))
	for i, c := range columns {
		record[i] = c.Header
	}
	if err := w.Write(record); err != nil {
		return "", fmt.Errorf("writing header: %w", err)
	}

	for n, row := range rows {
		for i, c := range columns {
			record[i] = c.Value(row)
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("writing row %d: %w", n, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing csv: %w", err)
	}

	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}
