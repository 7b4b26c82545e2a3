package extract

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"ventasetl/internal/table"
)

// ExtractJSON reads an array of flat objects into a table. Column order is
// the sorted union of keys across every record; downstream selection is by
// name, so the order only needs to be deterministic.
func ExtractJSON(path string, logger *slog.Logger) (table.Table, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return table.Table{}, fmt.Errorf("read json source %s: %w", path, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(blob, &records); err != nil {
		return table.Table{}, fmt.Errorf("parse json source %s: %w", path, err)
	}

	keySet := map[string]struct{}{}
	for _, rec := range records {
		for k := range rec {
			keySet[k] = struct{}{}
		}
	}
	columns := make([]string, 0, len(keySet))
	for k := range keySet {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	out := table.Table{Columns: columns, Rows: make([][]any, 0, len(records))}
	for _, rec := range records {
		row := make([]any, len(columns))
		for i, col := range columns {
			row[i] = rec[col]
		}
		out.AppendRow(row)
	}

	if logger != nil {
		logger.Info("json source extracted", slog.Int("records", out.NumRows()))
	}
	return out, nil
}
