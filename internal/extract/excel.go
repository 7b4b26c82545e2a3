// Package extract turns the raw source files (Excel workbook sheets, the
// recommendations JSON, optionally fetched from Google Drive first) into
// in-memory tables for the transform.
package extract

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xuri/excelize/v2"

	"ventasetl/internal/table"
)

// ExtractSheet reads a worksheet whose first row is a trusted header.
func ExtractSheet(path, sheet string, logger *slog.Logger) (table.Table, error) {
	rows, err := readSheetRows(path, sheet)
	if err != nil {
		return table.Table{}, err
	}
	if len(rows) == 0 {
		return table.Table{}, fmt.Errorf("sheet %q is empty", sheet)
	}

	out := table.Table{Columns: rows[0], Rows: make([][]any, 0, len(rows)-1)}
	wide := 0
	for _, row := range rows[1:] {
		if len(row) > len(out.Columns) {
			wide++
		}
		out.AppendRow(toCells(row, len(out.Columns)))
	}
	if wide > 0 && logger != nil {
		logger.Warn("rows wider than the header were truncated",
			slog.String("sheet", sheet), slog.Int("rows", wide), slog.Int("headerWidth", len(out.Columns)))
	}
	logSheet(logger, sheet, out.NumRows())
	return out, nil
}

// ExtractSheetRaw reads a worksheet without trusting any header: every row
// is data and columns get synthetic names. The mixed "Varios" catalog needs
// this, its sentinel rows are part of the payload.
func ExtractSheetRaw(path, sheet string, logger *slog.Logger) (table.Table, error) {
	rows, err := readSheetRows(path, sheet)
	if err != nil {
		return table.Table{}, err
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	columns := make([]string, width)
	for i := range columns {
		columns[i] = "col_" + strconv.Itoa(i+1)
	}

	out := table.Table{Columns: columns, Rows: make([][]any, 0, len(rows))}
	for _, row := range rows {
		out.AppendRow(toCells(row, width))
	}
	logSheet(logger, sheet, out.NumRows())
	return out, nil
}

func readSheetRows(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// toCells pads a ragged spreadsheet row to the table width, turning empty
// cells into explicit nulls.
func toCells(row []string, width int) []any {
	out := make([]any, width)
	for i := 0; i < width; i++ {
		if i < len(row) && row[i] != "" {
			out[i] = row[i]
		}
	}
	return out
}

func logSheet(logger *slog.Logger, sheet string, rows int) {
	if logger == nil {
		return
	}
	logger.Info("sheet extracted", slog.String("sheet", sheet), slog.Int("rows", rows))
}
