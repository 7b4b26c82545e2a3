// Package table holds the in-memory tabular model shared by every pipeline
// stage. A Table is a fully materialized frame: ordered column names plus
// row-major cells. The transform operates on whole tables at once; nothing
// here streams or chunks.
package table

import "fmt"

type Table struct {
	Columns []string
	Rows    [][]any
}

func New(columns ...string) Table {
	return Table{Columns: columns, Rows: [][]any{}}
}

func (t Table) NumRows() int {
	return len(t.Rows)
}

func (t Table) NumColumns() int {
	return len(t.Columns)
}

// ColumnIndex returns the position of the named column, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, col), nil when the row is ragged and
// shorter than col.
func (t Table) Cell(row, col int) any {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return nil
	}
	r := t.Rows[row]
	if col >= len(r) {
		return nil
	}
	return r[col]
}

func (t *Table) AppendRow(row []any) {
	t.Rows = append(t.Rows, row)
}

// Slice returns a copy of rows [from, to) keeping the column layout.
// Bounds are clamped to the table.
func (t Table) Slice(from, to int) Table {
	if from < 0 {
		from = 0
	}
	if to > len(t.Rows) {
		to = len(t.Rows)
	}
	out := Table{Columns: append([]string(nil), t.Columns...)}
	if from >= to {
		out.Rows = [][]any{}
		return out
	}
	out.Rows = make([][]any, 0, to-from)
	for _, r := range t.Rows[from:to] {
		out.Rows = append(out.Rows, append([]any(nil), r...))
	}
	return out
}

// Select projects the named columns, in the given order. Unknown columns are
// an error: selection is always against a source whose shape we claim to know.
func (t Table) Select(names ...string) (Table, error) {
	idx := make([]int, 0, len(names))
	for _, name := range names {
		i := t.ColumnIndex(name)
		if i < 0 {
			return Table{}, fmt.Errorf("column %q not present in table", name)
		}
		idx = append(idx, i)
	}

	out := Table{Columns: append([]string(nil), names...), Rows: make([][]any, 0, len(t.Rows))}
	for ri := range t.Rows {
		row := make([]any, len(idx))
		for j, i := range idx {
			row[j] = t.Cell(ri, i)
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// Rename replaces column names by mapping; columns absent from the mapping
// keep their name.
func (t Table) Rename(mapping map[string]string) Table {
	out := Table{Columns: make([]string, len(t.Columns)), Rows: t.Rows}
	for i, c := range t.Columns {
		if renamed, ok := mapping[c]; ok {
			out.Columns[i] = renamed
		} else {
			out.Columns[i] = c
		}
	}
	return out
}

// WithColumns reassigns every column name positionally. The caller must pass
// exactly as many names as the table has columns.
func (t Table) WithColumns(names ...string) (Table, error) {
	if len(names) != len(t.Columns) {
		return Table{}, fmt.Errorf("expected %d columns, table has %d", len(names), len(t.Columns))
	}
	return Table{Columns: append([]string(nil), names...), Rows: t.Rows}, nil
}

// DropColumn removes the named column from the layout and every row.
// A no-op when the column does not exist.
func (t Table) DropColumn(name string) Table {
	i := t.ColumnIndex(name)
	if i < 0 {
		return t
	}
	out := Table{Columns: make([]string, 0, len(t.Columns)-1), Rows: make([][]any, 0, len(t.Rows))}
	out.Columns = append(out.Columns, t.Columns[:i]...)
	out.Columns = append(out.Columns, t.Columns[i+1:]...)
	for ri := range t.Rows {
		row := make([]any, 0, len(out.Columns))
		for ci := range t.Columns {
			if ci == i {
				continue
			}
			row = append(row, t.Cell(ri, ci))
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}
