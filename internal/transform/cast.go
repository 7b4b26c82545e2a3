package transform

import (
	"fmt"
	"io"
	"log/slog"

	"ventasetl/internal"
	"ventasetl/internal/table"
	"ventasetl/internal/util"
)

// TypeCaster applies the final column typing pass. It is tolerant on
// non-critical columns (bad dates become nil, sites with bad ids are
// dropped) and strict on the fact table's type code, whose validity the
// reconciler already guaranteed. Casting is idempotent: already-typed cells
// pass through untouched.
type TypeCaster struct {
	logger *slog.Logger
}

func NewTypeCaster(logger *slog.Logger) *TypeCaster {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &TypeCaster{logger: logger}
}

// Sites drops rows whose id is null or non-numeric and casts the id to an
// integer. Never fails.
func (c *TypeCaster) Sites(sites table.Table) (table.Table, []internal.Warning) {
	idIdx := sites.ColumnIndex(internal.ColSiteID)
	out := table.Table{Columns: append([]string(nil), sites.Columns...), Rows: make([][]any, 0, sites.NumRows())}
	dropped := 0
	for i := range sites.Rows {
		cell := sites.Cell(i, idIdx)
		id, ok := util.ToInt(cell)
		if util.IsNull(cell) || !ok {
			dropped++
			continue
		}
		row := append([]any(nil), sites.Rows[i]...)
		row[idIdx] = id
		out.AppendRow(row)
	}

	var warnings []internal.Warning
	if dropped > 0 {
		msg := fmt.Sprintf("dropped %d site rows with null or non-numeric id", dropped)
		c.logger.Warn("site catalog rows dropped during cast", slog.Int("dropped", dropped))
		warnings = append(warnings, internal.Warning{Stage: internal.StageCast, Message: msg})
	}
	return out, warnings
}

// Clients parses the affiliation and first-transaction dates; unparsable
// values become nil.
func (c *TypeCaster) Clients(clients table.Table) table.Table {
	return c.castDates(clients, internal.ColAffiliationDate, internal.ColFirstTxDate)
}

// Facts parses the transaction timestamp (nil on failure), coerces the
// amount and fee to floats and casts the type code to an integer. The code
// column was pre-validated by the reconciler, so a failure there means a
// structurally broken table and is fatal to the whole transform.
func (c *TypeCaster) Facts(facts table.Table) (table.Table, error) {
	out := c.castDates(facts, internal.ColTxDate)
	out = c.castFloats(out, internal.ColTxAmount, internal.ColTxFee)

	typeIdx := out.ColumnIndex(internal.ColTxTypeID)
	if typeIdx < 0 {
		return table.Table{}, fmt.Errorf("fact table has no %s column", internal.ColTxTypeID)
	}
	for i := range out.Rows {
		code, ok := util.ToInt(out.Cell(i, typeIdx))
		if !ok {
			return table.Table{}, fmt.Errorf("fact row %d: transaction-type code %v is not an integer", i, out.Cell(i, typeIdx))
		}
		out.Rows[i][typeIdx] = code
	}
	return out, nil
}

// castFloats coerces numeric columns to float64; unparsable values become
// nil so the warehouse sees an explicit null instead of a string.
func (c *TypeCaster) castFloats(t table.Table, columns ...string) table.Table {
	idx := make([]int, 0, len(columns))
	for _, name := range columns {
		idx = append(idx, t.ColumnIndex(name))
	}
	for i := range t.Rows {
		for _, ci := range idx {
			if ci < 0 || ci >= len(t.Rows[i]) {
				continue
			}
			if parsed, ok := util.ToFloat(t.Rows[i][ci]); ok {
				t.Rows[i][ci] = parsed
			} else {
				t.Rows[i][ci] = nil
			}
		}
	}
	return t
}

func (c *TypeCaster) castDates(t table.Table, columns ...string) table.Table {
	out := table.Table{Columns: append([]string(nil), t.Columns...), Rows: make([][]any, 0, t.NumRows())}
	idx := make([]int, 0, len(columns))
	for _, name := range columns {
		idx = append(idx, t.ColumnIndex(name))
	}
	for i := range t.Rows {
		row := append([]any(nil), t.Rows[i]...)
		for _, ci := range idx {
			if ci < 0 || ci >= len(row) {
				continue
			}
			if parsed, ok := util.ParseDate(row[ci]); ok {
				row[ci] = parsed
			} else {
				row[ci] = nil
			}
		}
		out.AppendRow(row)
	}
	return out
}
