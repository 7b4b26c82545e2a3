package transform

import (
	"fmt"

	"ventasetl/internal"
	"ventasetl/internal/table"
)

// factSchema is the positional contract of the raw transactions sheet.
// Source headers are never trusted; only column order is. The mapping is
// validated against the actual column count so a reordered or truncated
// upstream sheet fails loudly instead of silently mislabeling data.
var factSchema = []string{
	internal.ColClientID,
	internal.ColTxDate,
	internal.ColTxTypeID,
	internal.ColTxID,
	internal.ColTxAmount,
	internal.ColTxFee,
	internal.ColSiteID,
}

// BuildFacts reassigns the seven positional transaction columns to their
// canonical names.
func BuildFacts(transactions table.Table) (table.Table, error) {
	if transactions.NumColumns() != len(factSchema) {
		return table.Table{}, fmt.Errorf(
			"transactions sheet has %d columns, positional schema expects %d",
			transactions.NumColumns(), len(factSchema))
	}
	return transactions.WithColumns(factSchema...)
}
