package transform

import (
	"fmt"
	"io"
	"log/slog"

	"ventasetl/internal"
	"ventasetl/internal/table"
	"ventasetl/internal/util"
)

// PlaceholderTypeDesc is the description given to transaction-type rows
// synthesized for codes the source catalog never declared.
const PlaceholderTypeDesc = "Unknown type (system-generated)"

// txTypeColumn is the position of the type code in the raw transactions
// sheet (see facts.go for the full positional contract).
const txTypeColumn = 2

// Reconciler repairs referential integrity between the fact rows and the
// transaction-type catalog. Fact rows are never rejected: codes they
// reference that are missing from the catalog get a placeholder row instead.
type Reconciler struct {
	logger *slog.Logger
}

func NewReconciler(logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reconciler{logger: logger}
}

// Reconcile returns the repaired catalog: original rows first (minus rows
// whose code was null or non-numeric, with the code cast to int64), then one
// synthesized row per orphaned code in first-encountered transaction order.
func (r *Reconciler) Reconcile(txTypes, transactions table.Table) (table.Table, []internal.Warning) {
	// Distinct codes referenced by the fact rows, in first-seen order.
	referenced := make([]int64, 0)
	seen := map[int64]struct{}{}
	for i := range transactions.Rows {
		code, ok := util.ToInt(transactions.Cell(i, txTypeColumn))
		if !ok {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		referenced = append(referenced, code)
	}

	out := table.New(internal.ColTxTypeID, internal.ColTxTypeDesc)
	present := map[int64]struct{}{}
	codeIdx := txTypes.ColumnIndex(internal.ColTxTypeID)
	descIdx := txTypes.ColumnIndex(internal.ColTxTypeDesc)
	for i := range txTypes.Rows {
		cell := txTypes.Cell(i, codeIdx)
		if util.IsNull(cell) {
			continue
		}
		code, ok := util.ToInt(cell)
		if !ok {
			continue
		}
		present[code] = struct{}{}
		out.AppendRow([]any{code, txTypes.Cell(i, descIdx)})
	}

	missing := make([]int64, 0)
	for _, code := range referenced {
		if _, ok := present[code]; ok {
			continue
		}
		missing = append(missing, code)
		out.AppendRow([]any{code, PlaceholderTypeDesc})
	}

	var warnings []internal.Warning
	if len(missing) > 0 {
		msg := fmt.Sprintf("orphaned transaction-type codes %v not in catalog, placeholder rows synthesized", missing)
		r.logger.Warn("referential integrity repaired", slog.Any("codes", missing))
		warnings = append(warnings, internal.Warning{Stage: internal.StageReconcile, Message: msg})
	}

	return out, warnings
}
