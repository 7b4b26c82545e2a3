package transform

import (
	"strings"
	"testing"

	"ventasetl/internal"
	"ventasetl/internal/table"
)

func mixedTable(rows ...[]any) table.Table {
	t := table.New("col_1", "col_2")
	for _, row := range rows {
		t.AppendRow(row)
	}
	return t
}

func TestSplitTwoSentinels(t *testing.T) {
	mixed := mixedTable(
		[]any{"ID", "x"},
		[]any{1, "Site A"},
		[]any{2, "Site B"},
		[]any{"ID", "y"},
		[]any{10, "Cash"},
		[]any{20, "Card"},
	)

	s := NewSplitter("ID", 2, nil)
	sites, txTypes, warnings := s.Split(mixed)

	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	if sites.NumRows() != 2 || txTypes.NumRows() != 2 {
		t.Fatalf("sites=%d types=%d", sites.NumRows(), txTypes.NumRows())
	}
	if sites.Columns[0] != internal.ColSiteID || sites.Columns[1] != internal.ColSiteName {
		t.Fatalf("site columns: %v", sites.Columns)
	}
	if got := sites.Cell(0, 1); got != "Site A" {
		t.Fatalf("sites[0]=%v", got)
	}
	if got := txTypes.Cell(1, 1); got != "Card" {
		t.Fatalf("types[1]=%v", got)
	}
	// No row loss: every input row is a sentinel or lands in one catalog.
	if sites.NumRows()+txTypes.NumRows()+2 != mixed.NumRows() {
		t.Fatalf("row accounting broken")
	}
}

func TestSplitConfigurableCutOrdinal(t *testing.T) {
	mixed := mixedTable(
		[]any{"ID", "x"},
		[]any{1, "Site A"},
		[]any{"ID", "y"},
		[]any{2, "Site B"},
		[]any{"ID", "z"},
		[]any{10, "Cash"},
	)

	s := NewSplitter("ID", 3, nil)
	sites, txTypes, warnings := s.Split(mixed)

	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	// Cutting at the third sentinel keeps everything before it (minus the
	// leading sentinel) on the sites side.
	if sites.NumRows() != 3 {
		t.Fatalf("sites=%d", sites.NumRows())
	}
	if txTypes.NumRows() != 1 || txTypes.Cell(0, 1) != "Cash" {
		t.Fatalf("types=%+v", txTypes.Rows)
	}
}

func TestSplitFewerSentinelsThanCutOrdinal(t *testing.T) {
	mixed := mixedTable(
		[]any{"ID", "x"},
		[]any{1, "Site A"},
		[]any{"ID", "y"},
		[]any{10, "Cash"},
	)

	s := NewSplitter("ID", 3, nil)
	sites, txTypes, warnings := s.Split(mixed)

	// Falls back to the last sentinel, does not degrade to empty catalogs.
	if sites.NumRows() != 1 || sites.Cell(0, 1) != "Site A" {
		t.Fatalf("sites=%+v", sites.Rows)
	}
	if txTypes.NumRows() != 1 || txTypes.Cell(0, 1) != "Cash" {
		t.Fatalf("types=%+v", txTypes.Rows)
	}
	if len(warnings) != 1 || warnings[0].Stage != internal.StageSplit {
		t.Fatalf("warnings=%+v", warnings)
	}
	if !strings.Contains(warnings[0].Message, "fewer than cut ordinal 3") {
		t.Fatalf("warning must name the degraded layout, got %q", warnings[0].Message)
	}
}

func TestSplitZeroSentinels(t *testing.T) {
	mixed := mixedTable([]any{1, "a"}, []any{2, "b"})

	s := NewSplitter("ID", 2, nil)
	sites, txTypes, warnings := s.Split(mixed)

	if sites.NumRows() != 0 || txTypes.NumRows() != 0 {
		t.Fatalf("expected empty catalogs, got sites=%d types=%d", sites.NumRows(), txTypes.NumRows())
	}
	if sites.Columns[0] != internal.ColSiteID || txTypes.Columns[0] != internal.ColTxTypeID {
		t.Fatalf("empty catalogs must keep canonical columns")
	}
	if len(warnings) != 1 || warnings[0].Stage != internal.StageSplit {
		t.Fatalf("warnings=%+v", warnings)
	}
}

func TestSplitSingleSentinelAtTop(t *testing.T) {
	mixed := mixedTable([]any{"ID", "x"}, []any{1, "Site A"}, []any{2, "Site B"})

	s := NewSplitter("ID", 2, nil)
	sites, txTypes, warnings := s.Split(mixed)

	if sites.NumRows() != 2 {
		t.Fatalf("sites=%d", sites.NumRows())
	}
	if txTypes.NumRows() != 0 {
		t.Fatalf("types=%d", txTypes.NumRows())
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings=%+v", warnings)
	}
}

func TestSplitSingleSentinelMidTable(t *testing.T) {
	mixed := mixedTable([]any{1, "Site A"}, []any{"ID", "y"}, []any{10, "Cash"})

	s := NewSplitter("ID", 2, nil)
	sites, txTypes, _ := s.Split(mixed)

	if sites.NumRows() != 1 || sites.Cell(0, 1) != "Site A" {
		t.Fatalf("sites=%+v", sites.Rows)
	}
	if txTypes.NumRows() != 1 || txTypes.Cell(0, 1) != "Cash" {
		t.Fatalf("types=%+v", txTypes.Rows)
	}
}

func TestSplitEmptyInput(t *testing.T) {
	s := NewSplitter("ID", 2, nil)
	sites, txTypes, warnings := s.Split(table.New("col_1", "col_2"))

	if sites.NumRows() != 0 || txTypes.NumRows() != 0 || len(warnings) != 1 {
		t.Fatalf("sites=%d types=%d warnings=%d", sites.NumRows(), txTypes.NumRows(), len(warnings))
	}
}
