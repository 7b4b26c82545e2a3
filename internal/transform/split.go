package transform

import (
	"fmt"
	"io"
	"log/slog"

	"ventasetl/internal"
	"ventasetl/internal/table"
	"ventasetl/internal/util"
)

// Splitter cuts the mixed "Varios" sheet into the sites catalog and the
// transaction-type catalog. The sheet carries two concatenated two-column
// catalogs, each introduced by a sentinel row whose first cell equals
// Sentinel. CutSentinel is the 1-based ordinal of the sentinel that marks
// the boundary between the catalogs; the upstream sheet puts a sentinel at
// the top of each catalog, so 2 is the boundary of a well-formed file.
type Splitter struct {
	Sentinel    string
	CutSentinel int
	logger      *slog.Logger
}

func NewSplitter(sentinel string, cutSentinel int, logger *slog.Logger) *Splitter {
	if sentinel == "" {
		sentinel = "ID"
	}
	if cutSentinel < 2 {
		cutSentinel = 2
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Splitter{Sentinel: sentinel, CutSentinel: cutSentinel, logger: logger}
}

// Split never fails: a malformed sheet degrades the catalogs and produces
// warnings, it does not abort the run.
func (s *Splitter) Split(mixed table.Table) (sites, txTypes table.Table, warnings []internal.Warning) {
	sentinels := []int{}
	for i := range mixed.Rows {
		if util.ToString(mixed.Cell(i, 0)) == s.Sentinel {
			sentinels = append(sentinels, i)
		}
	}

	switch {
	case len(sentinels) >= s.CutSentinel:
		cut := sentinels[s.CutSentinel-1]
		sites = twoColumns(mixed.Slice(1, cut), internal.ColSiteID, internal.ColSiteName)
		txTypes = twoColumns(mixed.Slice(cut+1, mixed.NumRows()), internal.ColTxTypeID, internal.ColTxTypeDesc)

	case len(sentinels) >= 2:
		// Fewer sentinels than the configured cut ordinal: fall back to the
		// last one so both catalogs still come out.
		cut := sentinels[len(sentinels)-1]
		msg := fmt.Sprintf("mixed catalog has %d %q sentinels, fewer than cut ordinal %d, splitting at the last one",
			len(sentinels), s.Sentinel, s.CutSentinel)
		s.logger.Warn("mixed catalog layout degraded",
			slog.Int("sentinels", len(sentinels)), slog.Int("cutSentinel", s.CutSentinel))
		warnings = append(warnings, internal.Warning{Stage: internal.StageSplit, Message: msg})
		sites = twoColumns(mixed.Slice(1, cut), internal.ColSiteID, internal.ColSiteName)
		txTypes = twoColumns(mixed.Slice(cut+1, mixed.NumRows()), internal.ColTxTypeID, internal.ColTxTypeDesc)

	case len(sentinels) == 1:
		cut := sentinels[0]
		msg := fmt.Sprintf("mixed catalog has a single %q sentinel at row %d, applying fallback split", s.Sentinel, cut)
		s.logger.Warn("mixed catalog layout degraded", slog.Int("sentinelRow", cut))
		warnings = append(warnings, internal.Warning{Stage: internal.StageSplit, Message: msg})
		if cut == 0 {
			// Sentinel on the first row: assume the second catalog is absent.
			sites = twoColumns(mixed.Slice(1, mixed.NumRows()), internal.ColSiteID, internal.ColSiteName)
			txTypes = table.New(internal.ColTxTypeID, internal.ColTxTypeDesc)
		} else {
			sites = twoColumns(mixed.Slice(0, cut), internal.ColSiteID, internal.ColSiteName)
			txTypes = twoColumns(mixed.Slice(cut+1, mixed.NumRows()), internal.ColTxTypeID, internal.ColTxTypeDesc)
		}

	default:
		msg := fmt.Sprintf("mixed catalog has no %q sentinel rows, emitting empty catalogs", s.Sentinel)
		s.logger.Warn("mixed catalog layout not recognized")
		warnings = append(warnings, internal.Warning{Stage: internal.StageSplit, Message: msg})
		sites = table.New(internal.ColSiteID, internal.ColSiteName)
		txTypes = table.New(internal.ColTxTypeID, internal.ColTxTypeDesc)
	}

	return sites, txTypes, warnings
}

// twoColumns reshapes a slice of the mixed sheet into a two-column catalog,
// padding ragged rows with nil and dropping any surplus columns.
func twoColumns(t table.Table, idName, valueName string) table.Table {
	out := table.New(idName, valueName)
	for i := range t.Rows {
		out.AppendRow([]any{t.Cell(i, 0), t.Cell(i, 1)})
	}
	return out
}
