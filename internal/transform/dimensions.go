package transform

import (
	"fmt"

	"ventasetl/internal"
	"ventasetl/internal/table"
	"ventasetl/internal/util"
)

// JoinPolicy decides what happens when one client has several recommendation
// rows. The upstream feed is supposed to carry at most one per client; when
// it does not, the policy makes the outcome deliberate instead of silently
// amplifying rows.
type JoinPolicy string

const (
	// JoinKeepFirst deduplicates the recommendation side before the merge,
	// keeping the first row per client id. Default.
	JoinKeepFirst JoinPolicy = "keep_first"
	// JoinKeepAll keeps every match, duplicating the client row per match.
	JoinKeepAll JoinPolicy = "keep_all"
)

func ParseJoinPolicy(v string) (JoinPolicy, error) {
	switch JoinPolicy(v) {
	case JoinKeepFirst, "":
		return JoinKeepFirst, nil
	case JoinKeepAll:
		return JoinKeepAll, nil
	default:
		return "", fmt.Errorf("unsupported join policy: %s", v)
	}
}

// DimensionBuilder assembles the distributor and client dimensions from the
// base client roll and the JSON-sourced recommendations feed.
type DimensionBuilder struct {
	Policy JoinPolicy
}

func NewDimensionBuilder(policy JoinPolicy) *DimensionBuilder {
	if policy == "" {
		policy = JoinKeepFirst
	}
	return &DimensionBuilder{Policy: policy}
}

// Distributors projects the distributor columns out of the recommendations
// feed and deduplicates by distributor id, keeping the first row seen.
func (b *DimensionBuilder) Distributors(recommendations table.Table) (table.Table, error) {
	projected, err := recommendations.Select(internal.SrcDistributorID, internal.SrcDistributorName)
	if err != nil {
		return table.Table{}, fmt.Errorf("distributor dimension: %w", err)
	}

	out := table.New(internal.ColDistributorID, internal.ColDistributorName)
	seen := map[string]struct{}{}
	for i := range projected.Rows {
		key := joinKey(projected.Cell(i, 0))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.AppendRow([]any{projected.Cell(i, 0), projected.Cell(i, 1)})
	}
	return out, nil
}

// Clients renames the base client roll to canonical names and left-joins the
// recommendation enrichment on client id. Every base client survives; those
// without a match keep nil enrichment columns.
func (b *DimensionBuilder) Clients(clients, recommendations table.Table) (table.Table, error) {
	base := clients.Rename(map[string]string{
		internal.SrcClientID:        internal.ColClientID,
		internal.SrcAffiliationDate: internal.ColAffiliationDate,
		internal.SrcFirstTxDate:     internal.ColFirstTxDate,
	})
	if base.ColumnIndex(internal.ColClientID) < 0 {
		return table.Table{}, fmt.Errorf("client dimension: base table has no %s column", internal.SrcClientID)
	}

	enrichment, err := recommendations.Select(
		internal.SrcClientID,
		internal.SrcDistributorID,
		internal.SrcPhone,
		internal.SrcCategory,
		internal.SrcReferrals,
	)
	if err != nil {
		return table.Table{}, fmt.Errorf("client dimension: %w", err)
	}

	byClient := map[string][][]any{}
	for i := range enrichment.Rows {
		key := joinKey(enrichment.Cell(i, 0))
		if b.Policy == JoinKeepFirst && len(byClient[key]) > 0 {
			continue
		}
		byClient[key] = append(byClient[key], enrichment.Rows[i])
	}

	columns := append([]string(nil), base.Columns...)
	columns = append(columns, internal.ColDistributorID, internal.ColPhone, internal.ColCategory, internal.ColReferrals)
	out := table.Table{Columns: columns, Rows: make([][]any, 0, base.NumRows())}

	keyIdx := base.ColumnIndex(internal.ColClientID)
	for i := range base.Rows {
		matches := byClient[joinKey(base.Cell(i, keyIdx))]
		if len(matches) == 0 {
			row := append(append([]any(nil), base.Rows[i]...), nil, nil, nil, nil)
			out.AppendRow(row)
			continue
		}
		for _, match := range matches {
			// match layout follows the Select above; index 0 is the join
			// key and is dropped here.
			row := append(append([]any(nil), base.Rows[i]...), match[1], match[2], match[3], match[4])
			out.AppendRow(row)
		}
	}
	return out, nil
}

// joinKey normalizes a key cell so 7, 7.0 and "7" all collide.
func joinKey(v any) string {
	if n, ok := util.ToInt(v); ok {
		return fmt.Sprintf("i:%d", n)
	}
	return "s:" + util.ToString(v)
}
