// Package transform implements the reshaping of the raw sales sources into
// the five-table warehouse schema: catalog splitting, referential-integrity
// repair, dimension assembly, positional fact mapping and final typing.
//
// The whole transform is a single synchronous pass over fully materialized
// tables. Recoverable data-quality findings come back as Result.Warnings;
// a non-nil error means the run is void and nothing may be loaded.
package transform

import (
	"fmt"
	"io"
	"log/slog"

	"ventasetl/internal"
	"ventasetl/internal/config"
	"ventasetl/internal/table"
)

type Inputs struct {
	Clients         table.Table
	Transactions    table.Table
	MixedCatalog    table.Table
	Recommendations table.Table
}

type Result struct {
	// Tables maps canonical table name to its final data.
	Tables map[string]table.Table
	// Order is the canonical insertion order (dimensions before facts).
	Order    []string
	Warnings []internal.Warning
}

type Orchestrator struct {
	splitter   *Splitter
	reconciler *Reconciler
	dims       *DimensionBuilder
	caster     *TypeCaster
	logger     *slog.Logger
}

func NewOrchestrator(cfg config.Config, logger *slog.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	policy, err := ParseJoinPolicy(cfg.JoinPolicy)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		splitter:   NewSplitter(cfg.CatalogSentinel, cfg.CatalogCutSentinel, logger),
		reconciler: NewReconciler(logger),
		dims:       NewDimensionBuilder(policy),
		caster:     NewTypeCaster(logger),
		logger:     logger,
	}, nil
}

func (o *Orchestrator) Run(in Inputs) (Result, error) {
	o.logger.Info("transform started",
		slog.Int("clients", in.Clients.NumRows()),
		slog.Int("transactions", in.Transactions.NumRows()),
		slog.Int("mixedCatalog", in.MixedCatalog.NumRows()),
		slog.Int("recommendations", in.Recommendations.NumRows()))

	warnings := []internal.Warning{}

	sites, txTypes, splitWarnings := o.splitter.Split(in.MixedCatalog)
	warnings = append(warnings, splitWarnings...)

	txTypes, reconcileWarnings := o.reconciler.Reconcile(txTypes, in.Transactions)
	warnings = append(warnings, reconcileWarnings...)

	distributors, err := o.dims.Distributors(in.Recommendations)
	if err != nil {
		return Result{}, err
	}
	clients, err := o.dims.Clients(in.Clients, in.Recommendations)
	if err != nil {
		return Result{}, err
	}

	facts, err := BuildFacts(in.Transactions)
	if err != nil {
		return Result{}, err
	}

	sites, castWarnings := o.caster.Sites(sites)
	warnings = append(warnings, castWarnings...)
	clients = o.caster.Clients(clients)
	facts, err = o.caster.Facts(facts)
	if err != nil {
		return Result{}, fmt.Errorf("fact typing: %w", err)
	}

	o.logger.Info("transform finished",
		slog.Int("sites", sites.NumRows()),
		slog.Int("txTypes", txTypes.NumRows()),
		slog.Int("distributors", distributors.NumRows()),
		slog.Int("clients", clients.NumRows()),
		slog.Int("facts", facts.NumRows()),
		slog.Int("warnings", len(warnings)))

	return Result{
		Tables: map[string]table.Table{
			internal.TableSites:        sites,
			internal.TableTxTypes:      txTypes,
			internal.TableDistributors: distributors,
			internal.TableClients:      clients,
			internal.TableTransactions: facts,
		},
		Order:    append([]string(nil), internal.LoadOrder...),
		Warnings: warnings,
	}, nil
}
