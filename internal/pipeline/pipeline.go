// Package pipeline wires the ETL stages into one run: fetch sources when a
// Drive folder is configured, extract the four raw tables, transform them
// into the warehouse schema and load the result. Every attempt is recorded
// in the local run ledger. A fatal transform or load error voids the run;
// no partial table set is ever considered a success.
package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"time"

	"ventasetl/internal"
	"ventasetl/internal/config"
	"ventasetl/internal/extract"
	"ventasetl/internal/load"
	"ventasetl/internal/storage"
	"ventasetl/internal/transform"
)

const (
	SheetClients      = "Clientes"
	SheetTransactions = "Transacciones"
	SheetMixedCatalog = "Varios"
)

type Service struct {
	cfg    config.Config
	ledger *storage.Ledger
	logger *slog.Logger
}

func NewService(cfg config.Config, ledger *storage.Ledger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{cfg: cfg, ledger: ledger, logger: logger}
}

// FetchSources pulls the workbook and the JSON feed from Drive when they
// are not already on disk. Without DRIVE_FOLDER_ID the run depends on local
// files only.
func (s *Service) FetchSources(ctx context.Context) error {
	if s.cfg.DriveFolderID == "" {
		s.logger.Warn("DRIVE_FOLDER_ID not set, relying on local source files")
		return nil
	}
	fetcher, err := extract.NewDriveFetcher(ctx, s.cfg, s.logger)
	if err != nil {
		return err
	}
	if err := fetcher.EnsureLocal(ctx, s.cfg.ExcelPath); err != nil {
		return err
	}
	return fetcher.EnsureLocal(ctx, s.cfg.JSONPath)
}

// Run executes one full extract-transform-load pass and records the attempt
// in the ledger either way.
func (s *Service) Run(ctx context.Context) error {
	trace := traceID()
	runID, err := s.ledger.StartRun(trace)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	s.logger.Info("pipeline run started", slog.String("traceId", trace))

	counts, warnings, err := s.runOnce(ctx)
	if err != nil {
		_ = s.ledger.FailRun(runID, counts, err)
		return err
	}

	if err := s.ledger.FinishRun(runID, counts, warnings); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	_ = s.ledger.SetMetadata("pipeline.last_success", time.Now().UTC().Format(time.RFC3339))
	s.logger.Info("pipeline run finished", slog.String("traceId", trace))
	return nil
}

func (s *Service) runOnce(ctx context.Context) (map[string]int, []internal.Warning, error) {
	if err := s.FetchSources(ctx); err != nil {
		return nil, nil, fmt.Errorf("fetch sources: %w", err)
	}

	inputs, err := s.extractAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("extract: %w", err)
	}

	orchestrator, err := transform.NewOrchestrator(s.cfg, s.logger)
	if err != nil {
		return nil, nil, err
	}
	result, err := orchestrator.Run(inputs)
	if err != nil {
		return nil, nil, fmt.Errorf("transform: %w", err)
	}

	strategy, err := load.ParseStrategy(s.cfg.LoadStrategy)
	if err != nil {
		return nil, result.Warnings, err
	}

	db, err := load.Open(ctx, s.cfg.DSN())
	if err != nil {
		return nil, result.Warnings, err
	}
	defer db.Close()

	loader := load.NewLoader(db, strategy, s.logger)
	if err := loader.EnsureSchema(ctx); err != nil {
		return nil, result.Warnings, err
	}
	counts, err := loader.LoadAll(ctx, result)
	if err != nil {
		return counts, result.Warnings, err
	}
	return counts, result.Warnings, nil
}

func (s *Service) extractAll(_ context.Context) (transform.Inputs, error) {
	clients, err := extract.ExtractSheet(s.cfg.ExcelPath, SheetClients, s.logger)
	if err != nil {
		return transform.Inputs{}, err
	}
	transactions, err := extract.ExtractSheet(s.cfg.ExcelPath, SheetTransactions, s.logger)
	if err != nil {
		return transform.Inputs{}, err
	}
	mixed, err := extract.ExtractSheetRaw(s.cfg.ExcelPath, SheetMixedCatalog, s.logger)
	if err != nil {
		return transform.Inputs{}, err
	}
	recommendations, err := extract.ExtractJSON(s.cfg.JSONPath, s.logger)
	if err != nil {
		return transform.Inputs{}, err
	}
	return transform.Inputs{
		Clients:         clients,
		Transactions:    transactions,
		MixedCatalog:    mixed,
		Recommendations: recommendations,
	}, nil
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
