package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"ventasetl/internal/config"
	"ventasetl/internal/load"
	"ventasetl/internal/pipeline"
	"ventasetl/internal/report"
	"ventasetl/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cmd := os.Args[1]
	switch cmd {
	case "fetch":
		svc := pipeline.NewService(cfg, nil, logger)
		must(svc.FetchSources(context.Background()))
		fmt.Println("sources fetched")
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		strategy := fs.String("strategy", cfg.LoadStrategy, "append|incremental")
		_ = fs.Parse(os.Args[2:])
		cfg.LoadStrategy = *strategy

		ledger, err := storage.Open(cfg.LedgerPath)
		must(err)
		defer ledger.Close()

		svc := pipeline.NewService(cfg, ledger, logger)
		must(svc.Run(context.Background()))
		fmt.Println("pipeline run complete")
	case "runs":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 10, "max runs to list")
		_ = fs.Parse(os.Args[2:])

		ledger, err := storage.Open(cfg.LedgerPath)
		must(err)
		defer ledger.Close()

		runs, err := ledger.ListRuns(*limit)
		must(err)
		for _, r := range runs {
			line := fmt.Sprintf("run=%d trace=%s status=%s started=%s", r.ID, r.TraceID, r.Status, r.StartedAt)
			if r.Error != nil {
				line += " error=" + *r.Error
			}
			fmt.Println(line)
		}
	case "report":
		ctx := context.Background()
		db, err := load.Open(ctx, cfg.DSN())
		must(err)
		defer db.Close()

		sender, err := report.NewTelegramClient(cfg)
		must(err)
		svc := report.NewService(db, cfg, sender, logger)
		must(svc.Run(ctx))
		fmt.Println("report sent")
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: ventas <command>")
	fmt.Println("commands:")
	fmt.Println("  fetch                          download sources from drive if missing locally")
	fmt.Println("  run [--strategy=append|incremental]")
	fmt.Println("  runs [--limit=10]              list recent pipeline runs")
	fmt.Println("  report                         send the placement summary to telegram")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
