package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ventasetl/internal/config"
	"ventasetl/internal/load"
	"ventasetl/internal/report"
)

func main() {
	cfg, err := config.Load()
	must(err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := load.Open(ctx, cfg.DSN())
	must(err)
	defer db.Close()

	sender, err := report.NewTelegramClient(cfg)
	must(err)

	svc := report.NewService(db, cfg, sender, logger)
	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
