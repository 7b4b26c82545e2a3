// Package report implements the placement notification job: it queries the
// warehouse for the cutoff day's loan-placement metrics and posts a
// formatted Spanish summary to Telegram.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"ventasetl/internal/config"
)

type Metrics struct {
	Daily       float64
	MonthToDate float64
}

type DistributorTotal struct {
	Name  string
	Total float64
}

// MessageSender is what the service needs from Telegram; tests substitute
// a recorder.
type MessageSender interface {
	SendMessage(ctx context.Context, text string) error
}

type Service struct {
	db     *sql.DB
	cfg    config.Config
	sender MessageSender
	logger *slog.Logger
}

func NewService(db *sql.DB, cfg config.Config, sender MessageSender, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{db: db, cfg: cfg, sender: sender, logger: logger}
}

func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("building placement report", slog.String("cutoff", s.cfg.ReportCutoffDate))

	metrics, distributors, err := s.fetch(ctx)
	if err != nil {
		return fmt.Errorf("query placement metrics: %w", err)
	}

	message, err := FormatMessage(s.cfg, metrics, distributors)
	if err != nil {
		return err
	}

	if err := s.sender.SendMessage(ctx, message); err != nil {
		return fmt.Errorf("send placement report: %w", err)
	}
	s.logger.Info("placement report sent", slog.Int("distributors", len(distributors)))
	return nil
}

func (s *Service) fetch(ctx context.Context) (Metrics, []DistributorTotal, error) {
	const metricsQuery = `
SELECT
  COALESCE(SUM(CASE WHEN fecha_trx::date = $1 THEN monto ELSE 0 END), 0) AS diaria,
  COALESCE(SUM(monto), 0) AS acumulado_mes
FROM fct_transacciones
WHERE fecha_trx >= $2 AND fecha_trx <= $1`

	var metrics Metrics
	err := s.db.QueryRowContext(ctx, metricsQuery, s.cfg.ReportCutoffDate, s.cfg.ReportMonthStart).
		Scan(&metrics.Daily, &metrics.MonthToDate)
	if err != nil {
		return Metrics{}, nil, err
	}

	const distributorsQuery = `
SELECT
  COALESCE(d.nombre_distribuidor, 'Venta Directa') AS nombre_distribuidor,
  SUM(f.monto) AS total_prestamos
FROM fct_transacciones f
LEFT JOIN dim_clientes c ON f.id_cliente = c.id_cliente
LEFT JOIN dim_distribuidores d ON c.id_distribuidor = d.id_distribuidor
WHERE f.fecha_trx::date = $1
GROUP BY 1
ORDER BY total_prestamos DESC`

	rows, err := s.db.QueryContext(ctx, distributorsQuery, s.cfg.ReportCutoffDate)
	if err != nil {
		return Metrics{}, nil, err
	}
	defer rows.Close()

	var distributors []DistributorTotal
	for rows.Next() {
		var d DistributorTotal
		if err := rows.Scan(&d.Name, &d.Total); err != nil {
			return Metrics{}, nil, err
		}
		distributors = append(distributors, d)
	}
	return metrics, distributors, rows.Err()
}

var monthAbbrevES = [...]string{"ENE", "FEB", "MAR", "ABR", "MAY", "JUN", "JUL", "AGO", "SEP", "OCT", "NOV", "DIC"}

// FormatMessage renders the placement summary in the layout the sales team
// expects.
func FormatMessage(cfg config.Config, metrics Metrics, distributors []DistributorTotal) (string, error) {
	cutoff, err := time.Parse("2006-01-02", cfg.ReportCutoffDate)
	if err != nil {
		return "", fmt.Errorf("bad cutoff date %q: %w", cfg.ReportCutoffDate, err)
	}
	formatted := fmt.Sprintf("%d %s, %d", cutoff.Day(), monthAbbrevES[cutoff.Month()-1], cutoff.Year())

	var b strings.Builder
	fmt.Fprintf(&b, "REPORTE DE COLOCACIÓN - PRÉSTAMOS\n")
	fmt.Fprintf(&b, "FECHA DE CORTE: %s\n", formatted)
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("=", 30))
	fmt.Fprintf(&b, "PRÉSTAMOS DEL DÍA: $%s\n", formatAmount(metrics.Daily))
	fmt.Fprintf(&b, "ACUMULADO MENSUAL: $%s\n\n", formatAmount(metrics.MonthToDate))
	fmt.Fprintf(&b, "RENDIMIENTO POR DISTRIBUIDORA:\n")
	for _, d := range distributors {
		fmt.Fprintf(&b, "- %s: $%s\n", d.Name, formatAmount(d.Total))
	}
	fmt.Fprintf(&b, "\nANÁLISIS DETALLADO:\n")
	fmt.Fprintf(&b, "[CONSULTAR DASHBOARD COMPLETO](%s)\n", cfg.ReportDashboardURL)
	return b.String(), nil
}

// formatAmount renders 1234567.8 as "1,234,567.80".
func formatAmount(v float64) string {
	plain := fmt.Sprintf("%.2f", v)
	dot := strings.Index(plain, ".")
	intPart, fracPart := plain[:dot], plain[dot:]

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, ",") + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
