package report

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventasetl/internal/config"
)

func reportConfig() config.Config {
	return config.Config{
		ReportCutoffDate:   "2025-06-14",
		ReportMonthStart:   "2025-06-01",
		ReportDashboardURL: "https://lookerstudio.google.com/reporting/abc123",
	}
}

type recordingSender struct {
	messages []string
	err      error
}

func (r *recordingSender) SendMessage(_ context.Context, text string) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, text)
	return nil
}

func TestServiceRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SUM\(CASE WHEN fecha_trx`).
		WithArgs("2025-06-14", "2025-06-01").
		WillReturnRows(sqlmock.NewRows([]string{"diaria", "acumulado_mes"}).
			AddRow(15200.50, 284735.00))
	mock.ExpectQuery(`COALESCE\(d.nombre_distribuidor, 'Venta Directa'\)`).
		WithArgs("2025-06-14").
		WillReturnRows(sqlmock.NewRows([]string{"nombre_distribuidor", "total_prestamos"}).
			AddRow("Distribuidora Norte", 9800.00).
			AddRow("Venta Directa", 5400.50))

	sender := &recordingSender{}
	svc := NewService(db, reportConfig(), sender, nil)
	require.NoError(t, svc.Run(context.Background()))
	require.Len(t, sender.messages, 1)

	msg := sender.messages[0]
	assert.Contains(t, msg, "REPORTE DE COLOCACIÓN - PRÉSTAMOS")
	assert.Contains(t, msg, "FECHA DE CORTE: 14 JUN, 2025")
	assert.Contains(t, msg, "PRÉSTAMOS DEL DÍA: $15,200.50")
	assert.Contains(t, msg, "ACUMULADO MENSUAL: $284,735.00")
	assert.Contains(t, msg, "- Distribuidora Norte: $9,800.00")
	assert.Contains(t, msg, "- Venta Directa: $5,400.50")
	assert.Contains(t, msg, "[CONSULTAR DASHBOARD COMPLETO](https://lookerstudio.google.com/reporting/abc123)")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRunQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SUM\(CASE WHEN fecha_trx`).
		WillReturnError(assert.AnError)

	sender := &recordingSender{}
	svc := NewService(db, reportConfig(), sender, nil)
	err = svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query placement metrics")
	assert.Empty(t, sender.messages)
}

func TestFormatMessageNoDistributors(t *testing.T) {
	msg, err := FormatMessage(reportConfig(), Metrics{Daily: 0, MonthToDate: 0}, nil)
	require.NoError(t, err)
	assert.Contains(t, msg, "PRÉSTAMOS DEL DÍA: $0.00")
	assert.Contains(t, msg, "RENDIMIENTO POR DISTRIBUIDORA:")
}

func TestFormatMessageBadCutoff(t *testing.T) {
	cfg := reportConfig()
	cfg.ReportCutoffDate = "14/06/2025"
	_, err := FormatMessage(cfg, Metrics{}, nil)
	assert.Error(t, err)
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{999.9, "999.90"},
		{1234567.8, "1,234,567.80"},
		{-45000, "-45,000.00"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, formatAmount(c.in), "formatAmount(%v)", c.in)
	}
}
