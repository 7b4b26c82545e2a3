// Package load persists the transform output to the Postgres warehouse.
// It consumes the transform's named table set and honors its canonical
// order so dimension rows land before the fact rows that reference them.
package load

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"ventasetl/internal"
	"ventasetl/internal/table"
	"ventasetl/internal/transform"
	"ventasetl/internal/util"
)

type Strategy string

const (
	// StrategyAppend inserts every transformed row.
	StrategyAppend Strategy = "append"
	// StrategyIncremental inserts only rows whose primary key is not yet in
	// the destination table.
	StrategyIncremental Strategy = "incremental"
)

func ParseStrategy(v string) (Strategy, error) {
	switch Strategy(v) {
	case StrategyAppend, "":
		return StrategyAppend, nil
	case StrategyIncremental:
		return StrategyIncremental, nil
	default:
		return "", fmt.Errorf("unsupported load strategy: %s", v)
	}
}

// primaryKeys drives the incremental diff.
var primaryKeys = map[string]string{
	internal.TableSites:        internal.ColSiteID,
	internal.TableTxTypes:      internal.ColTxTypeID,
	internal.TableDistributors: internal.ColDistributorID,
	internal.TableClients:      internal.ColClientID,
	internal.TableTransactions: internal.ColTxID,
}

type Loader struct {
	db       *sql.DB
	strategy Strategy
	logger   *slog.Logger
}

func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open warehouse connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping warehouse: %w", err)
	}
	return db, nil
}

func NewLoader(db *sql.DB, strategy Strategy, logger *slog.Logger) *Loader {
	if strategy == "" {
		strategy = StrategyAppend
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{db: db, strategy: strategy, logger: logger}
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS dim_sedes (
  id_sede BIGINT NOT NULL,
  nombre_sede TEXT
);
CREATE TABLE IF NOT EXISTS dim_tipo_transaccion (
  id_tipo_trx BIGINT NOT NULL,
  descripcion_tipo TEXT
);
CREATE TABLE IF NOT EXISTS dim_distribuidores (
  id_distribuidor BIGINT,
  nombre_distribuidor TEXT
);
CREATE TABLE IF NOT EXISTS dim_clientes (
  id_cliente BIGINT,
  fecha_afiliacion DATE,
  fecha_primera_trx DATE,
  id_distribuidor BIGINT,
  telefono TEXT,
  categoria TEXT,
  recomendados TEXT
);
CREATE TABLE IF NOT EXISTS fct_transacciones (
  id_cliente BIGINT,
  fecha_trx TIMESTAMP,
  id_tipo_trx BIGINT NOT NULL,
  id_trx BIGINT,
  monto NUMERIC,
  fee NUMERIC,
  id_sede BIGINT
);
`

func (l *Loader) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure warehouse schema: %w", err)
	}
	return nil
}

// LoadAll inserts every table of the transform result in canonical order.
// Counts per table come back even on failure so the caller can record how
// far the load got.
func (l *Loader) LoadAll(ctx context.Context, result transform.Result) (map[string]int, error) {
	counts := map[string]int{}
	for _, name := range result.Order {
		t, ok := result.Tables[name]
		if !ok {
			return counts, fmt.Errorf("transform result is missing table %s", name)
		}
		inserted, err := l.loadTable(ctx, name, t)
		counts[name] = inserted
		if err != nil {
			return counts, fmt.Errorf("load %s: %w", name, err)
		}
		l.logger.Info("table loaded",
			slog.String("table", name),
			slog.Int("rows", t.NumRows()),
			slog.Int("inserted", inserted),
			slog.String("strategy", string(l.strategy)))
	}
	return counts, nil
}

func (l *Loader) loadTable(ctx context.Context, name string, t table.Table) (int, error) {
	existing := map[string]struct{}{}
	pkIdx := -1
	if l.strategy == StrategyIncremental {
		pk, ok := primaryKeys[name]
		if !ok {
			return 0, fmt.Errorf("no primary key registered for %s", name)
		}
		pkIdx = t.ColumnIndex(pk)
		if pkIdx < 0 {
			return 0, fmt.Errorf("table has no %s column", pk)
		}
		var err error
		existing, err = l.existingKeys(ctx, name, pk)
		if err != nil {
			return 0, err
		}
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertSQL(name, t.Columns))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for i := range t.Rows {
		if pkIdx >= 0 {
			if _, dup := existing[keyOf(t.Cell(i, pkIdx))]; dup {
				continue
			}
		}
		args := make([]any, len(t.Columns))
		for c := range t.Columns {
			args[c] = normalizeValue(t.Cell(i, c))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return inserted, fmt.Errorf("row %d: %w", i, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return inserted, err
	}
	return inserted, nil
}

func (l *Loader) existingKeys(ctx context.Context, name, pk string) (map[string]struct{}, error) {
	rows, err := l.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM %s`, pk, name))
	if err != nil {
		return nil, fmt.Errorf("read existing keys: %w", err)
	}
	defer rows.Close()

	out := map[string]struct{}{}
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out[keyOf(v)] = struct{}{}
	}
	return out, rows.Err()
}

func insertSQL(name string, columns []string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		name, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
}

// keyOf normalizes a primary-key value so int64, float64 and digit strings
// collide regardless of which side of the diff they came from.
func keyOf(v any) string {
	if n, ok := util.ToInt(v); ok {
		return fmt.Sprintf("i:%d", n)
	}
	return "s:" + util.ToString(v)
}

// normalizeValue keeps scalars as-is and serializes composite cells (the
// recommendations feed can carry lists) to JSON text.
func normalizeValue(v any) any {
	switch v.(type) {
	case []any, map[string]any:
		blob, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return string(blob)
	default:
		return v
	}
}
