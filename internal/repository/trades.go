package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Checker-Finance/trades-service/internal/metrics"
	"github.com/Checker-Finance/trades-service/pkg/model"
)

// Sentinel errors surfaced verbatim in the HTTP error payload.
var (
	ErrNoRowInserted      = errors.New("No se insertó el trade")
	ErrMissingGeneratedID = errors.New("No se obtuvo id_trade autogenerado")
)

// TradeRepository persists trades inside a single transaction per insert,
// bootstrapping the backing table on first use.
type TradeRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
	table  string
}

// NewTradeRepository constructs a repository writing to the given table.
func NewTradeRepository(db *pgxpool.Pool, logger *zap.Logger, table string) *TradeRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TradeRepository{
		db:     db,
		logger: logger,
		table:  table,
	}
}

// Insert persists the trade as a single all-or-nothing unit of work and
// returns the generated identifier. The pooled connection is acquired at
// entry and released unconditionally; any failure rolls the transaction back
// and propagates to the caller. No retries.
func (r *TradeRepository) Insert(ctx context.Context, trade model.Trade) (int64, error) {
	start := time.Now()

	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// Schema bootstrap runs on the same connection, but outside the insert
	// transaction: a benign DDL race from a concurrent first-time caller
	// must not poison the transaction the insert runs in.
	if err := r.ensureSchema(ctx, conn); err != nil {
		return 0, err
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op once committed

	var id int64
	row := tx.QueryRow(ctx, insertSQL(r.table),
		trade.Monto.StringFixed(2),
		trade.FechaCreacion.Time,
		trade.IDCliente,
	)
	if err := row.Scan(&id); err != nil {
		metrics.IncError("repository", "insert_failed")
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNoRowInserted
		}
		return 0, fmt.Errorf("insert trade: %w", err)
	}
	if id <= 0 {
		metrics.IncError("repository", "missing_generated_id")
		return 0, ErrMissingGeneratedID
	}

	if err := tx.Commit(ctx); err != nil {
		metrics.IncError("repository", "commit_failed")
		return 0, fmt.Errorf("commit trade: %w", err)
	}

	metrics.ObserveDuration(metrics.TradeInsertDuration, start, r.table)
	r.logger.Info("repository.trade_inserted",
		zap.Int64("id_trade", id),
		zap.Int64("id_cliente", trade.IDCliente),
		zap.String("monto", trade.Monto.StringFixed(2)),
	)
	return id, nil
}

// ensureSchema guarantees the trade table exists before the insert. Repeated
// calls are no-ops; a duplicate-table error from a concurrent first-time
// bootstrap is treated as success.
func (r *TradeRepository) ensureSchema(ctx context.Context, conn *pgxpool.Conn) error {
	var exists bool
	if err := conn.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, r.table).Scan(&exists); err != nil {
		return fmt.Errorf("check table %s: %w", r.table, err)
	}
	if exists {
		return nil
	}

	r.logger.Info("repository.schema_bootstrap", zap.String("table", r.table))
	if _, err := conn.Exec(ctx, createTableSQL(r.table)); err != nil {
		if isDuplicateTable(err) {
			// Another request won the check-then-create race.
			return nil
		}
		metrics.IncError("repository", "schema_bootstrap_failed")
		return fmt.Errorf("create table %s: %w", r.table, err)
	}
	return nil
}

func insertSQL(table string) string {
	return fmt.Sprintf(`
		INSERT INTO %s (monto, fecha_creacion, id_cliente)
		VALUES ($1, $2, $3)
		RETURNING id_trade;
	`, table)
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id_trade BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			monto NUMERIC(18,2) NOT NULL,
			fecha_creacion DATE DEFAULT CURRENT_DATE NOT NULL,
			id_cliente BIGINT NOT NULL
		);
	`, table)
}

// isDuplicateTable reports whether err is Postgres 42P07 (duplicate_table).
func isDuplicateTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P07"
}
