package out

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"studypact/internal/modules/wallet/domain"
	apperrors "studypact/internal/platform/errors"
)

type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgTxKey struct{}

// PostgresLedger keeps the badge list in a text[] column on the wallet row.
// It is also the transaction manager for the dispatcher when selected.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

func DialPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func NewPostgresLedger(ctx context.Context, pool *pgxpool.Pool) (*PostgresLedger, error) {
	ledger := &PostgresLedger{pool: pool}
	if err := ledger.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return ledger, nil
}

func (l *PostgresLedger) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS wallets (
  user_id TEXT PRIMARY KEY,
  balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
  prev_balance BIGINT NOT NULL DEFAULT 0,
  badges TEXT[] NOT NULL DEFAULT '{}',
  updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS ledger_events (
  seq BIGSERIAL PRIMARY KEY,
  id TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  amount BIGINT NOT NULL,
  requested BIGINT NOT NULL,
  reason TEXT NOT NULL,
  kind TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ledger_events_user ON ledger_events (user_id, created_at);
`
	if _, err := l.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create wallet tables: %w", err)
	}
	return nil
}

// Within runs fn in one pgx transaction carried by ctx. Nested calls join it.
func (l *PostgresLedger) Within(ctx context.Context, fn func(context.Context) error) error {
	if _, ok := ctx.Value(pgTxKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	txn, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(context.WithValue(ctx, pgTxKey{}, txn)); err != nil {
		_ = txn.Rollback(ctx)
		return err
	}
	if err := txn.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (l *PostgresLedger) q(ctx context.Context) pgQuerier {
	if txn, ok := ctx.Value(pgTxKey{}).(pgx.Tx); ok {
		return txn
	}
	return l.pool
}

func (l *PostgresLedger) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := l.q(ctx).QueryRow(ctx, `SELECT balance FROM wallets WHERE user_id = $1`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

func (l *PostgresLedger) ensureWallet(ctx context.Context, userID string, at time.Time) error {
	if _, err := l.q(ctx).Exec(ctx, `
INSERT INTO wallets (user_id, balance, prev_balance, updated_at) VALUES ($1, 0, 0, $2)
ON CONFLICT (user_id) DO NOTHING`, userID, at); err != nil {
		return fmt.Errorf("create wallet: %w", err)
	}
	return nil
}

func (l *PostgresLedger) Apply(ctx context.Context, adj domain.Adjustment) (domain.PenaltyEvent, int64, error) {
	var event domain.PenaltyEvent
	var balance int64
	err := l.Within(ctx, func(ctx context.Context) error {
		if err := l.ensureWallet(ctx, adj.UserID, adj.At); err != nil {
			return err
		}
		var row pgx.Row
		if adj.Clamp {
			row = l.q(ctx).QueryRow(ctx, `
UPDATE wallets SET prev_balance = balance, balance = GREATEST(balance + $1, 0), updated_at = $2
WHERE user_id = $3
RETURNING balance, prev_balance`, adj.Delta, adj.At, adj.UserID)
		} else {
			row = l.q(ctx).QueryRow(ctx, `
UPDATE wallets SET prev_balance = balance, balance = balance + $1, updated_at = $2
WHERE user_id = $3 AND balance + $1 >= 0
RETURNING balance, prev_balance`, adj.Delta, adj.At, adj.UserID)
		}
		var prev int64
		if err := row.Scan(&balance, &prev); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrInsufficientFunds
			}
			return fmt.Errorf("update balance: %w", err)
		}

		event = adj.Event(balance - prev)
		if _, err := l.q(ctx).Exec(ctx, `
INSERT INTO ledger_events (id, user_id, amount, requested, reason, kind, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			event.ID, event.UserID, event.Amount, event.Requested, event.Reason, string(event.Kind), adj.At); err != nil {
			return fmt.Errorf("insert ledger event: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.PenaltyEvent{}, 0, err
	}
	return event, balance, nil
}

func (l *PostgresLedger) History(ctx context.Context, userID string, limit int) ([]domain.PenaltyEvent, error) {
	query := `
SELECT id, user_id, amount, requested, reason, kind, created_at
FROM ledger_events WHERE user_id = $1
ORDER BY created_at DESC, seq DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := l.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.PenaltyEvent, 0)
	for rows.Next() {
		var event domain.PenaltyEvent
		var kind string
		if err := rows.Scan(&event.ID, &event.UserID, &event.Amount, &event.Requested, &event.Reason, &kind, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}
		event.Kind = domain.EventKind(kind)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger events: %w", err)
	}
	return events, nil
}

func (l *PostgresLedger) GrantBadge(ctx context.Context, userID, badge string) (bool, error) {
	var granted bool
	err := l.Within(ctx, func(ctx context.Context) error {
		if err := l.ensureWallet(ctx, userID, time.Now()); err != nil {
			return err
		}
		tag, err := l.q(ctx).Exec(ctx, `
UPDATE wallets SET badges = array_append(badges, $2)
WHERE user_id = $1 AND NOT ($2 = ANY(badges))`, userID, badge)
		if err != nil {
			return fmt.Errorf("grant badge: %w", err)
		}
		granted = tag.RowsAffected() > 0
		return nil
	})
	return granted, err
}

func (l *PostgresLedger) Badges(ctx context.Context, userID string) ([]string, error) {
	var badges pq.StringArray
	err := l.q(ctx).QueryRow(ctx, `SELECT badges FROM wallets WHERE user_id = $1`, userID).Scan(&badges)
	if errors.Is(err, pgx.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query badges: %w", err)
	}
	return []string(badges), nil
}

func (l *PostgresLedger) Close() {
	l.pool.Close()
}
