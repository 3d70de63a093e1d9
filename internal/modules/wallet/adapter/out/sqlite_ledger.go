package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"studypact/internal/modules/wallet/domain"
	walletout "studypact/internal/modules/wallet/port/out"
	apperrors "studypact/internal/platform/errors"
	"studypact/internal/platform/tx"
)

type SQLiteLedger struct {
	db *sql.DB
	tx tx.Manager
}

// NewSQLiteLedger shares db with the other SQLite adapters. txm must be the
// manager built over the same handle so dispatcher transactions are joined.
func NewSQLiteLedger(db *sql.DB, txm tx.Manager) (walletout.Ledger, error) {
	if txm == nil {
		txm = tx.NewSQLManager(db)
	}
	ledger := &SQLiteLedger{db: db, tx: txm}
	if err := ledger.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return ledger, nil
}

func (l *SQLiteLedger) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS wallets (
  user_id TEXT PRIMARY KEY,
  balance INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
  prev_balance INTEGER NOT NULL DEFAULT 0,
  updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS ledger_events (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  amount INTEGER NOT NULL,
  requested INTEGER NOT NULL,
  reason TEXT NOT NULL,
  kind TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ledger_events_user ON ledger_events (user_id, created_at);
CREATE TABLE IF NOT EXISTS badges (
  user_id TEXT NOT NULL,
  badge TEXT NOT NULL,
  granted_at TEXT NOT NULL,
  PRIMARY KEY (user_id, badge)
);
`
	if _, err := l.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create wallet tables: %w", err)
	}
	return nil
}

func (l *SQLiteLedger) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := tx.Executor(ctx, l.db).QueryRowContext(ctx, `SELECT balance FROM wallets WHERE user_id = ?`, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

func (l *SQLiteLedger) Apply(ctx context.Context, adj domain.Adjustment) (domain.PenaltyEvent, int64, error) {
	var event domain.PenaltyEvent
	var balance int64
	err := l.tx.Within(ctx, func(ctx context.Context) error {
		exec := tx.Executor(ctx, l.db)
		at := formatTime(adj.At)
		if _, err := exec.ExecContext(ctx, `INSERT OR IGNORE INTO wallets (user_id, balance, prev_balance, updated_at) VALUES (?, 0, 0, ?)`, adj.UserID, at); err != nil {
			return fmt.Errorf("create wallet: %w", err)
		}

		var row *sql.Row
		if adj.Clamp {
			row = exec.QueryRowContext(ctx, `
UPDATE wallets SET prev_balance = balance, balance = MAX(balance + ?, 0), updated_at = ?
WHERE user_id = ?
RETURNING balance, prev_balance`, adj.Delta, at, adj.UserID)
		} else {
			row = exec.QueryRowContext(ctx, `
UPDATE wallets SET prev_balance = balance, balance = balance + ?, updated_at = ?
WHERE user_id = ? AND balance + ? >= 0
RETURNING balance, prev_balance`, adj.Delta, at, adj.UserID, adj.Delta)
		}
		var prev int64
		if err := row.Scan(&balance, &prev); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.ErrInsufficientFunds
			}
			return fmt.Errorf("update balance: %w", err)
		}

		event = adj.Event(balance - prev)
		if _, err := exec.ExecContext(ctx, `
INSERT INTO ledger_events (id, user_id, amount, requested, reason, kind, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
			event.ID, event.UserID, event.Amount, event.Requested, event.Reason, string(event.Kind), at); err != nil {
			return fmt.Errorf("insert ledger event: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.PenaltyEvent{}, 0, err
	}
	return event, balance, nil
}

// History returns the newest events first.
func (l *SQLiteLedger) History(ctx context.Context, userID string, limit int) ([]domain.PenaltyEvent, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := tx.Executor(ctx, l.db).QueryContext(ctx, `
SELECT id, user_id, amount, requested, reason, kind, created_at
FROM ledger_events WHERE user_id = ?
ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query ledger events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.PenaltyEvent, 0)
	for rows.Next() {
		var event domain.PenaltyEvent
		var kind, at string
		if err := rows.Scan(&event.ID, &event.UserID, &event.Amount, &event.Requested, &event.Reason, &kind, &at); err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}
		event.Kind = domain.EventKind(kind)
		event.Timestamp = parseTime(at)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger events: %w", err)
	}
	return events, nil
}

func (l *SQLiteLedger) GrantBadge(ctx context.Context, userID, badge string) (bool, error) {
	res, err := tx.Executor(ctx, l.db).ExecContext(ctx,
		`INSERT OR IGNORE INTO badges (user_id, badge, granted_at) VALUES (?, ?, ?)`,
		userID, badge, formatTime(time.Now()))
	if err != nil {
		return false, fmt.Errorf("grant badge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("grant badge: %w", err)
	}
	return n > 0, nil
}

func (l *SQLiteLedger) Badges(ctx context.Context, userID string) ([]string, error) {
	rows, err := tx.Executor(ctx, l.db).QueryContext(ctx, `SELECT badge FROM badges WHERE user_id = ? ORDER BY granted_at, badge`, userID)
	if err != nil {
		return nil, fmt.Errorf("query badges: %w", err)
	}
	defer rows.Close()
	badges := make([]string, 0)
	for rows.Next() {
		var badge string
		if err := rows.Scan(&badge); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		badges = append(badges, badge)
	}
	return badges, rows.Err()
}

// Fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
