package out

import (
	"context"
	"time"

	"studypact/internal/modules/session/domain"
)

// SessionStore writes the closed-session note and returns its path.
type SessionStore interface {
	Save(ctx context.Context, session domain.Session) (string, error)
}

type ActiveSessionStore interface {
	// Load returns apperrors.ErrNoActiveSession when nothing is persisted.
	Load(ctx context.Context, userID string, kind domain.Kind) (domain.ActiveSession, error)
	Save(ctx context.Context, session domain.ActiveSession) error
	// Clear removes the persisted session when its id matches sessionID, or
	// unconditionally when sessionID is empty.
	Clear(ctx context.Context, userID string, kind domain.Kind, sessionID string) error
}

type WalletPort interface {
	Balance(ctx context.Context) (int64, error)
	// Penalize returns the amount actually taken.
	Penalize(ctx context.Context, amount int64, reason, message string) (int64, error)
	Reward(ctx context.Context, amount int64, reason, message string) error
	Notify(ctx context.Context, kind, message string)
}

type LedgerPort interface {
	// CloseInterval credits [start, end) to subject and returns the credited
	// seconds and the new today-total.
	CloseInterval(ctx context.Context, subject string, start, end time.Time) (credited int64, todayTotal int64, err error)
}
