package out

import (
	"context"

	"studypact/internal/modules/wallet/domain"
)

type Ledger interface {
	Balance(ctx context.Context, userID string) (int64, error)
	// Apply mutates the balance and appends the event in one atomic step and
	// returns the event with the applied amount and the resulting balance.
	Apply(ctx context.Context, adj domain.Adjustment) (domain.PenaltyEvent, int64, error)
	History(ctx context.Context, userID string, limit int) ([]domain.PenaltyEvent, error)
	// GrantBadge reports false when the badge was already held.
	GrantBadge(ctx context.Context, userID, badge string) (bool, error)
	Badges(ctx context.Context, userID string) ([]string, error)
}

type Notifier interface {
	Notify(ctx context.Context, notice domain.Notice) error
}
