package out

import (
	"context"

	"studypact/internal/modules/challenge/domain"
)

type ChallengeStore interface {
	// Load returns apperrors.ErrNoActiveChallenge when the user has no record.
	Load(ctx context.Context, userID string) (domain.ActiveChallenge, error)
	Save(ctx context.Context, challenge domain.ActiveChallenge) error
	Delete(ctx context.Context, userID string) error
	// Watch calls fn with the new record, or with deleted set when it was removed.
	Watch(ctx context.Context, userID string, fn func(challenge domain.ActiveChallenge, deleted bool)) (stop func(), err error)
}

type TemplateCatalog interface {
	List(ctx context.Context) ([]domain.Template, error)
	// Get returns apperrors.ErrNotFound for unknown ids.
	Get(ctx context.Context, templateID string) (domain.Template, error)
}

type WalletPort interface {
	// Charge fails with apperrors.ErrInsufficientFunds instead of going negative.
	Charge(ctx context.Context, amount int64, reason, message string) error
	// Penalize returns the amount actually taken.
	Penalize(ctx context.Context, amount int64, reason, message string) (int64, error)
	Refund(ctx context.Context, amount int64, reason, message string) error
	// Payout credits the refund and reward and grants badge in one transaction.
	Payout(ctx context.Context, refund, reward int64, badge, message string) (badgeGranted bool, err error)
	Notify(ctx context.Context, kind, message string)
}

type StudyTimePort interface {
	// TodayTotal is the credited seconds for today across all subjects.
	TodayTotal(ctx context.Context) (int64, error)
}
