package in

import (
	"context"

	"studypact/internal/modules/wallet/dto"
)

// Usecase is the Penalty/Reward Dispatcher: every engine decision that moves
// credits goes through it as a signed delta plus a user notice.
type Usecase interface {
	Balance(ctx context.Context) (dto.BalanceOutput, error)
	// Charge debits a fee and fails with ErrInsufficientFunds rather than going negative.
	Charge(ctx context.Context, input dto.AmountInput) (dto.EventOutput, error)
	// Penalize debits up to the available balance.
	Penalize(ctx context.Context, input dto.AmountInput) (dto.EventOutput, error)
	Reward(ctx context.Context, input dto.AmountInput) (dto.EventOutput, error)
	Refund(ctx context.Context, input dto.AmountInput) (dto.EventOutput, error)
	Deposit(ctx context.Context, input dto.AmountInput) (dto.EventOutput, error)
	Payout(ctx context.Context, input dto.PayoutInput) (dto.PayoutOutput, error)
	History(ctx context.Context, limit int) ([]dto.EventOutput, error)
	Badges(ctx context.Context) ([]string, error)
	Notify(ctx context.Context, kind, message string)
}
