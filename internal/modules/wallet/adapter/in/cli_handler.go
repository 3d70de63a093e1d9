package in

import (
	"context"

	"studypact/internal/modules/wallet/dto"
	walletin "studypact/internal/modules/wallet/port/in"
)

type CLIHandler struct {
	usecase walletin.Usecase
}

func NewCLIHandler(usecase walletin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Balance(ctx context.Context) (dto.BalanceOutput, error) {
	return h.usecase.Balance(ctx)
}

func (h CLIHandler) Deposit(ctx context.Context, amount int64, reason string) (dto.EventOutput, error) {
	return h.usecase.Deposit(ctx, dto.AmountInput{Amount: amount, Reason: reason})
}

func (h CLIHandler) History(ctx context.Context, limit int) ([]dto.EventOutput, error) {
	return h.usecase.History(ctx, limit)
}

func (h CLIHandler) Badges(ctx context.Context) ([]string, error) {
	return h.usecase.Badges(ctx)
}
