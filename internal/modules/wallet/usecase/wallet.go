package usecase

import (
	"context"

	"studypact/internal/modules/wallet/domain"
	"studypact/internal/modules/wallet/dto"
	walletin "studypact/internal/modules/wallet/port/in"
	"studypact/internal/modules/wallet/service"
	apperrors "studypact/internal/platform/errors"
	"studypact/internal/platform/identity"
)

type Interactor struct {
	svc      *service.DispatcherService
	identity identity.Provider
}

func NewInteractor(svc *service.DispatcherService, ident identity.Provider) walletin.Usecase {
	return &Interactor{svc: svc, identity: ident}
}

func (i *Interactor) user() (string, error) {
	userID, ok := i.identity.CurrentUserID()
	if !ok {
		return "", apperrors.ErrNoUser
	}
	return userID, nil
}

func (i *Interactor) Balance(ctx context.Context) (dto.BalanceOutput, error) {
	userID, err := i.user()
	if err != nil {
		return dto.BalanceOutput{}, err
	}
	balance, err := i.svc.Balance(ctx, userID)
	if err != nil {
		return dto.BalanceOutput{}, err
	}
	return dto.BalanceOutput{UserID: userID, Balance: balance}, nil
}

func (i *Interactor) Charge(ctx context.Context, input dto.AmountInput) (dto.EventOutput, error) {
	return i.dispatch(ctx, domain.KindFee, input)
}

func (i *Interactor) Penalize(ctx context.Context, input dto.AmountInput) (dto.EventOutput, error) {
	return i.dispatch(ctx, domain.KindPenalty, input)
}

func (i *Interactor) Reward(ctx context.Context, input dto.AmountInput) (dto.EventOutput, error) {
	return i.dispatch(ctx, domain.KindReward, input)
}

func (i *Interactor) Refund(ctx context.Context, input dto.AmountInput) (dto.EventOutput, error) {
	return i.dispatch(ctx, domain.KindRefund, input)
}

func (i *Interactor) Deposit(ctx context.Context, input dto.AmountInput) (dto.EventOutput, error) {
	return i.dispatch(ctx, domain.KindDeposit, input)
}

func (i *Interactor) dispatch(ctx context.Context, kind domain.EventKind, input dto.AmountInput) (dto.EventOutput, error) {
	userID, err := i.user()
	if err != nil {
		return dto.EventOutput{}, err
	}
	event, balance, err := i.svc.Dispatch(ctx, userID, kind, input.Amount, input.Reason, input.Message)
	if err != nil {
		return dto.EventOutput{}, err
	}
	return toOutput(event, balance), nil
}

func (i *Interactor) Payout(ctx context.Context, input dto.PayoutInput) (dto.PayoutOutput, error) {
	userID, err := i.user()
	if err != nil {
		return dto.PayoutOutput{}, err
	}
	credits := make([]domain.Credit, 0, len(input.Credits))
	for _, c := range input.Credits {
		credits = append(credits, domain.Credit{Amount: c.Amount, Reason: c.Reason, Kind: domain.EventKind(c.Kind)})
	}
	events, granted, balance, err := i.svc.Payout(ctx, userID, credits, input.Badge, input.Message)
	if err != nil {
		return dto.PayoutOutput{}, err
	}
	out := dto.PayoutOutput{BadgeGranted: granted, Balance: balance, Events: make([]dto.EventOutput, 0, len(events))}
	for _, e := range events {
		out.Events = append(out.Events, toOutput(e, balance))
	}
	return out, nil
}

func (i *Interactor) History(ctx context.Context, limit int) ([]dto.EventOutput, error) {
	userID, err := i.user()
	if err != nil {
		return nil, err
	}
	events, err := i.svc.History(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EventOutput, 0, len(events))
	for _, e := range events {
		out = append(out, toOutput(e, 0))
	}
	return out, nil
}

func (i *Interactor) Badges(ctx context.Context) ([]string, error) {
	userID, err := i.user()
	if err != nil {
		return nil, err
	}
	return i.svc.Badges(ctx, userID)
}

func (i *Interactor) Notify(ctx context.Context, kind, message string) {
	userID, ok := i.identity.CurrentUserID()
	if !ok {
		return
	}
	i.svc.Notify(ctx, userID, domain.NoticeKind(kind), message)
}

func toOutput(e domain.PenaltyEvent, balance int64) dto.EventOutput {
	return dto.EventOutput{
		ID:        e.ID,
		Amount:    e.Amount,
		Requested: e.Requested,
		Reason:    e.Reason,
		Kind:      string(e.Kind),
		Timestamp: e.Timestamp,
		Balance:   balance,
	}
}
