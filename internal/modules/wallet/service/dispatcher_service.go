package service

import (
	"context"
	"fmt"
	"strings"

	hclog "github.com/hashicorp/go-hclog"

	"studypact/internal/modules/wallet/domain"
	walletout "studypact/internal/modules/wallet/port/out"
	"studypact/internal/platform/clock"
	apperrors "studypact/internal/platform/errors"
	"studypact/internal/platform/id"
	"studypact/internal/platform/tx"
)

type DispatcherService struct {
	clock    clock.Clock
	idGen    id.Generator
	ledger   walletout.Ledger
	notifier walletout.Notifier
	tx       tx.Manager
	log      hclog.Logger
}

func NewDispatcherService(
	clk clock.Clock,
	idGen id.Generator,
	ledger walletout.Ledger,
	notifier walletout.Notifier,
	txm tx.Manager,
	logger hclog.Logger,
) *DispatcherService {
	if txm == nil {
		txm = tx.NoopManager{}
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &DispatcherService{clock: clk, idGen: idGen, ledger: ledger, notifier: notifier, tx: txm, log: logger}
}

func (s *DispatcherService) Balance(ctx context.Context, userID string) (int64, error) {
	return s.ledger.Balance(ctx, userID)
}

// Dispatch applies one credit or debit of amount (always positive here; the
// kind decides the sign) and then emits the notice without waiting on it.
func (s *DispatcherService) Dispatch(ctx context.Context, userID string, kind domain.EventKind, amount int64, reason, message string) (domain.PenaltyEvent, int64, error) {
	event, balance, err := s.apply(ctx, userID, kind, amount, reason)
	if err != nil {
		return domain.PenaltyEvent{}, 0, err
	}
	s.Notify(ctx, userID, noticeKind(kind), s.message(event, message))
	return event, balance, nil
}

func (s *DispatcherService) apply(ctx context.Context, userID string, kind domain.EventKind, amount int64, reason string) (domain.PenaltyEvent, int64, error) {
	if err := kind.Validate(); err != nil {
		return domain.PenaltyEvent{}, 0, err
	}
	if amount < 0 {
		return domain.PenaltyEvent{}, 0, fmt.Errorf("%w: amount must be non-negative", apperrors.ErrInvalidInput)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = string(kind)
	}
	delta := amount
	if !kind.Credit() {
		delta = -amount
	}
	adj := domain.Adjustment{
		ID:     s.idGen.New(),
		UserID: userID,
		Delta:  delta,
		Reason: reason,
		Kind:   kind,
		Clamp:  kind == domain.KindPenalty,
		At:     s.clock.Now(),
	}
	event, balance, err := s.ledger.Apply(ctx, adj)
	if err != nil {
		return domain.PenaltyEvent{}, 0, err
	}
	s.log.Debug("ledger adjusted", "user", userID, "kind", kind, "requested", delta, "applied", event.Amount, "balance", balance)
	return event, balance, nil
}

// Payout lands every credit and the optional badge in one transaction.
func (s *DispatcherService) Payout(ctx context.Context, userID string, credits []domain.Credit, badge, message string) ([]domain.PenaltyEvent, bool, int64, error) {
	events := make([]domain.PenaltyEvent, 0, len(credits))
	var granted bool
	var balance int64
	err := s.tx.Within(ctx, func(ctx context.Context) error {
		for _, c := range credits {
			if !c.Kind.Credit() {
				return fmt.Errorf("%w: payout only accepts credits, got %s", apperrors.ErrInvalidInput, c.Kind)
			}
			event, bal, err := s.apply(ctx, userID, c.Kind, c.Amount, c.Reason)
			if err != nil {
				return err
			}
			events = append(events, event)
			balance = bal
		}
		if badge != "" {
			ok, err := s.ledger.GrantBadge(ctx, userID, badge)
			if err != nil {
				return err
			}
			granted = ok
		}
		return nil
	})
	if err != nil {
		return nil, false, 0, err
	}
	if message == "" {
		var total int64
		for _, e := range events {
			total += e.Amount
		}
		message = fmt.Sprintf("+%d credits", total)
		if granted {
			message += fmt.Sprintf(", badge %q earned", badge)
		}
	}
	s.Notify(ctx, userID, domain.NoticeSuccess, message)
	return events, granted, balance, nil
}

func (s *DispatcherService) History(ctx context.Context, userID string, limit int) ([]domain.PenaltyEvent, error) {
	return s.ledger.History(ctx, userID, limit)
}

func (s *DispatcherService) Badges(ctx context.Context, userID string) ([]string, error) {
	return s.ledger.Badges(ctx, userID)
}

// Notify is fire-and-forget: a failing notifier is logged and never surfaces to the engine.
func (s *DispatcherService) Notify(ctx context.Context, userID string, kind domain.NoticeKind, message string) {
	if s.notifier == nil || message == "" {
		return
	}
	notice := domain.Notice{UserID: userID, Kind: kind, Message: message, At: s.clock.Now()}
	if err := s.notifier.Notify(ctx, notice); err != nil {
		s.log.Warn("notify failed", "kind", kind, "error", err)
	}
}

func (s *DispatcherService) message(event domain.PenaltyEvent, override string) string {
	if override != "" {
		return override
	}
	switch event.Kind {
	case domain.KindPenalty:
		if event.Amount != event.Requested {
			return fmt.Sprintf("penalty %d of %d credits applied: %s", -event.Amount, -event.Requested, event.Reason)
		}
		return fmt.Sprintf("-%d credits penalty: %s", -event.Amount, event.Reason)
	case domain.KindFee:
		return fmt.Sprintf("-%d credits: %s", -event.Amount, event.Reason)
	default:
		return fmt.Sprintf("+%d credits: %s", event.Amount, event.Reason)
	}
}

func noticeKind(kind domain.EventKind) domain.NoticeKind {
	switch kind {
	case domain.KindPenalty:
		return domain.NoticePenalty
	case domain.KindFee:
		return domain.NoticeInfo
	default:
		return domain.NoticeSuccess
	}
}
