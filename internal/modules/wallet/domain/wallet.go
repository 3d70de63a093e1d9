package domain

import (
	"fmt"
	"time"

	apperrors "studypact/internal/platform/errors"
)

const BadgeChallenger = "challenger"

type EventKind string

const (
	KindReward  EventKind = "reward"
	KindRefund  EventKind = "refund"
	KindFee     EventKind = "fee"
	KindPenalty EventKind = "penalty"
	KindDeposit EventKind = "deposit"
)

func (k EventKind) Credit() bool {
	return k == KindReward || k == KindRefund || k == KindDeposit
}

func (k EventKind) Validate() error {
	switch k {
	case KindReward, KindRefund, KindFee, KindPenalty, KindDeposit:
		return nil
	default:
		return fmt.Errorf("%w: unknown event kind %q", apperrors.ErrInvalidInput, k)
	}
}

// Adjustment is one signed balance mutation. With Clamp set the balance stops
// at zero instead of the mutation failing with ErrInsufficientFunds.
type Adjustment struct {
	ID     string
	UserID string
	Delta  int64
	Reason string
	Kind   EventKind
	Clamp  bool
	At     time.Time
}

// Event builds the history record for the adjustment once the ledger knows
// how much was actually applied.
func (a Adjustment) Event(applied int64) PenaltyEvent {
	return PenaltyEvent{
		ID:        a.ID,
		UserID:    a.UserID,
		Amount:    applied,
		Requested: a.Delta,
		Reason:    a.Reason,
		Kind:      a.Kind,
		Timestamp: a.At,
	}
}

// PenaltyEvent is the ledger history entry written atomically with every
// balance mutation, whatever its sign.
type PenaltyEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Requested int64     `json:"requested"`
	Reason    string    `json:"reason"`
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeWarning NoticeKind = "warning"
	NoticePenalty NoticeKind = "penalty"
)

type Notice struct {
	UserID  string
	Kind    NoticeKind
	Message string
	At      time.Time
}

type Credit struct {
	Amount int64
	Reason string
	Kind   EventKind
}
