package dto

import "time"

type AmountInput struct {
	Amount int64
	Reason string
	// Message overrides the default user notice; empty means the default.
	Message string
}

type EventOutput struct {
	ID        string
	Amount    int64
	Requested int64
	Reason    string
	Kind      string
	Timestamp time.Time
	Balance   int64
}

type BalanceOutput struct {
	UserID  string
	Balance int64
}

type CreditInput struct {
	Amount int64
	Reason string
	Kind   string
}

type PayoutInput struct {
	Credits []CreditInput
	Badge   string
	Message string
}

type PayoutOutput struct {
	Events       []EventOutput
	BadgeGranted bool
	Balance      int64
}
