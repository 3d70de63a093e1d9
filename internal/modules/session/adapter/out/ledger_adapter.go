package out

import (
	"context"
	"time"

	sessionout "studypact/internal/modules/session/port/out"
	ledgerdto "studypact/internal/modules/timeledger/dto"
	ledgerin "studypact/internal/modules/timeledger/port/in"
)

type LedgerAdapter struct {
	ledger ledgerin.Usecase
}

func NewLedgerAdapter(ledger ledgerin.Usecase) sessionout.LedgerPort {
	return &LedgerAdapter{ledger: ledger}
}

func (a *LedgerAdapter) CloseInterval(ctx context.Context, subject string, start, end time.Time) (int64, int64, error) {
	out, err := a.ledger.CloseInterval(ctx, ledgerdto.CloseIntervalInput{Subject: subject, Start: start, End: end})
	if err != nil {
		return 0, 0, err
	}
	if !out.Credited {
		return 0, out.TodayTotal, nil
	}
	return out.Seconds, out.TodayTotal, nil
}
