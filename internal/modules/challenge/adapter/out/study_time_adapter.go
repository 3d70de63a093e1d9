package out

import (
	"context"

	challengeout "studypact/internal/modules/challenge/port/out"
	ledgerin "studypact/internal/modules/timeledger/port/in"
)

type StudyTimeAdapter struct {
	ledger ledgerin.Usecase
}

func NewStudyTimeAdapter(ledger ledgerin.Usecase) challengeout.StudyTimePort {
	return &StudyTimeAdapter{ledger: ledger}
}

func (a *StudyTimeAdapter) TodayTotal(ctx context.Context) (int64, error) {
	return a.ledger.TodayTotal(ctx, "")
}
