package in

import (
	"context"

	"studypact/internal/modules/timeledger/dto"
)

// TotalObserver is told the new today-total after every credited interval.
type TotalObserver func(ctx context.Context, userID string, total int64)

type Usecase interface {
	CloseInterval(ctx context.Context, input dto.CloseIntervalInput) (dto.CloseIntervalOutput, error)
	// TodayTotal returns today's seconds for subject, or for all subjects when subject is empty.
	TodayTotal(ctx context.Context, subject string) (int64, error)
	Today(ctx context.Context) (dto.TodayOutput, error)
	History(ctx context.Context, limit int) ([]dto.RecordOutput, error)
	Rebuild(ctx context.Context) (dto.RebuildOutput, error)
	DeleteSubject(ctx context.Context, subject string) (dto.DeleteSubjectOutput, error)
	OnTodayTotalChanged(fn TotalObserver)
}
