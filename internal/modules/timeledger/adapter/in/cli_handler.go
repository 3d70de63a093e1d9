package in

import (
	"context"
	"time"

	"studypact/internal/modules/timeledger/dto"
	ledgerin "studypact/internal/modules/timeledger/port/in"
)

type CLIHandler struct {
	usecase ledgerin.Usecase
}

func NewCLIHandler(usecase ledgerin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Close(ctx context.Context, subject string, start, end time.Time) (dto.CloseIntervalOutput, error) {
	return h.usecase.CloseInterval(ctx, dto.CloseIntervalInput{Subject: subject, Start: start, End: end})
}

func (h CLIHandler) Today(ctx context.Context) (dto.TodayOutput, error) {
	return h.usecase.Today(ctx)
}

func (h CLIHandler) History(ctx context.Context, limit int) ([]dto.RecordOutput, error) {
	return h.usecase.History(ctx, limit)
}

func (h CLIHandler) Rebuild(ctx context.Context) (dto.RebuildOutput, error) {
	return h.usecase.Rebuild(ctx)
}

func (h CLIHandler) DeleteSubject(ctx context.Context, subject string) (dto.DeleteSubjectOutput, error) {
	return h.usecase.DeleteSubject(ctx, subject)
}
