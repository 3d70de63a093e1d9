package in

import (
	"context"

	"studypact/internal/modules/challenge/dto"
)

// Usecase is the Challenge Engine. Every operation that reads the record
// reconciles it against the wall clock first, so a missed day fails the
// challenge the next time anything looks at it.
type Usecase interface {
	ListTemplates(ctx context.Context) ([]dto.TemplateOutput, error)
	GetTemplate(ctx context.Context, templateID string) (dto.TemplateOutput, error)
	Start(ctx context.Context, templateID string) (dto.StatusOutput, error)
	Status(ctx context.Context) (dto.StatusOutput, error)
	SyncStudyTime(ctx context.Context) (dto.StatusOutput, error)
	// ObserveStudyTime matches the time ledger's today-total observer.
	ObserveStudyTime(ctx context.Context, userID string, total int64)
	RecordFocusSession(ctx context.Context) (dto.StatusOutput, error)
	RecordProgress(ctx context.Context, goalID string, value int64) (dto.StatusOutput, error)
	CheckIn(ctx context.Context) (dto.CheckInOutput, error)
	Forfeit(ctx context.Context) (dto.StatusOutput, error)
	LiftBan(ctx context.Context) (dto.LiftBanOutput, error)
	Watch(ctx context.Context, fn func(dto.StatusOutput)) (stop func(), err error)
}
