package in

import (
	"context"

	"studypact/internal/modules/challenge/dto"
	challengein "studypact/internal/modules/challenge/port/in"
)

type CLIHandler struct {
	usecase challengein.Usecase
}

func NewCLIHandler(usecase challengein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Templates(ctx context.Context) ([]dto.TemplateOutput, error) {
	return h.usecase.ListTemplates(ctx)
}

func (h CLIHandler) Template(ctx context.Context, templateID string) (dto.TemplateOutput, error) {
	return h.usecase.GetTemplate(ctx, templateID)
}

func (h CLIHandler) Start(ctx context.Context, templateID string) (dto.StatusOutput, error) {
	return h.usecase.Start(ctx, templateID)
}

// Status syncs study time first so the board shows the ledger's latest total.
func (h CLIHandler) Status(ctx context.Context) (dto.StatusOutput, error) {
	out, err := h.usecase.SyncStudyTime(ctx)
	if err != nil {
		return h.usecase.Status(ctx)
	}
	return out, nil
}

func (h CLIHandler) Progress(ctx context.Context, goalID string, value int64) (dto.StatusOutput, error) {
	return h.usecase.RecordProgress(ctx, goalID, value)
}

func (h CLIHandler) CheckIn(ctx context.Context) (dto.CheckInOutput, error) {
	return h.usecase.CheckIn(ctx)
}

func (h CLIHandler) Forfeit(ctx context.Context) (dto.StatusOutput, error) {
	return h.usecase.Forfeit(ctx)
}

func (h CLIHandler) LiftBan(ctx context.Context) (dto.LiftBanOutput, error) {
	return h.usecase.LiftBan(ctx)
}

func (h CLIHandler) Watch(ctx context.Context, fn func(dto.StatusOutput)) (func(), error) {
	return h.usecase.Watch(ctx, fn)
}
