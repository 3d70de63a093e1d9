package out

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"studypact/internal/modules/challenge/domain"
	challengeout "studypact/internal/modules/challenge/port/out"
	"studypact/internal/platform/clock"
	"studypact/internal/platform/config"
	apperrors "studypact/internal/platform/errors"
)

type catalogFile struct {
	Templates []domain.Template `yaml:"templates" toml:"templates"`
}

// FileTemplateCatalog serves the built-in templates merged with an optional
// YAML or TOML catalog file. File entries replace built-ins with the same id.
// The file is re-read on every call so edits apply without a restart.
type FileTemplateCatalog struct {
	path    string
	builtin []domain.Template
}

func NewFileTemplateCatalog(path string) challengeout.TemplateCatalog {
	return &FileTemplateCatalog{path: path, builtin: BuiltinTemplates()}
}

func (c *FileTemplateCatalog) List(_ context.Context) ([]domain.Template, error) {
	byID := map[string]domain.Template{}
	for _, t := range c.builtin {
		byID[t.ID] = t
	}
	if c.path != "" {
		var file catalogFile
		err := config.DecodeFile(c.path, &file)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read template catalog: %w", err)
		}
		for _, t := range file.Templates {
			if err := t.Validate(); err != nil {
				return nil, fmt.Errorf("template catalog: %w", err)
			}
			byID[t.ID] = t
		}
	}
	out := make([]domain.Template, 0, len(byID))
	for _, t := range byID {
		out = append(out, t)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (c *FileTemplateCatalog) Get(ctx context.Context, templateID string) (domain.Template, error) {
	templates, err := c.List(ctx)
	if err != nil {
		return domain.Template{}, err
	}
	for _, t := range templates {
		if t.ID == templateID {
			return t, nil
		}
	}
	return domain.Template{}, fmt.Errorf("%w: template %q", apperrors.ErrNotFound, templateID)
}

func BuiltinTemplates() []domain.Template {
	evening := clock.TimeOfDay{Hour: 21, Minute: 0}
	return []domain.Template{
		{
			ID:           "seven-day-study",
			Title:        "Seven Day Study",
			Description:  "An hour of study every day for a week.",
			DurationDays: 7,
			EntryFee:     10,
			Reward:       50,
			DailyGoals: []domain.DailyGoal{
				{ID: domain.GoalStudyTime, Description: "Study for one hour", Target: 3600},
			},
			Rules: []string{"Check in once a day after reaching every goal.", "A missed day fails the challenge."},
		},
		{
			ID:           "evening-focus",
			Title:        "Evening Focus",
			Description:  "Two focus sessions a day and a 21:00 check-in for five days.",
			DurationDays: 5,
			EntryFee:     20,
			Reward:       60,
			DailyGoals: []domain.DailyGoal{
				{ID: domain.GoalFocusSessions, Description: "Complete two focus sessions", Target: 2},
				{ID: domain.GoalStudyTime, Description: "Study for 45 minutes", Target: 2700},
				{ID: domain.GoalCheckIn, Description: "Check in between 21:00 and 21:10", Target: 1},
			},
			CheckInTime: &evening,
			Rules:       []string{"Check-in only counts inside the evening window."},
		},
	}
}
