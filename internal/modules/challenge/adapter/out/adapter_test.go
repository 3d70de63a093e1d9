package out_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	challengeout "studypact/internal/modules/challenge/adapter/out"
	"studypact/internal/modules/challenge/domain"
	"studypact/internal/platform/docstore"
	apperrors "studypact/internal/platform/errors"
)

func TestFileTemplateCatalogMergesYAMLOverBuiltins(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
templates:
  - id: seven-day-study
    title: Custom Week
    duration_days: 7
    entry_fee: 15
    reward: 70
    daily_goals:
      - id: studyTime
        description: Ninety minutes
        target: 5400
  - id: sprint
    title: Sprint
    duration_days: 3
    entry_fee: 5
    reward: 15
    check_in_time: "07:30"
    daily_goals:
      - id: pages
        target: 30
`), 0o644))

	catalog := challengeout.NewFileTemplateCatalog(path)
	ctx := context.Background()
	templates, err := catalog.List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(templates))
	for _, tmpl := range templates {
		ids = append(ids, tmpl.ID)
	}
	assert.Equal(t, []string{"evening-focus", "seven-day-study", "sprint"}, ids)

	week, err := catalog.Get(ctx, "seven-day-study")
	require.NoError(t, err)
	assert.Equal(t, "Custom Week", week.Title)
	assert.Equal(t, int64(5400), week.DailyGoals[0].Target)

	sprint, err := catalog.Get(ctx, "sprint")
	require.NoError(t, err)
	require.NotNil(t, sprint.CheckInTime)
	assert.Equal(t, "07:30", sprint.CheckInTime.String())

	_, err = catalog.Get(ctx, "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFileTemplateCatalogReadsTOML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "templates.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[templates]]
id = "weekend"
title = "Weekend"
duration_days = 2
entry_fee = 4
reward = 8
check_in_time = "18:00"

[[templates.daily_goals]]
id = "focusSessions"
target = 3
`), 0o644))

	tmpl, err := challengeout.NewFileTemplateCatalog(path).Get(context.Background(), "weekend")
	require.NoError(t, err)
	assert.Equal(t, 2, tmpl.DurationDays)
	require.Len(t, tmpl.DailyGoals, 1)
	assert.Equal(t, domain.GoalFocusSessions, tmpl.DailyGoals[0].ID)
	require.NotNil(t, tmpl.CheckInTime)
	assert.Equal(t, 18, tmpl.CheckInTime.Hour)
}

func TestFileTemplateCatalogWithoutFileServesBuiltins(t *testing.T) {
	t.Parallel()
	catalog := challengeout.NewFileTemplateCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	templates, err := catalog.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, templates, len(challengeout.BuiltinTemplates()))
	for _, tmpl := range templates {
		assert.NoError(t, tmpl.Validate())
	}
}

func TestFileTemplateCatalogRejectsInvalidEntries(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte("templates:\n  - id: broken\n    duration_days: 0\n"), 0o644))
	_, err := challengeout.NewFileTemplateCatalog(path).List(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestDocChallengeStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := challengeout.NewDocChallengeStore(docstore.NewFileStore(t.TempDir()))

	_, err := store.Load(ctx, "u1")
	assert.ErrorIs(t, err, apperrors.ErrNoActiveChallenge)

	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	record := domain.New("u1", challengeout.BuiltinTemplates()[1], started)
	record.UpdateGoal(1, domain.GoalFocusSessions, 2)
	record.RecordCheckIn(1, started.Add(time.Hour))
	require.NoError(t, store.Save(ctx, record))

	loaded, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, record.TemplateID, loaded.TemplateID)
	assert.True(t, loaded.StartedAt.Equal(started))
	assert.Equal(t, 1, loaded.LastCheckedInDay)
	assert.Equal(t, domain.GoalProgress{Current: 2, Completed: true}, loaded.GoalProgress(1, domain.GoalFocusSessions))
	require.NotNil(t, loaded.Template.CheckInTime)
	assert.Equal(t, "21:00", loaded.Template.CheckInTime.String())

	require.NoError(t, store.Delete(ctx, "u1"))
	require.NoError(t, store.Delete(ctx, "u1"))
	_, err = store.Load(ctx, "u1")
	assert.ErrorIs(t, err, apperrors.ErrNoActiveChallenge)
}

func TestDocChallengeStoreWatchReportsDeletes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := challengeout.NewDocChallengeStore(docstore.NewFileStore(t.TempDir()))
	record := domain.New("u1", challengeout.BuiltinTemplates()[0], time.Now().UTC())
	require.NoError(t, store.Save(ctx, record))

	deleted := make(chan bool, 4)
	stop, err := store.Watch(ctx, "u1", func(_ domain.ActiveChallenge, gone bool) { deleted <- gone })
	require.NoError(t, err)
	defer stop()

	require.NoError(t, store.Delete(ctx, "u1"))
	select {
	case gone := <-deleted:
		assert.True(t, gone)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not see the delete")
	}
}
