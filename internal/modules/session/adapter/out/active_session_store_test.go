package out

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studypact/internal/modules/session/domain"
	"studypact/internal/platform/docstore"
	apperrors "studypact/internal/platform/errors"
)

func TestDocActiveSessionStoreKeepsKindsApart(t *testing.T) {
	t.Parallel()
	store := NewDocActiveSessionStore(docstore.NewFileStore(t.TempDir()))
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, domain.ActiveSession{ID: "f1", UserID: "u1", Kind: domain.KindFocus, Subject: "math", StartedAt: now, Duration: time.Minute, Remaining: time.Minute}))
	require.NoError(t, store.Save(ctx, domain.ActiveSession{ID: "t1", UserID: "u1", Kind: domain.KindSubject, Subject: "art", StartedAt: now}))

	focus, err := store.Load(ctx, "u1", domain.KindFocus)
	require.NoError(t, err)
	assert.Equal(t, "f1", focus.ID)
	assert.Equal(t, time.Minute, focus.Remaining)
	assert.True(t, focus.StartedAt.Equal(now))

	require.NoError(t, store.Clear(ctx, "u1", domain.KindFocus, "other"), "mismatched id is a no-op")
	_, err = store.Load(ctx, "u1", domain.KindFocus)
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx, "u1", domain.KindFocus, "f1"))
	_, err = store.Load(ctx, "u1", domain.KindFocus)
	assert.ErrorIs(t, err, apperrors.ErrNoActiveSession)

	timer, err := store.Load(ctx, "u1", domain.KindSubject)
	require.NoError(t, err)
	assert.Equal(t, "art", timer.Subject)

	require.NoError(t, store.Clear(ctx, "u1", domain.KindSubject, ""))
	require.NoError(t, store.Clear(ctx, "u1", domain.KindSubject, ""), "clearing twice is fine")
}

func TestVaultSessionStoreWritesFrontmatter(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	store := NewVaultSessionStore(home)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	path, err := store.Save(context.Background(), domain.Session{
		ID:        "s1",
		Kind:      domain.KindFocus,
		Subject:   "Linear Algebra",
		StartedAt: start,
		EndedAt:   start.Add(400 * time.Second),
		Duration:  25 * time.Minute,
		Status:    domain.StatusAbandoned,
		Source:    domain.SourceVisibilityHidden,
		Penalty:   5,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "090000-focus-linear-algebra.md"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	note := string(raw)
	assert.Contains(t, note, "status: abandoned")
	assert.Contains(t, note, "source: visibility_hidden")
	assert.Contains(t, note, "credited_seconds: 0")
	assert.Contains(t, note, "penalty: 5")
}
