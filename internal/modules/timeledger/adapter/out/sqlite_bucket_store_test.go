package out

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studypact/internal/modules/timeledger/domain"
	"studypact/internal/platform/sqlitedb"
)

func TestSQLiteBucketStoreAccumulatesPerSubjectAndDay(t *testing.T) {
	t.Parallel()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer db.Close()
	store, err := NewSQLiteBucketStore(db)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, domain.Bucket{UserID: "u1", Subject: "math", Day: "2026-03-01", Seconds: 600}))
	require.NoError(t, store.Add(ctx, domain.Bucket{UserID: "u1", Subject: "math", Day: "2026-03-01", Seconds: 300}))
	require.NoError(t, store.Add(ctx, domain.Bucket{UserID: "u1", Subject: "art", Day: "2026-03-01", Seconds: 60}))
	require.NoError(t, store.Add(ctx, domain.Bucket{UserID: "u1", Subject: "math", Day: "2026-03-02", Seconds: 5}))
	require.NoError(t, store.Add(ctx, domain.Bucket{UserID: "u2", Subject: "math", Day: "2026-03-01", Seconds: 7}))

	day, err := store.ListDay(ctx, "u1", "2026-03-01")
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, "art", day[0].Subject)
	assert.Equal(t, int64(900), day[1].Seconds)

	removed, err := store.DeleteSubject(ctx, "u1", "math")
	require.NoError(t, err)
	assert.Equal(t, int64(905), removed)

	day, err = store.ListDay(ctx, "u1", "2026-03-01")
	require.NoError(t, err)
	require.Len(t, day, 1)

	other, err := store.ListDay(ctx, "u2", "2026-03-01")
	require.NoError(t, err)
	require.Len(t, other, 1, "other users are untouched")
}

func TestFileHistoryStoreTailsPerUser(t *testing.T) {
	t.Parallel()
	store := NewFileHistoryStore(t.TempDir())
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, domain.Record{ID: string(rune('a' + i)), UserID: "u1", Subject: "math", Start: base, End: base.Add(time.Minute), Seconds: 60}))
	}
	require.NoError(t, store.Append(ctx, domain.Record{ID: "z", UserID: "u2", Subject: "math", Seconds: 1}))

	all, err := store.List(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	tail, err := store.List(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "d", tail[0].ID)
	assert.Equal(t, "e", tail[1].ID)
}

func TestVaultDayNoteKeepsUserTextAroundTotals(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	writer := NewVaultDayNoteWriter(home)
	ctx := context.Background()

	require.NoError(t, writer.WriteDay(ctx, "u1", "2026-03-01", []domain.Bucket{{Subject: "math", Seconds: 3600}}))
	path := filepath.Join(home, "daily", "2026-03-01.md")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	edited := strings.Replace(string(raw), "# Study log 2026-03-01\n", "# Study log 2026-03-01\n\nReflections: good day.\n", 1)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	require.NoError(t, writer.WriteDay(ctx, "u1", "2026-03-01", []domain.Bucket{{Subject: "math", Seconds: 3600}, {Subject: "art", Seconds: 60}}))
	raw, err = os.ReadFile(path)
	require.NoError(t, err)
	note := string(raw)
	assert.Contains(t, note, "Reflections: good day.")
	assert.Contains(t, note, "| art | 1m0s |")
	assert.Contains(t, note, "total_seconds: 3660")
	assert.Equal(t, 1, strings.Count(note, totalsBlock.Start))
}
