package out

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studypact/internal/modules/wallet/domain"
	apperrors "studypact/internal/platform/errors"
	"studypact/internal/platform/sqlitedb"
)

func newTestLedger(t *testing.T) *SQLiteLedger {
	t.Helper()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "wallet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ledger, err := NewSQLiteLedger(db, nil)
	require.NoError(t, err)
	return ledger.(*SQLiteLedger)
}

func TestSQLiteLedgerApplyAndHistory(t *testing.T) {
	t.Parallel()
	ledger := newTestLedger(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	_, bal, err := ledger.Apply(ctx, domain.Adjustment{ID: "e1", UserID: "u1", Delta: 40, Reason: "seed", Kind: domain.KindDeposit, At: at})
	require.NoError(t, err)
	assert.Equal(t, int64(40), bal)

	event, bal, err := ledger.Apply(ctx, domain.Adjustment{ID: "e2", UserID: "u1", Delta: -100, Reason: "forfeit", Kind: domain.KindPenalty, Clamp: true, At: at.Add(time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal)
	assert.Equal(t, int64(-40), event.Amount)
	assert.Equal(t, int64(-100), event.Requested)

	_, _, err = ledger.Apply(ctx, domain.Adjustment{ID: "e3", UserID: "u1", Delta: -1, Reason: "fee", Kind: domain.KindFee, At: at.Add(2 * time.Minute)})
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientFunds))

	history, err := ledger.History(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "e2", history[0].ID, "newest first")
	assert.Equal(t, domain.KindDeposit, history[1].Kind)
	assert.True(t, history[1].Timestamp.Equal(at))

	limited, err := ledger.History(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteLedgerConcurrentPenaltiesNeverGoNegative(t *testing.T) {
	t.Parallel()
	ledger := newTestLedger(t)
	ctx := context.Background()
	_, _, err := ledger.Apply(ctx, domain.Adjustment{ID: "seed", UserID: "u1", Delta: 12, Kind: domain.KindDeposit, Reason: "seed", At: time.Now()})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var applied int64
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			event, _, err := ledger.Apply(ctx, domain.Adjustment{
				ID: "p" + string(rune('a'+i)), UserID: "u1", Delta: -5, Kind: domain.KindPenalty, Clamp: true, Reason: "abandon", At: time.Now(),
			})
			if assert.NoError(t, err) {
				mu.Lock()
				applied += event.Amount
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	bal, err := ledger.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal)
	assert.Equal(t, int64(-12), applied, "applied amounts add up to what was available")
}

func TestSQLiteLedgerBadgesAreIdempotent(t *testing.T) {
	t.Parallel()
	ledger := newTestLedger(t)
	ctx := context.Background()

	granted, err := ledger.GrantBadge(ctx, "u1", domain.BadgeChallenger)
	require.NoError(t, err)
	assert.True(t, granted)
	granted, err = ledger.GrantBadge(ctx, "u1", domain.BadgeChallenger)
	require.NoError(t, err)
	assert.False(t, granted)

	badges, err := ledger.Badges(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{domain.BadgeChallenger}, badges)

	none, err := ledger.Badges(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestParseWebhookURL(t *testing.T) {
	t.Parallel()
	id, token, err := parseWebhookURL("https://discord.com/api/webhooks/123456/abc-DEF")
	require.NoError(t, err)
	assert.Equal(t, "123456", id)
	assert.Equal(t, "abc-DEF", token)

	_, _, err = parseWebhookURL("https://example.com/hooks")
	assert.Error(t, err)
}

func TestAsyncNotifierDrainsOnClose(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	console := NewConsoleNotifier(&buf)
	async := NewAsyncNotifier(MultiNotifier{console}, 4, nil)

	for _, msg := range []string{"one", "two", "three"} {
		require.NoError(t, async.Notify(context.Background(), domain.Notice{Kind: domain.NoticeInfo, Message: msg, At: time.Now()}))
	}
	async.Close()
	async.Close()

	out := buf.String()
	assert.Contains(t, out, "one")
	assert.Contains(t, out, "three")
	assert.NoError(t, async.Notify(context.Background(), domain.Notice{Message: "late"}))
	assert.NotContains(t, buf.String(), "late")
}
