package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"studypact/internal/modules/session/domain"
	sessionout "studypact/internal/modules/session/port/out"
	"studypact/internal/platform/markdown"
	"studypact/internal/platform/slug"
)

type VaultSessionStore struct {
	homePath string
}

func NewVaultSessionStore(homePath string) sessionout.SessionStore {
	return &VaultSessionStore{homePath: homePath}
}

func (s *VaultSessionStore) Save(_ context.Context, session domain.Session) (string, error) {
	date := session.StartedAt
	dir := filepath.Join(s.homePath, "sessions", date.Format("2006"), date.Format("01"), date.Format("02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s-%s.md", date.Format("150405"), session.Kind, slug.Subject(session.Subject))
	path := filepath.Join(dir, name)

	meta := map[string]any{
		"schema_version":   domain.SchemaVersion,
		"id":               session.ID,
		"kind":             string(session.Kind),
		"subject":          session.Subject,
		"status":           string(session.Status),
		"started_at":       session.StartedAt.Format(time.RFC3339),
		"ended_at":         session.EndedAt.Format(time.RFC3339),
		"duration_seconds": int64(session.Duration / time.Second),
		"credited_seconds": session.CreditedSeconds,
	}
	if session.Source != "" {
		meta["source"] = string(session.Source)
	}
	if session.Penalty != 0 {
		meta["penalty"] = session.Penalty
	}
	if session.Reward != 0 {
		meta["reward"] = session.Reward
	}
	credited := time.Duration(session.CreditedSeconds) * time.Second
	body := fmt.Sprintf("# %s session: %s\n\n- Status: %s\n- Planned: %s\n- Credited: %s\n",
		session.Kind, session.Subject, session.Status, session.Duration.Round(time.Second), credited)
	rendered, err := markdown.RenderFrontmatter(meta, body)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write session note: %w", err)
	}
	return path, nil
}
