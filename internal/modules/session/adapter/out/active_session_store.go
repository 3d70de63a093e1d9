package out

import (
	"context"
	"errors"
	"fmt"

	"studypact/internal/modules/session/domain"
	sessionout "studypact/internal/modules/session/port/out"
	"studypact/internal/platform/docstore"
	apperrors "studypact/internal/platform/errors"
)

const docKind = "session"

// DocActiveSessionStore keeps one document per user and session kind.
type DocActiveSessionStore struct {
	docs docstore.Store
}

func NewDocActiveSessionStore(docs docstore.Store) sessionout.ActiveSessionStore {
	return &DocActiveSessionStore{docs: docs}
}

func key(userID string, kind domain.Kind) docstore.Key {
	return docstore.Key{UserID: userID, Kind: docKind, ID: string(kind)}
}

func (s *DocActiveSessionStore) Load(ctx context.Context, userID string, kind domain.Kind) (domain.ActiveSession, error) {
	var active domain.ActiveSession
	if err := s.docs.Get(ctx, key(userID, kind), &active); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.ActiveSession{}, apperrors.ErrNoActiveSession
		}
		return domain.ActiveSession{}, fmt.Errorf("load %s session: %w", kind, err)
	}
	if active.ID == "" {
		return domain.ActiveSession{}, apperrors.ErrNoActiveSession
	}
	return active, nil
}

func (s *DocActiveSessionStore) Save(ctx context.Context, session domain.ActiveSession) error {
	if err := s.docs.Put(ctx, key(session.UserID, session.Kind), session); err != nil {
		return fmt.Errorf("save %s session: %w", session.Kind, err)
	}
	return nil
}

func (s *DocActiveSessionStore) Clear(ctx context.Context, userID string, kind domain.Kind, sessionID string) error {
	if sessionID != "" {
		current, err := s.Load(ctx, userID, kind)
		if errors.Is(err, apperrors.ErrNoActiveSession) {
			return nil
		}
		if err != nil {
			return err
		}
		if current.ID != sessionID {
			return nil
		}
	}
	if err := s.docs.Delete(ctx, key(userID, kind)); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("clear %s session: %w", kind, err)
	}
	return nil
}
