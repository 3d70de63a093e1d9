package out

import (
	"context"
	"errors"
	"fmt"

	"studypact/internal/modules/challenge/domain"
	challengeout "studypact/internal/modules/challenge/port/out"
	"studypact/internal/platform/docstore"
	apperrors "studypact/internal/platform/errors"
)

// DocChallengeStore keeps the user's single challenge record, active or not,
// under one document.
type DocChallengeStore struct {
	docs docstore.Store
}

func NewDocChallengeStore(docs docstore.Store) challengeout.ChallengeStore {
	return &DocChallengeStore{docs: docs}
}

func key(userID string) docstore.Key {
	return docstore.Key{UserID: userID, Kind: "challenge", ID: "active"}
}

func (s *DocChallengeStore) Load(ctx context.Context, userID string) (domain.ActiveChallenge, error) {
	var record domain.ActiveChallenge
	if err := s.docs.Get(ctx, key(userID), &record); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.ActiveChallenge{}, apperrors.ErrNoActiveChallenge
		}
		return domain.ActiveChallenge{}, fmt.Errorf("load challenge: %w", err)
	}
	if record.TemplateID == "" {
		return domain.ActiveChallenge{}, apperrors.ErrNoActiveChallenge
	}
	if record.Progress == nil {
		record.Progress = map[int]map[string]domain.GoalProgress{}
	}
	return record, nil
}

func (s *DocChallengeStore) Save(ctx context.Context, record domain.ActiveChallenge) error {
	if record.SchemaVersion == 0 {
		record.SchemaVersion = domain.SchemaVersion
	}
	if err := s.docs.Put(ctx, key(record.UserID), record); err != nil {
		return fmt.Errorf("save challenge: %w", err)
	}
	return nil
}

func (s *DocChallengeStore) Delete(ctx context.Context, userID string) error {
	if err := s.docs.Delete(ctx, key(userID)); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("delete challenge: %w", err)
	}
	return nil
}

func (s *DocChallengeStore) Watch(ctx context.Context, userID string, fn func(domain.ActiveChallenge, bool)) (func(), error) {
	return s.docs.Watch(ctx, key(userID), func(change docstore.Change) {
		if change.Deleted {
			fn(domain.ActiveChallenge{}, true)
			return
		}
		var record domain.ActiveChallenge
		if err := change.Decode(&record); err != nil {
			return
		}
		fn(record, false)
	})
}
