package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	apperrors "studypact/internal/platform/errors"
)

const defaultPollInterval = time.Second

type FileStore struct {
	root     string
	interval time.Duration

	mu       sync.Mutex
	nextID   int
	watchers map[string]map[int]*fileWatcher
}

type fileWatcher struct {
	mu      sync.Mutex
	key     Key
	fn      func(Change)
	modTime time.Time
	exists  bool
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root, interval: defaultPollInterval, watchers: map[string]map[int]*fileWatcher{}}
}

// WithPollInterval sets how often watchers look for writes made by other processes.
func (s *FileStore) WithPollInterval(d time.Duration) *FileStore {
	if d > 0 {
		s.interval = d
	}
	return s
}

func (s *FileStore) path(key Key) string {
	return filepath.Join(s.root, key.UserID, key.Kind, key.ID+".json")
}

func (s *FileStore) Get(_ context.Context, key Key, v any) error {
	if err := key.Validate(); err != nil {
		return err
	}
	payload, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("read %s: %w", key.Kind, err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode %s: %w", key.Kind, err)
	}
	return nil
}

func (s *FileStore) Put(_ context.Context, key Key, v any) error {
	if err := key.Validate(); err != nil {
		return err
	}
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s dir: %w", key.Kind, err)
	}
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key.Kind, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key.Kind, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", key.Kind, err)
	}
	s.notify(key)
	return nil
}

func (s *FileStore) Delete(_ context.Context, key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if err := os.Remove(s.path(key)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("delete %s: %w", key.Kind, err)
	}
	s.notify(key)
	return nil
}

func (s *FileStore) Watch(ctx context.Context, key Key, fn func(Change)) (func(), error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: watch callback is required", apperrors.ErrInvalidInput)
	}
	w := &fileWatcher{key: key, fn: fn}
	w.modTime, w.exists = s.stat(key)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	if s.watchers[key.String()] == nil {
		s.watchers[key.String()] = map[int]*fileWatcher{}
	}
	s.watchers[key.String()][id] = w
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.check(w)
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-done
			s.mu.Lock()
			delete(s.watchers[key.String()], id)
			if len(s.watchers[key.String()]) == 0 {
				delete(s.watchers, key.String())
			}
			s.mu.Unlock()
		})
	}
	return stop, nil
}

func (s *FileStore) stat(key Key) (time.Time, bool) {
	info, err := os.Stat(s.path(key))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

func (s *FileStore) notify(key Key) {
	s.mu.Lock()
	targets := make([]*fileWatcher, 0, len(s.watchers[key.String()]))
	for _, w := range s.watchers[key.String()] {
		targets = append(targets, w)
	}
	s.mu.Unlock()
	for _, w := range targets {
		s.check(w)
	}
}

// check delivers a change when the document's mtime or existence moved since
// the watcher last saw it, so in-process writes and polled writes never double fire.
func (s *FileStore) check(w *fileWatcher) {
	w.mu.Lock()
	modTime, exists := s.stat(w.key)
	if exists == w.exists && modTime.Equal(w.modTime) {
		w.mu.Unlock()
		return
	}
	w.modTime, w.exists = modTime, exists
	w.mu.Unlock()

	change := Change{Key: w.key, Deleted: !exists, At: time.Now().UTC()}
	if exists {
		payload, err := os.ReadFile(s.path(w.key))
		if err != nil {
			return
		}
		change.Data = payload
	}
	w.fn(change)
}
