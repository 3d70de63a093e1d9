package out

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"studypact/internal/modules/timeledger/domain"
	ledgerout "studypact/internal/modules/timeledger/port/out"
)

// FileHistoryStore is the append-only analytics log of credited intervals.
type FileHistoryStore struct {
	path string
	mu   sync.Mutex
}

func NewFileHistoryStore(dataPath string) ledgerout.HistoryStore {
	return &FileHistoryStore{path: filepath.Join(dataPath, "ledger", "history.jsonl")}
}

func (s *FileHistoryStore) Append(_ context.Context, record domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history log: %w", err)
	}
	defer file.Close()
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode history record: %w", err)
	}
	if _, err := file.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write history log: %w", err)
	}
	return nil
}

func (s *FileHistoryStore) List(_ context.Context, userID string, limit int) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Record{}, nil
		}
		return nil, fmt.Errorf("open history log: %w", err)
	}
	defer file.Close()

	records := []domain.Record{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		rec := domain.Record{}
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if rec.UserID != userID {
			continue
		}
		if limit > 0 && len(records) == limit {
			copy(records, records[1:])
			records[len(records)-1] = rec
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan history log: %w", err)
	}
	return records, nil
}
