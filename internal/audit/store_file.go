package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Raoof128/ILAE/internal/domain"
)

// FileStore writes one JSON record per line into a file per UTC calendar
// day (audit_2026-08-29.jsonl). Files are only ever appended to.
type FileStore struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewFileStore creates the audit directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (s *FileStore) Append(_ context.Context, record domain.AuditRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, fmt.Sprintf("audit_%s.jsonl", s.now().UTC().Format("2006-01-02")))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

// List scans day files newest first, and lines within each file newest
// first, so results come back most recent first without a global sort.
// Unparseable lines are skipped rather than failing the whole query.
func (s *FileStore) List(_ context.Context, filter Filter) ([]domain.AuditRecord, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "audit_*.jsonl"))
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))

	var out []domain.AuditRecord
	for _, path := range paths {
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
		records, err := readDay(path)
		if err != nil {
			continue
		}
		for i := len(records) - 1; i >= 0; i-- {
			if filter.Limit > 0 && len(out) >= filter.Limit {
				break
			}
			if filter.Matches(records[i]) {
				out = append(out, records[i])
			}
		}
	}
	return out, nil
}

func readDay(path string) ([]domain.AuditRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []domain.AuditRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var record domain.AuditRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	return records, scanner.Err()
}
