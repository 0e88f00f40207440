package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"alertwatch/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.deliveries.jsonl (append-only JSON Lines)
//   - <prefix>.shown.jsonl      (append-only journal of shown alert ids)
//
// The shown journal is replayed into memory at open. It only ever grows;
// the shown-set is an idempotency cache with no eviction by design.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	deliveryFile *os.File
	shownFile    *os.File
	shown        map[int64]int64 // id -> unix milli
}

type shownRecord struct {
	ID int64 `json:"id"`
	At int64 `json:"at"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	deliveryPath := prefix + ".deliveries.jsonl"
	shownPath := prefix + ".shown.jsonl"

	df, err := os.OpenFile(deliveryPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	shown := map[int64]int64{}
	if err := replayShownJournal(shownPath, shown); err != nil {
		log.Warn("shown journal replay failed", logx.String("path", shownPath), logx.Err(err))
	}

	sf, err := os.OpenFile(shownPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		_ = df.Close()
		return nil, err
	}

	return &fileStore{
		log:          log,
		deliveryFile: df,
		shownFile:    sf,
		shown:        shown,
	}, nil
}

func replayShownJournal(path string, into map[int64]int64) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec shownRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			// Tolerate a torn tail line; everything before it is valid.
			continue
		}
		into[rec.ID] = rec.At
	}
	return sc.Err()
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err1, err2 error
	if s.deliveryFile != nil {
		err1 = s.deliveryFile.Close()
		s.deliveryFile = nil
	}
	if s.shownFile != nil {
		err2 = s.shownFile.Close()
		s.shownFile = nil
	}
	if err1 != nil {
		return err1
	}
	return err2
}

func (s *fileStore) AppendDelivery(ctx context.Context, e DeliveryEntry) error {
	_ = ctx
	if e.At.IsZero() {
		e.At = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deliveryFile == nil {
		return errors.New("delivery file closed")
	}
	return json.NewEncoder(s.deliveryFile).Encode(e)
}

func (s *fileStore) PutShown(ctx context.Context, id int64, at time.Time) error {
	_ = ctx
	if at.IsZero() {
		at = time.Now()
	}
	ms := at.UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shownFile == nil {
		return errors.New("shown journal closed")
	}
	if _, ok := s.shown[id]; ok {
		return nil
	}
	if err := json.NewEncoder(s.shownFile).Encode(shownRecord{ID: id, At: ms}); err != nil {
		return err
	}
	s.shown[id] = ms
	return nil
}

func (s *fileStore) ListShown(ctx context.Context) ([]int64, error) {
	_ = ctx
	s.mu.Lock()
	out := make([]int64, 0, len(s.shown))
	for id := range s.shown {
		out = append(out, id)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
