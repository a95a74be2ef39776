// Package local implements the persistence backend used for anonymous
// sessions: the whole StorageData snapshot is kept as one JSON blob
// under a single key in an embedded SQLite key-value table.
package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"vocabsync/internal/domain"
)

// storageKey is the single key the snapshot blob lives under
const storageKey = "vocab_storage_data"

// Store implements repository.Backend over a local key-value table
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (or creates) the local store at path
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value BLOB NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize local store: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// New wraps an existing database handle; the kv table must exist
func New(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Close releases the underlying database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// GetAllData reads the snapshot, repairing legacy words that are
// missing ids. Repairs are persisted back on a best-effort basis.
func (s *Store) GetAllData(ctx context.Context) (*domain.StorageData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// SaveAllData overwrites the stored snapshot wholesale
func (s *Store) SaveAllData(ctx context.Context, data *domain.StorageData) (bool, error) {
	if data == nil {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store(ctx, data); err != nil {
		return false, err
	}
	return true, nil
}

// CreateUnit appends an empty unit and returns its id
func (s *Store) CreateUnit(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(ctx)
	if err != nil {
		return "", err
	}

	unit := domain.NewUnit(strings.TrimSpace(name))
	data.Units = append(data.Units, unit)
	if err := s.store(ctx, data); err != nil {
		return "", err
	}
	return unit.ID, nil
}

// AddWord appends a word to a unit
func (s *Store) AddWord(ctx context.Context, unitID, word, meaning string) (bool, error) {
	word = strings.TrimSpace(word)
	meaning = strings.TrimSpace(meaning)
	if word == "" || meaning == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	unit := data.FindUnit(unitID)
	if unit == nil {
		return false, nil
	}

	unit.Words = append(unit.Words, domain.NewWord(unitID, word, meaning))
	if err := s.store(ctx, data); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateWord applies a partial update to a word
func (s *Store) UpdateWord(ctx context.Context, unitID, wordID string, upd domain.WordUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	unit := data.FindUnit(unitID)
	if unit == nil {
		return false, nil
	}
	w := unit.FindWord(wordID)
	if w == nil {
		return false, nil
	}

	if upd.Word != nil {
		w.Word = *upd.Word
	}
	if upd.Meaning != nil {
		w.Meaning = *upd.Meaning
	}
	if upd.Mastered != nil {
		w.Mastered = *upd.Mastered
	}

	if err := s.store(ctx, data); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateUnit applies a partial update to a unit
func (s *Store) UpdateUnit(ctx context.Context, unitID string, upd domain.UnitUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	unit := data.FindUnit(unitID)
	if unit == nil {
		return false, nil
	}
	if upd.Name != nil {
		unit.Name = strings.TrimSpace(*upd.Name)
	}

	if err := s.store(ctx, data); err != nil {
		return false, err
	}
	return true, nil
}

// ToggleWordMastered flips mastered state and records the review
func (s *Store) ToggleWordMastered(ctx context.Context, unitID, wordID string) (bool, error) {
	return s.review(ctx, unitID, wordID, func(w *domain.Word) bool {
		return !w.Mastered
	})
}

// SetWordMastered sets mastered state directly and records the review
func (s *Store) SetWordMastered(ctx context.Context, unitID, wordID string, mastered bool) (bool, error) {
	return s.review(ctx, unitID, wordID, func(*domain.Word) bool {
		return mastered
	})
}

func (s *Store) review(ctx context.Context, unitID, wordID string, next func(*domain.Word) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	unit := data.FindUnit(unitID)
	if unit == nil {
		return false, nil
	}
	w := unit.FindWord(wordID)
	if w == nil {
		return false, nil
	}

	w.MarkReviewed(next(w))
	if err := s.store(ctx, data); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteItems removes words from a unit, or whole units with their words
func (s *Store) DeleteItems(ctx context.Context, req domain.DeleteRequest) (bool, error) {
	if len(req.IDs) == 0 {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	doomed := make(map[string]bool, len(req.IDs))
	for _, id := range req.IDs {
		doomed[id] = true
	}

	removed := 0
	switch req.Type {
	case domain.DeleteWords:
		if req.UnitID == "" {
			return false, nil
		}
		unit := data.FindUnit(req.UnitID)
		if unit == nil {
			return false, nil
		}
		kept := unit.Words[:0]
		for _, w := range unit.Words {
			if doomed[w.ID] {
				removed++
				continue
			}
			kept = append(kept, w)
		}
		unit.Words = kept
	case domain.DeleteUnits:
		kept := data.Units[:0]
		for _, u := range data.Units {
			if doomed[u.ID] {
				removed++
				continue
			}
			kept = append(kept, u)
		}
		data.Units = kept
	default:
		return false, nil
	}

	if removed == 0 {
		return false, nil
	}
	if err := s.store(ctx, data); err != nil {
		return false, err
	}
	return true, nil
}

// MasteredWords returns every mastered word
func (s *Store) MasteredWords(ctx context.Context) ([]*domain.Word, error) {
	return s.filterWords(ctx, true)
}

// UnmasteredWords returns every not-yet-mastered word
func (s *Store) UnmasteredWords(ctx context.Context) ([]*domain.Word, error) {
	return s.filterWords(ctx, false)
}

func (s *Store) filterWords(ctx context.Context, mastered bool) ([]*domain.Word, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var words []*domain.Word
	for _, u := range data.Units {
		for _, w := range u.Words {
			if w.Mastered == mastered {
				words = append(words, w)
			}
		}
	}
	return words, nil
}

// load reads and deserializes the blob, running the id-backfill repair
// pass. Caller must hold the lock.
func (s *Store) load(ctx context.Context) (*domain.StorageData, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, storageKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return domain.EmptyData(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read local store: %w", err)
	}

	var data domain.StorageData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode local store: %w", err)
	}
	if data.Units == nil {
		data.Units = []*domain.Unit{}
	}

	if backfillIDs(&data) {
		// Best effort: the repaired snapshot is returned either way
		if err := s.store(ctx, &data); err != nil {
			s.logger.Warn("Failed to persist id backfill", zap.Error(err))
		}
	}
	return &data, nil
}

// store serializes and writes the blob. Caller must hold the lock.
func (s *Store) store(ctx context.Context, data *domain.StorageData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, storageKey, raw)
	if err != nil {
		return fmt.Errorf("failed to write local store: %w", err)
	}
	return nil
}

// backfillIDs repairs legacy entries: words missing an id get a fresh
// one, and unit ownership references are restored. Reports whether
// anything changed.
func backfillIDs(data *domain.StorageData) bool {
	changed := false
	for _, u := range data.Units {
		if u.ID == "" {
			u.ID = uuid.NewString()
			changed = true
		}
		for _, w := range u.Words {
			if w.ID == "" {
				w.ID = uuid.NewString()
				changed = true
			}
			if w.UnitID != u.ID {
				w.UnitID = u.ID
				changed = true
			}
		}
	}
	return changed
}
