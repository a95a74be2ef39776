// Package remote implements the persistence backend for signed-in
// users: a per-identity unit/word hierarchy stored in PostgreSQL.
package remote

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"vocabsync/internal/domain"
)

// Store implements repository.Backend for a single identity. All
// queries are scoped by the user id; ids and ownership live in the
// row keys, mirroring a document hierarchy.
type Store struct {
	db     *sql.DB
	userID string
	logger *zap.Logger
}

// New creates a remote store scoped to the given identity
func New(db *sql.DB, userID string, logger *zap.Logger) *Store {
	return &Store{db: db, userID: userID, logger: logger}
}

// GetAllData loads every unit and word owned by the identity
func (s *Store) GetAllData(ctx context.Context) (*domain.StorageData, error) {
	units, err := s.loadUnits(ctx)
	if err != nil {
		return nil, err
	}

	byUnit, err := s.loadWords(ctx)
	if err != nil {
		return nil, err
	}

	for _, u := range units {
		if words, ok := byUnit[u.ID]; ok {
			u.Words = words
		}
	}
	return &domain.StorageData{Units: units}, nil
}

func (s *Store) loadUnits(ctx context.Context) ([]*domain.Unit, error) {
	query := `
		SELECT id, name, create_time
		FROM units
		WHERE user_id = $1
		ORDER BY create_time
	`
	rows, err := s.db.QueryContext(ctx, query, s.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load units: %w", err)
	}
	defer rows.Close()

	units := []*domain.Unit{}
	for rows.Next() {
		var u domain.Unit
		var created any
		if err := rows.Scan(&u.ID, &u.Name, &created); err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		u.CreateTime = normalizeTimestamp(created)
		u.Words = []*domain.Word{}
		units = append(units, &u)
	}
	return units, rows.Err()
}

func (s *Store) loadWords(ctx context.Context) (map[string][]*domain.Word, error) {
	query := `
		SELECT id, unit_id, word, meaning, mastered, create_time, review_times, last_review_time
		FROM words
		WHERE user_id = $1
		ORDER BY create_time
	`
	rows, err := s.db.QueryContext(ctx, query, s.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load words: %w", err)
	}
	defer rows.Close()

	byUnit := make(map[string][]*domain.Word)
	for rows.Next() {
		var w domain.Word
		var created, reviewed any
		if err := rows.Scan(&w.ID, &w.UnitID, &w.Word, &w.Meaning, &w.Mastered, &created, &w.ReviewTimes, &reviewed); err != nil {
			return nil, fmt.Errorf("failed to scan word: %w", err)
		}
		w.CreateTime = normalizeTimestamp(created)
		w.LastReviewTime = normalizeNullableTimestamp(reviewed)
		byUnit[w.UnitID] = append(byUnit[w.UnitID], &w)
	}
	return byUnit, rows.Err()
}

// SaveAllData replaces the identity's whole hierarchy in one transaction
func (s *Store) SaveAllData(ctx context.Context, data *domain.StorageData) (bool, error) {
	if data == nil {
		return false, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM words WHERE user_id = $1`, s.userID); err != nil {
		return false, fmt.Errorf("failed to clear words: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM units WHERE user_id = $1`, s.userID); err != nil {
		return false, fmt.Errorf("failed to clear units: %w", err)
	}

	for _, u := range data.Units {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO units (user_id, id, name, create_time)
			VALUES ($1, $2, $3, $4)
		`, s.userID, u.ID, u.Name, time.UnixMilli(u.CreateTime))
		if err != nil {
			return false, fmt.Errorf("failed to insert unit: %w", err)
		}

		for _, w := range u.Words {
			var reviewed *time.Time
			if w.LastReviewTime != nil {
				t := time.UnixMilli(*w.LastReviewTime)
				reviewed = &t
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO words (user_id, id, unit_id, word, meaning, mastered, create_time, review_times, last_review_time)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`, s.userID, w.ID, u.ID, w.Word, w.Meaning, w.Mastered, time.UnixMilli(w.CreateTime), w.ReviewTimes, reviewed)
			if err != nil {
				return false, fmt.Errorf("failed to insert word: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit save: %w", err)
	}
	return true, nil
}

// CreateUnit inserts an empty unit and returns its id
func (s *Store) CreateUnit(ctx context.Context, name string) (string, error) {
	id := uuid.NewString()
	query := `
		INSERT INTO units (user_id, id, name, create_time)
		VALUES ($1, $2, $3, NOW())
	`
	if _, err := s.db.ExecContext(ctx, query, s.userID, id, strings.TrimSpace(name)); err != nil {
		return "", fmt.Errorf("failed to create unit: %w", err)
	}
	return id, nil
}

// AddWord inserts a word under an existing unit
func (s *Store) AddWord(ctx context.Context, unitID, word, meaning string) (bool, error) {
	word = strings.TrimSpace(word)
	meaning = strings.TrimSpace(meaning)
	if word == "" || meaning == "" {
		return false, nil
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM units WHERE user_id = $1 AND id = $2)
	`, s.userID, unitID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check unit: %w", err)
	}
	if !exists {
		return false, nil
	}

	query := `
		INSERT INTO words (user_id, id, unit_id, word, meaning, mastered, create_time, review_times, last_review_time)
		VALUES ($1, $2, $3, $4, $5, FALSE, NOW(), 0, NULL)
	`
	if _, err := s.db.ExecContext(ctx, query, s.userID, uuid.NewString(), unitID, word, meaning); err != nil {
		return false, fmt.Errorf("failed to add word: %w", err)
	}
	return true, nil
}

// UpdateWord applies the non-nil fields of upd to one word
func (s *Store) UpdateWord(ctx context.Context, unitID, wordID string, upd domain.WordUpdate) (bool, error) {
	sets := []string{}
	args := []any{s.userID, unitID, wordID}

	if upd.Word != nil {
		args = append(args, *upd.Word)
		sets = append(sets, fmt.Sprintf("word = $%d", len(args)))
	}
	if upd.Meaning != nil {
		args = append(args, *upd.Meaning)
		sets = append(sets, fmt.Sprintf("meaning = $%d", len(args)))
	}
	if upd.Mastered != nil {
		args = append(args, *upd.Mastered)
		sets = append(sets, fmt.Sprintf("mastered = $%d", len(args)))
	}
	if len(sets) == 0 {
		return false, nil
	}

	query := fmt.Sprintf(`
		UPDATE words
		SET %s
		WHERE user_id = $1 AND unit_id = $2 AND id = $3
	`, strings.Join(sets, ", "))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update word: %w", err)
	}
	return affected(res)
}

// UpdateUnit applies the non-nil fields of upd to one unit
func (s *Store) UpdateUnit(ctx context.Context, unitID string, upd domain.UnitUpdate) (bool, error) {
	if upd.Name == nil {
		return false, nil
	}

	query := `
		UPDATE units
		SET name = $3
		WHERE user_id = $1 AND id = $2
	`
	res, err := s.db.ExecContext(ctx, query, s.userID, unitID, strings.TrimSpace(*upd.Name))
	if err != nil {
		return false, fmt.Errorf("failed to update unit: %w", err)
	}
	return affected(res)
}

// ToggleWordMastered flips mastered state and records the review
func (s *Store) ToggleWordMastered(ctx context.Context, unitID, wordID string) (bool, error) {
	query := `
		UPDATE words
		SET mastered = NOT mastered,
			review_times = review_times + 1,
			last_review_time = NOW()
		WHERE user_id = $1 AND unit_id = $2 AND id = $3
	`
	res, err := s.db.ExecContext(ctx, query, s.userID, unitID, wordID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle word: %w", err)
	}
	return affected(res)
}

// SetWordMastered sets mastered state directly and records the review
func (s *Store) SetWordMastered(ctx context.Context, unitID, wordID string, mastered bool) (bool, error) {
	query := `
		UPDATE words
		SET mastered = $4,
			review_times = review_times + 1,
			last_review_time = NOW()
		WHERE user_id = $1 AND unit_id = $2 AND id = $3
	`
	res, err := s.db.ExecContext(ctx, query, s.userID, unitID, wordID, mastered)
	if err != nil {
		return false, fmt.Errorf("failed to set mastered: %w", err)
	}
	return affected(res)
}

// DeleteItems removes words, or units with all owned words. Unit
// deletion runs as a single transaction so no orphaned word rows are
// left behind on partial failure.
func (s *Store) DeleteItems(ctx context.Context, req domain.DeleteRequest) (bool, error) {
	if len(req.IDs) == 0 {
		return false, nil
	}

	switch req.Type {
	case domain.DeleteWords:
		if req.UnitID == "" {
			return false, nil
		}
		query := `
			DELETE FROM words
			WHERE user_id = $1 AND unit_id = $2 AND id = ANY($3)
		`
		res, err := s.db.ExecContext(ctx, query, s.userID, req.UnitID, pq.Array(req.IDs))
		if err != nil {
			return false, fmt.Errorf("failed to delete words: %w", err)
		}
		return affected(res)

	case domain.DeleteUnits:
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return false, fmt.Errorf("failed to begin delete: %w", err)
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(ctx, `
			DELETE FROM words
			WHERE user_id = $1 AND unit_id = ANY($2)
		`, s.userID, pq.Array(req.IDs))
		if err != nil {
			return false, fmt.Errorf("failed to delete unit words: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			DELETE FROM units
			WHERE user_id = $1 AND id = ANY($2)
		`, s.userID, pq.Array(req.IDs))
		if err != nil {
			return false, fmt.Errorf("failed to delete units: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		if n == 0 {
			return false, nil
		}

		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("failed to commit delete: %w", err)
		}
		return true, nil
	}

	return false, nil
}

// MasteredWords returns every mastered word for the identity
func (s *Store) MasteredWords(ctx context.Context) ([]*domain.Word, error) {
	return s.wordsByMastered(ctx, true)
}

// UnmasteredWords returns every not-yet-mastered word for the identity
func (s *Store) UnmasteredWords(ctx context.Context) ([]*domain.Word, error) {
	return s.wordsByMastered(ctx, false)
}

func (s *Store) wordsByMastered(ctx context.Context, mastered bool) ([]*domain.Word, error) {
	query := `
		SELECT id, unit_id, word, meaning, mastered, create_time, review_times, last_review_time
		FROM words
		WHERE user_id = $1 AND mastered = $2
		ORDER BY create_time
	`
	rows, err := s.db.QueryContext(ctx, query, s.userID, mastered)
	if err != nil {
		return nil, fmt.Errorf("failed to load words: %w", err)
	}
	defer rows.Close()

	var words []*domain.Word
	for rows.Next() {
		var w domain.Word
		var created, reviewed any
		if err := rows.Scan(&w.ID, &w.UnitID, &w.Word, &w.Meaning, &w.Mastered, &created, &w.ReviewTimes, &reviewed); err != nil {
			return nil, fmt.Errorf("failed to scan word: %w", err)
		}
		w.CreateTime = normalizeTimestamp(created)
		w.LastReviewTime = normalizeNullableTimestamp(reviewed)
		words = append(words, &w)
	}
	return words, rows.Err()
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
