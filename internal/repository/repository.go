package repository

import (
	"context"

	"vocabsync/internal/domain"
)

// Backend is the contract both persistence backends satisfy. Expected
// failures (unknown ids, empty input after trim) are reported as a
// false result with a nil error; a non-nil error means a backend-level
// fault the caller must handle.
type Backend interface {
	// GetAllData returns the full snapshot. Never returns a nil
	// snapshot alongside a nil error.
	GetAllData(ctx context.Context) (*domain.StorageData, error)

	// SaveAllData overwrites the stored snapshot wholesale
	SaveAllData(ctx context.Context, data *domain.StorageData) (bool, error)

	// CreateUnit creates an empty unit and returns its id
	CreateUnit(ctx context.Context, name string) (string, error)

	// AddWord appends a word to a unit; false if the unit is unknown
	// or word/meaning are empty after trim
	AddWord(ctx context.Context, unitID, word, meaning string) (bool, error)

	// UpdateWord applies a partial update; false if unit or word is unknown
	UpdateWord(ctx context.Context, unitID, wordID string, upd domain.WordUpdate) (bool, error)

	// UpdateUnit applies a partial update; false if the unit is unknown
	UpdateUnit(ctx context.Context, unitID string, upd domain.UnitUpdate) (bool, error)

	// ToggleWordMastered flips mastered state, increments the review
	// counter and stamps the review time
	ToggleWordMastered(ctx context.Context, unitID, wordID string) (bool, error)

	// SetWordMastered sets mastered state directly, with the same
	// review-counter side effects as ToggleWordMastered
	SetWordMastered(ctx context.Context, unitID, wordID string, mastered bool) (bool, error)

	// DeleteItems removes words or units in one batch; unit deletions
	// cascade to all owned words
	DeleteItems(ctx context.Context, req domain.DeleteRequest) (bool, error)

	// MasteredWords returns every mastered word across all units
	MasteredWords(ctx context.Context) ([]*domain.Word, error)

	// UnmasteredWords returns every not-yet-mastered word
	UnmasteredWords(ctx context.Context) ([]*domain.Word, error)
}
