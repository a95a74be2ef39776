package testutil

import (
	"time"

	"go.uber.org/zap"

	"vocabsync/internal/domain"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestWord creates a test word with review state zeroed
func NewTestWord(id, unitID, word, meaning string) *domain.Word {
	return &domain.Word{
		ID:         id,
		Word:       word,
		Meaning:    meaning,
		UnitID:     unitID,
		CreateTime: time.Now().UnixMilli(),
	}
}

// NewTestUnit creates a test unit owning the given words
func NewTestUnit(id, name string, words ...*domain.Word) *domain.Unit {
	if words == nil {
		words = []*domain.Word{}
	}
	return &domain.Unit{
		ID:         id,
		Name:       name,
		CreateTime: time.Now().UnixMilli(),
		Words:      words,
	}
}

// NewTestData builds a snapshot from units
func NewTestData(units ...*domain.Unit) *domain.StorageData {
	if units == nil {
		units = []*domain.Unit{}
	}
	return &domain.StorageData{Units: units}
}
