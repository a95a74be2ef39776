package domain

import (
	"time"

	"github.com/google/uuid"
)

// Word represents a single vocabulary entry inside a unit
type Word struct {
	ID             string `json:"id"`
	Word           string `json:"word"`
	Meaning        string `json:"meaning"`
	UnitID         string `json:"unitId"`
	Mastered       bool   `json:"mastered"`
	CreateTime     int64  `json:"createTime"`
	ReviewTimes    int    `json:"reviewTimes"`
	LastReviewTime *int64 `json:"lastReviewTime"`
}

// Unit groups words for study; it owns its words exclusively
type Unit struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	CreateTime int64   `json:"createTime"`
	Words      []*Word `json:"words"`
}

// StorageData is the full snapshot exchanged wholesale with the
// cache and the persistence backends
type StorageData struct {
	Units []*Unit `json:"units"`
}

// NewWord creates a fresh word for a unit with review state zeroed
func NewWord(unitID, word, meaning string) *Word {
	return &Word{
		ID:          uuid.NewString(),
		Word:        word,
		Meaning:     meaning,
		UnitID:      unitID,
		Mastered:    false,
		CreateTime:  time.Now().UnixMilli(),
		ReviewTimes: 0,
	}
}

// NewUnit creates an empty unit
func NewUnit(name string) *Unit {
	return &Unit{
		ID:         uuid.NewString(),
		Name:       name,
		CreateTime: time.Now().UnixMilli(),
		Words:      []*Word{},
	}
}

// EmptyData returns an empty but non-nil snapshot
func EmptyData() *StorageData {
	return &StorageData{Units: []*Unit{}}
}

// FindUnit returns the unit with the given id, or nil
func (d *StorageData) FindUnit(unitID string) *Unit {
	for _, u := range d.Units {
		if u.ID == unitID {
			return u
		}
	}
	return nil
}

// FindWord returns the word with the given id inside the unit, or nil
func (u *Unit) FindWord(wordID string) *Word {
	for _, w := range u.Words {
		if w.ID == wordID {
			return w
		}
	}
	return nil
}

// MarkReviewed records a review outcome: sets mastered state,
// increments the review counter and stamps the review time
func (w *Word) MarkReviewed(mastered bool) {
	now := time.Now().UnixMilli()
	w.Mastered = mastered
	w.ReviewTimes++
	w.LastReviewTime = &now
}

// WordUpdate holds a partial word mutation; nil fields are left unchanged
type WordUpdate struct {
	Word     *string
	Meaning  *string
	Mastered *bool
}

// UnitUpdate holds a partial unit mutation; nil fields are left unchanged
type UnitUpdate struct {
	Name *string
}

// DeleteType selects what DeleteRequest removes
type DeleteType string

const (
	DeleteWords DeleteType = "word"
	DeleteUnits DeleteType = "unit"
)

// DeleteRequest describes a batch deletion. Word deletions require
// UnitID; unit deletions cascade to all owned words.
type DeleteRequest struct {
	Type   DeleteType
	IDs    []string
	UnitID string
}
