package service

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"vocabsync/internal/cache"
	"vocabsync/internal/domain"
)

// Operations orchestrates reads and mutations against the active
// backend: cache-first loads, backend-confirmed optimistic snapshot
// updates, and cache invalidation.
//
// The snapshot it holds is logically owned by this manager. Callers
// must treat returned data as read-only; every mutation produces new
// container references at each touched level (units slice, mutated
// unit, its words slice) while untouched siblings keep their prior
// references, so identity-based change detection observes updates.
type Operations struct {
	mu       sync.RWMutex
	selector *Selector
	cache    *cache.Manager
	logger   *zap.Logger
	snapshot *domain.StorageData
	loading  bool
	lastErr  string
}

// NewOperations creates the operations manager
func NewOperations(selector *Selector, c *cache.Manager, logger *zap.Logger) *Operations {
	return &Operations{
		selector: selector,
		cache:    c,
		logger:   logger,
	}
}

// Snapshot returns the current in-memory snapshot, nil before the
// first LoadData
func (o *Operations) Snapshot() *domain.StorageData {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.snapshot
}

// Loading reports whether a load or mutation is in flight
func (o *Operations) Loading() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.loading
}

// LastError returns the most recent backend failure message, empty
// when the last operation succeeded
func (o *Operations) LastError() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastErr
}

// LoadData performs a cache-first read of the full snapshot. On a
// cache miss the active backend is queried and the result cached with
// the default TTL. On backend failure the snapshot falls back to an
// empty one rather than staying undefined.
func (o *Operations) LoadData(ctx context.Context) (*domain.StorageData, error) {
	if v := o.cache.Get(cache.KeyUnits); v != nil {
		if data, ok := v.(*domain.StorageData); ok {
			o.adopt(data, "")
			return data, nil
		}
	}

	o.setLoading(true)
	defer o.setLoading(false)

	data, err := o.selector.ActiveBackend().GetAllData(ctx)
	if err != nil {
		o.logger.Error("Failed to load data", zap.Error(err))
		empty := domain.EmptyData()
		o.adopt(empty, err.Error())
		return empty, err
	}
	if data == nil {
		data = domain.EmptyData()
	}

	o.cache.Set(cache.KeyUnits, data)
	o.adopt(data, "")
	return data, nil
}

// SaveData writes the snapshot wholesale through the active backend
// and adopts it on success
func (o *Operations) SaveData(ctx context.Context, data *domain.StorageData) (bool, error) {
	o.setLoading(true)
	defer o.setLoading(false)

	ok, err := o.selector.ActiveBackend().SaveAllData(ctx, data)
	if err != nil {
		o.fail("failed to save data", err)
		return false, err
	}
	if !ok {
		return false, nil
	}

	o.invalidate()
	o.adopt(data, "")
	return true, nil
}

// CreateNewUnit creates a unit through the backend and appends it to
// the snapshot optimistically. Returns the new unit id on success.
func (o *Operations) CreateNewUnit(ctx context.Context, name string) (string, bool, error) {
	if vr := domain.ValidateUnitName(name); !vr.Valid {
		return "", false, nil
	}
	if o.Snapshot() == nil {
		return "", false, nil
	}

	o.setLoading(true)
	defer o.setLoading(false)

	id, err := o.selector.ActiveBackend().CreateUnit(ctx, name)
	if err != nil {
		o.fail("failed to create unit", err)
		return "", false, err
	}

	o.invalidate()
	o.apply(func(snap *domain.StorageData) *domain.StorageData {
		unit := domain.NewUnit(name)
		unit.ID = id
		units := make([]*domain.Unit, len(snap.Units), len(snap.Units)+1)
		copy(units, snap.Units)
		return &domain.StorageData{Units: append(units, unit)}
	})
	return id, true, nil
}

// AddWordToUnit adds a word through the backend, then appends it to
// the unit's words optimistically
func (o *Operations) AddWordToUnit(ctx context.Context, unitID, word, meaning string) (bool, error) {
	if vr := domain.ValidateWordInput(word, meaning); !vr.Valid {
		return false, nil
	}
	return o.mutateUnit(ctx, unitID,
		func(ctx context.Context) (bool, error) {
			return o.selector.ActiveBackend().AddWord(ctx, unitID, word, meaning)
		},
		func(u *domain.Unit) {
			u.Words = append(u.Words, domain.NewWord(unitID, word, meaning))
		})
}

// UpdateWordInUnit applies a partial word update through the backend,
// then mirrors it in the snapshot
func (o *Operations) UpdateWordInUnit(ctx context.Context, unitID, wordID string, upd domain.WordUpdate) (bool, error) {
	return o.mutateUnit(ctx, unitID,
		func(ctx context.Context) (bool, error) {
			return o.selector.ActiveBackend().UpdateWord(ctx, unitID, wordID, upd)
		},
		func(u *domain.Unit) {
			replaceWord(u, wordID, func(w *domain.Word) {
				if upd.Word != nil {
					w.Word = *upd.Word
				}
				if upd.Meaning != nil {
					w.Meaning = *upd.Meaning
				}
				if upd.Mastered != nil {
					w.Mastered = *upd.Mastered
				}
			})
		})
}

// ToggleWordMastered flips a word's mastered state through the
// backend and mirrors the review in the snapshot
func (o *Operations) ToggleWordMastered(ctx context.Context, unitID, wordID string) (bool, error) {
	return o.mutateUnit(ctx, unitID,
		func(ctx context.Context) (bool, error) {
			return o.selector.ActiveBackend().ToggleWordMastered(ctx, unitID, wordID)
		},
		func(u *domain.Unit) {
			replaceWord(u, wordID, func(w *domain.Word) {
				w.MarkReviewed(!w.Mastered)
			})
		})
}

// SetWordMastered sets a word's mastered state directly through the
// backend and mirrors the review in the snapshot
func (o *Operations) SetWordMastered(ctx context.Context, unitID, wordID string, mastered bool) (bool, error) {
	return o.mutateUnit(ctx, unitID,
		func(ctx context.Context) (bool, error) {
			return o.selector.ActiveBackend().SetWordMastered(ctx, unitID, wordID, mastered)
		},
		func(u *domain.Unit) {
			replaceWord(u, wordID, func(w *domain.Word) {
				w.MarkReviewed(mastered)
			})
		})
}

// UpdateUnitData applies a partial unit update through the backend,
// then mirrors it in the snapshot
func (o *Operations) UpdateUnitData(ctx context.Context, unitID string, upd domain.UnitUpdate) (bool, error) {
	if upd.Name != nil {
		if vr := domain.ValidateUnitName(*upd.Name); !vr.Valid {
			return false, nil
		}
	}
	return o.mutateUnit(ctx, unitID,
		func(ctx context.Context) (bool, error) {
			return o.selector.ActiveBackend().UpdateUnit(ctx, unitID, upd)
		},
		func(u *domain.Unit) {
			if upd.Name != nil {
				u.Name = *upd.Name
			}
		})
}

// DeleteWords removes words from a unit through the backend, then
// filters them out of the snapshot
func (o *Operations) DeleteWords(ctx context.Context, unitID string, wordIDs []string) (bool, error) {
	doomed := idSet(wordIDs)
	return o.mutateUnit(ctx, unitID,
		func(ctx context.Context) (bool, error) {
			return o.selector.ActiveBackend().DeleteItems(ctx, domain.DeleteRequest{
				Type:   domain.DeleteWords,
				IDs:    wordIDs,
				UnitID: unitID,
			})
		},
		func(u *domain.Unit) {
			kept := make([]*domain.Word, 0, len(u.Words))
			for _, w := range u.Words {
				if !doomed[w.ID] {
					kept = append(kept, w)
				}
			}
			u.Words = kept
		})
}

// DeleteUnits removes whole units (cascading to their words) through
// the backend, then filters them out of the snapshot
func (o *Operations) DeleteUnits(ctx context.Context, unitIDs []string) (bool, error) {
	if o.Snapshot() == nil {
		return false, nil
	}

	o.setLoading(true)
	defer o.setLoading(false)

	ok, err := o.selector.ActiveBackend().DeleteItems(ctx, domain.DeleteRequest{
		Type: domain.DeleteUnits,
		IDs:  unitIDs,
	})
	if err != nil {
		o.fail("failed to delete units", err)
		return false, err
	}
	if !ok {
		return false, nil
	}

	o.invalidate(unitIDs...)
	doomed := idSet(unitIDs)
	o.apply(func(snap *domain.StorageData) *domain.StorageData {
		kept := make([]*domain.Unit, 0, len(snap.Units))
		for _, u := range snap.Units {
			if !doomed[u.ID] {
				kept = append(kept, u)
			}
		}
		return &domain.StorageData{Units: kept}
	})
	return true, nil
}

// ExportJSON serializes the current snapshot for download/export
func (o *Operations) ExportJSON() ([]byte, error) {
	o.mu.RLock()
	snap := o.snapshot
	o.mu.RUnlock()

	if snap == nil {
		snap = domain.EmptyData()
	}
	return json.MarshalIndent(snap, "", "  ")
}

// mutateUnit runs the common mutation protocol for a single unit:
// require a snapshot, confirm with the backend, then invalidate the
// cache and apply the optimistic copy-on-write update. On failure
// nothing is touched.
func (o *Operations) mutateUnit(ctx context.Context, unitID string, confirm func(context.Context) (bool, error), change func(*domain.Unit)) (bool, error) {
	if o.Snapshot() == nil {
		return false, nil
	}

	o.setLoading(true)
	defer o.setLoading(false)

	ok, err := confirm(ctx)
	if err != nil {
		o.fail("operation failed", err)
		return false, err
	}
	if !ok {
		return false, nil
	}

	o.invalidate(unitID)
	o.apply(func(snap *domain.StorageData) *domain.StorageData {
		units := make([]*domain.Unit, len(snap.Units))
		copy(units, snap.Units)
		for i, u := range units {
			if u.ID != unitID {
				continue
			}
			clone := *u
			clone.Words = make([]*domain.Word, len(u.Words))
			copy(clone.Words, u.Words)
			change(&clone)
			units[i] = &clone
			break
		}
		return &domain.StorageData{Units: units}
	})
	return true, nil
}

// apply rebuilds the snapshot against whatever is current at
// completion time (concurrent mutations are last-write-wins)
func (o *Operations) apply(rebuild func(*domain.StorageData) *domain.StorageData) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.snapshot == nil {
		return
	}
	o.snapshot = rebuild(o.snapshot)
	o.lastErr = ""
}

// invalidate drops the snapshot-level cache entries plus any per-unit
// entries, forcing the next LoadData to hit the backend
func (o *Operations) invalidate(unitIDs ...string) {
	o.cache.Delete(cache.KeyUnits)
	o.cache.Delete(cache.KeyStatistics)
	for _, id := range unitIDs {
		o.cache.Delete(cache.UnitKey(id))
		o.cache.Delete(cache.UnitWordsKey(id))
	}
}

func (o *Operations) adopt(data *domain.StorageData, errMsg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshot = data
	o.lastErr = errMsg
}

func (o *Operations) setLoading(v bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loading = v
}

func (o *Operations) fail(msg string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastErr = msg + ": " + err.Error()
}

// replaceWord swaps the target word for a mutated copy, keeping the
// references of its siblings intact
func replaceWord(u *domain.Unit, wordID string, change func(*domain.Word)) {
	for i, w := range u.Words {
		if w.ID != wordID {
			continue
		}
		clone := *w
		change(&clone)
		u.Words[i] = &clone
		return
	}
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
