package service

import (
	"strings"

	"vocabsync/internal/domain"
)

// Read-side derived queries. These operate purely on the in-memory
// snapshot; no backend or cache interaction.

// UnitStatistics summarizes one unit's mastery progress. The second
// result is false when the unit is unknown or no snapshot is loaded.
func (o *Operations) UnitStatistics(unitID string) (domain.UnitStatistics, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.snapshot == nil {
		return domain.UnitStatistics{}, false
	}
	unit := o.snapshot.FindUnit(unitID)
	if unit == nil {
		return domain.UnitStatistics{}, false
	}

	stats := domain.UnitStatistics{
		UnitID:   unit.ID,
		UnitName: unit.Name,
		Total:    len(unit.Words),
	}
	for _, w := range unit.Words {
		if w.Mastered {
			stats.Mastered++
		}
	}
	stats.Unmastered = stats.Total - stats.Mastered
	if stats.Total > 0 {
		stats.Progress = float64(stats.Mastered) / float64(stats.Total) * 100
	}
	return stats, true
}

// OverallStatistics summarizes mastery progress across every unit
func (o *Operations) OverallStatistics() domain.OverallStatistics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var stats domain.OverallStatistics
	if o.snapshot == nil {
		return stats
	}

	stats.Units = len(o.snapshot.Units)
	for _, u := range o.snapshot.Units {
		stats.Total += len(u.Words)
		for _, w := range u.Words {
			if w.Mastered {
				stats.Mastered++
			}
		}
	}
	stats.Unmastered = stats.Total - stats.Mastered
	if stats.Total > 0 {
		stats.Progress = float64(stats.Mastered) / float64(stats.Total) * 100
	}
	return stats
}

// FindDuplicateWord looks the word up across all units
// (case-insensitive) and returns the owning unit's name
func (o *Operations) FindDuplicateWord(word string) (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.snapshot == nil {
		return "", false
	}

	needle := strings.ToLower(strings.TrimSpace(word))
	for _, u := range o.snapshot.Units {
		for _, w := range u.Words {
			if strings.ToLower(w.Word) == needle {
				return u.Name, true
			}
		}
	}
	return "", false
}
