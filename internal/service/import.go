package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Import accepts three shapes of external data: a flat word/meaning
// list, a flat list with per-row unit names, and a nested units tree.
// All three reduce to CreateNewUnit/AddWordToUnit calls so the cache
// and optimistic-update semantics apply uniformly; nothing here writes
// to a backend directly.

// DefaultImportUnitName is used for entries that carry no unit name
const DefaultImportUnitName = "Imported"

// ImportWord is one word/meaning pair from an import file
type ImportWord struct {
	Word    string `json:"word" yaml:"word"`
	Meaning string `json:"meaning" yaml:"meaning"`
}

// ImportUnit is one named group of words to import
type ImportUnit struct {
	Name  string       `json:"name" yaml:"name"`
	Words []ImportWord `json:"words" yaml:"words"`
}

// ImportResult counts what an import run did
type ImportResult struct {
	UnitsCreated int
	WordsAdded   int
	Skipped      int
	Failed       int
}

type nestedImport struct {
	Units []ImportUnit `json:"units" yaml:"units"`
}

type flatImportEntry struct {
	Unit    string `json:"unit" yaml:"unit"`
	Word    string `json:"word" yaml:"word"`
	Meaning string `json:"meaning" yaml:"meaning"`
}

// ParseImport detects the shape of raw import data (JSON or YAML) and
// reduces it to unit groups, preserving input order
func ParseImport(raw []byte) ([]ImportUnit, error) {
	var nested nestedImport
	if err := decode(raw, &nested); err == nil && len(nested.Units) > 0 {
		return nested.Units, nil
	}

	var flat []flatImportEntry
	if err := decode(raw, &flat); err != nil || len(flat) == 0 {
		return nil, fmt.Errorf("unrecognized import format")
	}

	// Group rows by unit name, first-seen order. Rows without a unit
	// name fall into one shared group.
	order := []string{}
	groups := map[string]*ImportUnit{}
	for _, row := range flat {
		if strings.TrimSpace(row.Word) == "" {
			continue
		}
		name := strings.TrimSpace(row.Unit)
		g, ok := groups[name]
		if !ok {
			g = &ImportUnit{Name: name}
			groups[name] = g
			order = append(order, name)
		}
		g.Words = append(g.Words, ImportWord{Word: row.Word, Meaning: row.Meaning})
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("import data contains no words")
	}

	units := make([]ImportUnit, 0, len(order))
	for _, name := range order {
		units = append(units, *groups[name])
	}
	return units, nil
}

func decode(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err == nil {
		return nil
	}
	return yaml.Unmarshal(raw, v)
}

// ImportData merges parsed units into the store. Units whose name
// already exists in the snapshot are reused rather than duplicated,
// and words already present in the target unit are skipped.
func (o *Operations) ImportData(ctx context.Context, units []ImportUnit) (ImportResult, error) {
	var result ImportResult

	if o.Snapshot() == nil {
		if _, err := o.LoadData(ctx); err != nil {
			return result, err
		}
	}

	for _, group := range units {
		name := strings.TrimSpace(group.Name)
		if name == "" {
			name = DefaultImportUnitName
		}

		unitID := o.findUnitByName(name)
		if unitID == "" {
			id, ok, err := o.CreateNewUnit(ctx, name)
			if err != nil {
				return result, err
			}
			if !ok {
				result.Failed += len(group.Words)
				continue
			}
			unitID = id
			result.UnitsCreated++
		}

		for _, w := range group.Words {
			if o.unitHasWord(unitID, w.Word) {
				result.Skipped++
				continue
			}
			ok, err := o.AddWordToUnit(ctx, unitID, w.Word, w.Meaning)
			if err != nil {
				return result, err
			}
			if !ok {
				result.Failed++
				continue
			}
			result.WordsAdded++
		}
	}
	return result, nil
}

func (o *Operations) findUnitByName(name string) string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.snapshot == nil {
		return ""
	}
	for _, u := range o.snapshot.Units {
		if strings.EqualFold(u.Name, name) {
			return u.ID
		}
	}
	return ""
}

func (o *Operations) unitHasWord(unitID, word string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.snapshot == nil {
		return false
	}
	unit := o.snapshot.FindUnit(unitID)
	if unit == nil {
		return false
	}
	needle := strings.ToLower(strings.TrimSpace(word))
	for _, w := range unit.Words {
		if strings.ToLower(w.Word) == needle {
			return true
		}
	}
	return false
}
