package domain

import "strings"

const (
	// MaxWordLength bounds the word field
	MaxWordLength = 100
	// MaxMeaningLength bounds the meaning field
	MaxMeaningLength = 200
	// MaxUnitNameLength bounds unit names
	MaxUnitNameLength = 50
)

// unitNameForbidden lists characters that would break downstream
// CSV/JSON export of unit names
const unitNameForbidden = `<>"'`

// ValidationResult is the outcome of a pure input check; it is
// returned, never raised
type ValidationResult struct {
	Valid   bool
	Message string
}

func valid() ValidationResult {
	return ValidationResult{Valid: true}
}

func invalid(msg string) ValidationResult {
	return ValidationResult{Valid: false, Message: msg}
}

// ValidateWordInput checks a word/meaning pair before any backend call
func ValidateWordInput(word, meaning string) ValidationResult {
	word = strings.TrimSpace(word)
	meaning = strings.TrimSpace(meaning)

	if word == "" {
		return invalid("word cannot be empty")
	}
	if meaning == "" {
		return invalid("meaning cannot be empty")
	}
	if len(word) > MaxWordLength {
		return invalid("word is too long")
	}
	if len(meaning) > MaxMeaningLength {
		return invalid("meaning is too long")
	}
	return valid()
}

// ValidateUnitName checks a unit name before any backend call
func ValidateUnitName(name string) ValidationResult {
	name = strings.TrimSpace(name)

	if name == "" {
		return invalid("unit name cannot be empty")
	}
	if len(name) > MaxUnitNameLength {
		return invalid("unit name is too long")
	}
	if strings.ContainsAny(name, unitNameForbidden) {
		return invalid("unit name contains forbidden characters")
	}
	return valid()
}
