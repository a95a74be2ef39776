package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vocabsync/internal/testutil"
)

func TestParseImport_Nested(t *testing.T) {
	raw := []byte(`{
		"units": [
			{"name": "Fruits", "words": [
				{"word": "apple", "meaning": "苹果"},
				{"word": "banana", "meaning": "香蕉"}
			]},
			{"name": "Animals", "words": [
				{"word": "cat", "meaning": "猫"}
			]}
		]
	}`)

	units, err := ParseImport(raw)

	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "Fruits", units[0].Name)
	assert.Len(t, units[0].Words, 2)
	assert.Equal(t, "Animals", units[1].Name)
}

func TestParseImport_FlatWithUnits(t *testing.T) {
	raw := []byte(`[
		{"unit": "Fruits", "word": "apple", "meaning": "苹果"},
		{"unit": "Animals", "word": "cat", "meaning": "猫"},
		{"unit": "Fruits", "word": "banana", "meaning": "香蕉"}
	]`)

	units, err := ParseImport(raw)

	require.NoError(t, err)
	require.Len(t, units, 2, "rows group by unit in first-seen order")
	assert.Equal(t, "Fruits", units[0].Name)
	require.Len(t, units[0].Words, 2)
	assert.Equal(t, "banana", units[0].Words[1].Word)
	assert.Equal(t, "Animals", units[1].Name)
}

func TestParseImport_FlatWithoutUnits(t *testing.T) {
	raw := []byte(`[
		{"word": "apple", "meaning": "苹果"},
		{"word": "banana", "meaning": "香蕉"}
	]`)

	units, err := ParseImport(raw)

	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Empty(t, units[0].Name)
	assert.Len(t, units[0].Words, 2)
}

func TestParseImport_YAML(t *testing.T) {
	raw := []byte(`
units:
  - name: Fruits
    words:
      - word: apple
        meaning: 苹果
`)

	units, err := ParseImport(raw)

	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "Fruits", units[0].Name)
	require.Len(t, units[0].Words, 1)
	assert.Equal(t, "apple", units[0].Words[0].Word)
}

func TestParseImport_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "garbage", raw: `{{{not data`},
		{name: "empty list", raw: `[]`},
		{name: "rows without words", raw: `[{"unit": "Fruits", "word": "", "meaning": ""}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseImport([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestOperations_ImportData_CreatesUnitsAndWords(t *testing.T) {
	ops, backend, c := newTestOps(t)
	seedSnapshot(ops, c, testutil.NewTestData())

	backend.On("CreateUnit", mock.Anything, "Fruits").Return("u-fruits", nil)
	backend.On("AddWord", mock.Anything, "u-fruits", "apple", "苹果").Return(true, nil)
	backend.On("AddWord", mock.Anything, "u-fruits", "banana", "香蕉").Return(true, nil)

	result, err := ops.ImportData(context.Background(), []ImportUnit{
		{Name: "Fruits", Words: []ImportWord{
			{Word: "apple", Meaning: "苹果"},
			{Word: "banana", Meaning: "香蕉"},
		}},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.UnitsCreated)
	assert.Equal(t, 2, result.WordsAdded)
	assert.Equal(t, 0, result.Skipped)

	// The import went through the operations manager: the snapshot
	// reflects it without a reload
	snap := ops.Snapshot()
	require.Len(t, snap.Units, 1)
	assert.Len(t, snap.Units[0].Words, 2)

	backend.AssertExpectations(t)
}

func TestOperations_ImportData_MergesIntoExistingUnit(t *testing.T) {
	ops, backend, c := newTestOps(t)

	existing := testutil.NewTestUnit("u1", "Fruits", testutil.NewTestWord("w1", "u1", "apple", "苹果"))
	seedSnapshot(ops, c, testutil.NewTestData(existing))

	backend.On("AddWord", mock.Anything, "u1", "banana", "香蕉").Return(true, nil)

	result, err := ops.ImportData(context.Background(), []ImportUnit{
		{Name: "fruits", Words: []ImportWord{
			{Word: "apple", Meaning: "苹果"},
			{Word: "banana", Meaning: "香蕉"},
		}},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, result.UnitsCreated, "unit names match case-insensitively")
	assert.Equal(t, 1, result.WordsAdded)
	assert.Equal(t, 1, result.Skipped, "existing words are not duplicated")

	backend.AssertNotCalled(t, "CreateUnit", mock.Anything, mock.Anything)
}

func TestOperations_ImportData_UnnamedGroupGetsDefault(t *testing.T) {
	ops, backend, c := newTestOps(t)
	seedSnapshot(ops, c, testutil.NewTestData())

	backend.On("CreateUnit", mock.Anything, DefaultImportUnitName).Return("u-default", nil)
	backend.On("AddWord", mock.Anything, "u-default", "apple", "苹果").Return(true, nil)

	result, err := ops.ImportData(context.Background(), []ImportUnit{
		{Words: []ImportWord{{Word: "apple", Meaning: "苹果"}}},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.UnitsCreated)
	assert.Equal(t, 1, result.WordsAdded)
}
