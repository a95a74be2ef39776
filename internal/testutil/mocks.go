package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"vocabsync/internal/domain"
)

// MockBackend is a mock for repository.Backend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) GetAllData(ctx context.Context) (*domain.StorageData, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StorageData), args.Error(1)
}

func (m *MockBackend) SaveAllData(ctx context.Context, data *domain.StorageData) (bool, error) {
	args := m.Called(ctx, data)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) CreateUnit(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) AddWord(ctx context.Context, unitID, word, meaning string) (bool, error) {
	args := m.Called(ctx, unitID, word, meaning)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) UpdateWord(ctx context.Context, unitID, wordID string, upd domain.WordUpdate) (bool, error) {
	args := m.Called(ctx, unitID, wordID, upd)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) UpdateUnit(ctx context.Context, unitID string, upd domain.UnitUpdate) (bool, error) {
	args := m.Called(ctx, unitID, upd)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) ToggleWordMastered(ctx context.Context, unitID, wordID string) (bool, error) {
	args := m.Called(ctx, unitID, wordID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) SetWordMastered(ctx context.Context, unitID, wordID string, mastered bool) (bool, error) {
	args := m.Called(ctx, unitID, wordID, mastered)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) DeleteItems(ctx context.Context, req domain.DeleteRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) MasteredWords(ctx context.Context) ([]*domain.Word, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Word), args.Error(1)
}

func (m *MockBackend) UnmasteredWords(ctx context.Context) ([]*domain.Word, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Word), args.Error(1)
}
