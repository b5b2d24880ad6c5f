package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/examgrid/papers-cli/internal/model"
	"github.com/examgrid/papers-cli/internal/store"
)

// mockStore is a testify mock implementing store.Store.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) UpsertQuestions(ctx context.Context, questions []model.Question) (int, error) {
	args := m.Called(ctx, questions)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) ListQuestions(ctx context.Context, f store.QuestionFilter) ([]model.Question, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Question), args.Error(1)
}

func (m *mockStore) ListYears(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *mockStore) ListUntagged(ctx context.Context, limit int) ([]model.Question, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Question), args.Error(1)
}

func (m *mockStore) UpdateLabels(ctx context.Context, q model.Question) error {
	return m.Called(ctx, q).Error(0)
}

func (m *mockStore) CreateRun(ctx context.Context, run model.IngestRun) (string, error) {
	args := m.Called(ctx, run)
	return args.String(0), args.Error(1)
}

func (m *mockStore) CompleteRun(ctx context.Context, run model.IngestRun) error {
	return m.Called(ctx, run).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}
