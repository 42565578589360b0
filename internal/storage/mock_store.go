package storage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) FindOne(ctx context.Context, uid string, q filter.Query) (model.Record, error) {
	args := m.Called(ctx, uid, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.Record), args.Error(1)
}

func (m *MockStore) FindMany(ctx context.Context, uid string, q filter.Query) ([]model.Record, error) {
	args := m.Called(ctx, uid, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Record), args.Error(1)
}

func (m *MockStore) Count(ctx context.Context, uid string, f filter.Filter) (int64, error) {
	args := m.Called(ctx, uid, f)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) Create(ctx context.Context, uid string, rec model.Record) (model.Record, error) {
	args := m.Called(ctx, uid, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.Record), args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, uid, id string, data map[string]any, guard filter.Filter) (model.Record, error) {
	args := m.Called(ctx, uid, id, data, guard)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.Record), args.Error(1)
}

func (m *MockStore) UpdateMany(ctx context.Context, uid string, f filter.Filter, data map[string]any) (int64, error) {
	args := m.Called(ctx, uid, f, data)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, uid, id string, guard filter.Filter) (model.Record, error) {
	args := m.Called(ctx, uid, id, guard)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.Record), args.Error(1)
}

func (m *MockStore) DeleteMany(ctx context.Context, uid string, f filter.Filter) (int64, error) {
	args := m.Called(ctx, uid, f)
	return args.Get(0).(int64), args.Error(1)
}
