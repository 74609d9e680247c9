package mocks

import (
	"context"

	"pdfstore/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockMetadataRepository struct {
	mock.Mock
}

func (m *MockMetadataRepository) Save(ctx context.Context, meta *model.Metadata) error {
	args := m.Called(ctx, meta)
	return args.Error(0)
}

func (m *MockMetadataRepository) FindByID(ctx context.Context, id string) (*model.Metadata, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Metadata), args.Error(1)
}

func (m *MockMetadataRepository) List(ctx context.Context) ([]model.Metadata, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Metadata), args.Error(1)
}

func (m *MockMetadataRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
