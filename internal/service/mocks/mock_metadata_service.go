package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rickcedwhat/assignment-checker/internal/model"
	"github.com/rickcedwhat/assignment-checker/internal/service"
)

type MockMetadataService struct {
	mock.Mock
}

func (m *MockMetadataService) Read(ctx context.Context, filename string, data []byte) (*model.IdentityMetadata, error) {
	args := m.Called(ctx, filename, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.IdentityMetadata), args.Error(1)
}

func (m *MockMetadataService) Update(ctx context.Context, filename string, data []byte, upd model.IdentityUpdate) (*service.UpdateResult, error) {
	args := m.Called(ctx, filename, data, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UpdateResult), args.Error(1)
}
