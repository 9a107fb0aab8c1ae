package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/mrlokans/bookclub/internal/storage"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	args := m.Called(ctx, prefix)
	objects, _ := args.Get(0).([]storage.ObjectInfo)
	return objects, args.Error(1)
}

func (m *MockClient) Upload(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, content, size, contentType)
	return args.Error(0)
}

func (m *MockClient) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockClient) PublicURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}
