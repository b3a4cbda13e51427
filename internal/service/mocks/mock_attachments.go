package mocks

import (
	"context"

	"dokubox/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockAttachments struct {
	mock.Mock
}

func (m *MockAttachments) Upload(ctx context.Context, asset model.ImageAsset) (model.ImageAttachment, error) {
	args := m.Called(ctx, asset)
	return args.Get(0).(model.ImageAttachment), args.Error(1)
}

func (m *MockAttachments) Delete(ctx context.Context, fileID string) error {
	args := m.Called(ctx, fileID)
	return args.Error(0)
}
