package mocks

import (
	"context"

	"dokubox/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) CreateIdentity(ctx context.Context, name, email, password string) (model.User, error) {
	args := m.Called(ctx, name, email, password)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockAccountRepository) CreateSession(ctx context.Context, current, email, password string) (model.Session, error) {
	args := m.Called(ctx, current, email, password)
	return args.Get(0).(model.Session), args.Error(1)
}

func (m *MockAccountRepository) CurrentIdentity(ctx context.Context, token string) (model.User, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockAccountRepository) UpdateName(ctx context.Context, token, name string) (model.User, error) {
	args := m.Called(ctx, token, name)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockAccountRepository) UpdatePassword(ctx context.Context, token, password, oldPassword string) error {
	args := m.Called(ctx, token, password, oldPassword)
	return args.Error(0)
}

func (m *MockAccountRepository) DeleteSession(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}
