package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"donorlink/internal/domain"
	"donorlink/internal/service/auth"
)

type AuthGateway struct {
	mock.Mock
}

func (m *AuthGateway) Login(ctx context.Context, input domain.LoginInput) (*auth.Result, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Result), args.Error(1)
}

func (m *AuthGateway) Register(ctx context.Context, input domain.RegisterInput) (*auth.Result, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Result), args.Error(1)
}
