package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type EmailService struct {
	mock.Mock
}

func (m *EmailService) SendOTPEmail(ctx context.Context, toEmail, name, code string, ttl time.Duration) error {
	args := m.Called(ctx, toEmail, name, code, ttl)
	return args.Error(0)
}

func (m *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, name string) error {
	args := m.Called(ctx, toEmail, name)
	return args.Error(0)
}
