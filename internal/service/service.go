package service

import (
	"donorlink/internal/config"
	"donorlink/internal/repository"
	"donorlink/internal/service/auth"
	"donorlink/internal/service/email"
	"donorlink/internal/service/notification"
	"donorlink/internal/service/thread"
)

type Services struct {
	Auth         auth.Service
	Thread       thread.Service
	Notification notification.Service
	Email        email.Service
}

func NewServices(repos *repository.Repositories, cfg *config.Config) *Services {
	emailService := email.NewService(cfg)

	var gateway auth.Gateway
	if cfg.AuthGatewayURL != "" {
		gateway = auth.NewHTTPGateway(cfg.AuthGatewayURL)
	} else {
		gateway = auth.NewSimGateway(cfg.AuthLatency)
	}

	return &Services{
		Auth:         auth.NewService(repos.Sessions, gateway, emailService, cfg),
		Thread:       thread.NewService(),
		Notification: notification.NewService(repos.Notifications),
		Email:        emailService,
	}
}
