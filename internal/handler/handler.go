package handler

import (
	"donorlink/internal/config"
	"donorlink/internal/service"
)

type Handlers struct {
	Auth         *AuthHandler
	Thread       *ThreadHandler
	Notification *NotificationHandler
}

func NewHandlers(services *service.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:         NewAuthHandler(services.Auth, cfg),
		Thread:       NewThreadHandler(services.Thread),
		Notification: NewNotificationHandler(services.Notification),
	}
}
