package repository

import (
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type Repositories struct {
	Sessions      KVStore
	Notifications NotificationRepository
}

func NewRepositories(db *sqlx.DB, redisClient *redis.Client) *Repositories {
	var sessions KVStore
	if redisClient != nil {
		sessions = NewRedisStore(redisClient)
	} else {
		sessions = NewMemoryStore()
	}

	var notifications NotificationRepository
	if db != nil {
		notifications = NewNotificationRepository(db)
	} else {
		notifications = NewMemoryNotificationRepository()
	}

	return &Repositories{
		Sessions:      sessions,
		Notifications: notifications,
	}
}
