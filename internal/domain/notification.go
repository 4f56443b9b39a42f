package domain

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	TargetRole   Role             `json:"target_role" db:"target_role"`
	TargetUserID *uuid.UUID       `json:"target_user_id,omitempty" db:"target_user_id"`
	Type         NotificationType `json:"type" db:"type"`
	Title        string           `json:"title" db:"title"`
	Message      string           `json:"message" db:"message"`
	IsRead       bool             `json:"is_read" db:"is_read"`
	ReadAt       *time.Time       `json:"read_at,omitempty" db:"read_at"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}

type NotificationType string

const (
	NotifInfo    NotificationType = "info"
	NotifSuccess NotificationType = "success"
	NotifWarning NotificationType = "warning"
	NotifError   NotificationType = "error"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case NotifInfo, NotifSuccess, NotifWarning, NotifError:
		return true
	default:
		return false
	}
}

type CreateNotificationInput struct {
	TargetRole   string     `json:"target_role" validate:"required"`
	TargetUserID *uuid.UUID `json:"target_user_id,omitempty"`
	Type         string     `json:"type"`
	Title        string     `json:"title" validate:"required"`
	Message      string     `json:"message" validate:"required"`
}
