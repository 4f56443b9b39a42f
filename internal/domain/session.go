package domain

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	StatusActive  SessionStatus = "active"
	StatusPending SessionStatus = "pending"
)

// Session is the single active identity bound to the running client.
// At most one exists at a time; Role and UserID are immutable once
// authenticated.
type Session struct {
	UserID      uuid.UUID     `json:"user_id"`
	DisplayName string        `json:"display_name"`
	Email       string        `json:"email"`
	Phone       string        `json:"phone,omitempty"`
	Role        Role          `json:"role"`
	Verified    bool          `json:"verified"`
	Status      SessionStatus `json:"status"`
	Location    string        `json:"location,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// PendingRegistration is a registration awaiting OTP confirmation. It carries
// the submitted payload (password already hashed) and is promoted to a Session
// on successful verification.
type PendingRegistration struct {
	UserID       uuid.UUID `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Role         Role      `json:"role"`
	Location     string    `json:"location,omitempty"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Promote builds the Session resulting from a verified registration.
func (p *PendingRegistration) Promote() *Session {
	return &Session{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Phone:       p.Phone,
		Role:        p.Role,
		Verified:    true,
		Status:      StatusActive,
		Location:    p.Location,
		CreatedAt:   p.CreatedAt,
	}
}

// PendingOTP is the one-time code bound 1:1 to a PendingRegistration. Both are
// cleared together on success and invalidated together on expiry.
type PendingOTP struct {
	Code      string    `json:"code"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (o *PendingOTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

type RegisterInput struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Phone       string `json:"phone,omitempty"`
	Role        string `json:"role" validate:"required"`
	Location    string `json:"location,omitempty"`
}

// UpdateSessionInput holds the mutable session fields. Role and UserID are
// deliberately absent: the only way to change them is to re-authenticate.
type UpdateSessionInput struct {
	DisplayName *string `json:"display_name,omitempty"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string `json:"phone,omitempty"`
	Location    *string `json:"location,omitempty"`
}
