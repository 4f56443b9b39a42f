package domain

import (
	"time"

	"github.com/google/uuid"
)

// Participant identifies one party in a conversation thread.
type Participant struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Message is one entry in a thread's log. Immutable once appended.
type Message struct {
	ID         uuid.UUID `json:"id"`
	SenderID   uuid.UUID `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	SenderRole Role      `json:"sender_role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// Thread is a conversation between exactly two role-parties, e.g.
// patient and hospital. Messages are append-only in insertion order and
// LastActivityAt always equals the timestamp of the most recent message.
type Thread struct {
	ID             string               `json:"id"`
	Participants   map[Role]Participant `json:"participants"`
	Messages       []Message            `json:"messages"`
	LastActivityAt time.Time            `json:"last_activity_at"`
}

// HasRole reports whether the thread has a participant slot for the role.
func (t *Thread) HasRole(role Role) bool {
	_, ok := t.Participants[role]
	return ok
}

// Clone returns a deep copy so read snapshots never alias store state.
func (t *Thread) Clone() *Thread {
	participants := make(map[Role]Participant, len(t.Participants))
	for r, p := range t.Participants {
		participants[r] = p
	}
	messages := make([]Message, len(t.Messages))
	copy(messages, t.Messages)
	return &Thread{
		ID:             t.ID,
		Participants:   participants,
		Messages:       messages,
		LastActivityAt: t.LastActivityAt,
	}
}
