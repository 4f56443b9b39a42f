package thread

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"donorlink/internal/domain"
)

var (
	ErrThreadNotFound      = errors.New("thread not found")
	ErrEmptyContent        = errors.New("message content must not be empty")
	ErrInvalidParticipants = errors.New("a thread needs exactly two distinct role parties")
	ErrThreadExists        = errors.New("thread already exists")
)

type Service interface {
	CreateThread(id string, participants map[domain.Role]domain.Participant) (*domain.Thread, error)
	SendMessage(threadID string, senderID uuid.UUID, senderName string, senderRole domain.Role, content string) (*domain.Message, error)
	ThreadsForRole(role domain.Role, userID uuid.UUID) []*domain.Thread
	Thread(threadID string) (*domain.Thread, error)
}

// entry pairs a thread with its own lock: appends to the same thread
// serialize in insertion order while distinct threads never contend.
type entry struct {
	mu     sync.Mutex
	thread *domain.Thread
}

func (e *entry) snapshot() *domain.Thread {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.thread.Clone()
}

// store keeps every conversation in memory. The registry lock only guards the
// map itself; reads hand out deep-copied snapshots.
type store struct {
	mu      sync.RWMutex
	threads map[string]*entry
}

func NewService() Service {
	return &store{threads: make(map[string]*entry)}
}

func (s *store) CreateThread(id string, participants map[domain.Role]domain.Participant) (*domain.Thread, error) {
	if len(participants) != 2 {
		return nil, ErrInvalidParticipants
	}
	for role := range participants {
		if !role.IsValid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidParticipants, role)
		}
	}

	if id == "" {
		id = uuid.NewString()
	}

	copied := make(map[domain.Role]domain.Participant, len(participants))
	for r, p := range participants {
		copied[r] = p
	}
	t := &domain.Thread{
		ID:             id,
		Participants:   copied,
		Messages:       []domain.Message{},
		LastActivityAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[id]; ok {
		return nil, ErrThreadExists
	}
	s.threads[id] = &entry{thread: t}
	return t.Clone(), nil
}

// SendMessage appends to the named thread's log. Unknown thread ids are an
// explicit error; callers must not expect creation-on-write.
func (s *store) SendMessage(threadID string, senderID uuid.UUID, senderName string, senderRole domain.Role, content string) (*domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	s.mu.RLock()
	e, ok := s.threads[threadID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	if now.Before(e.thread.LastActivityAt) {
		now = e.thread.LastActivityAt
	}
	msg := domain.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		SenderName: senderName,
		SenderRole: senderRole,
		Content:    content,
		Timestamp:  now,
	}
	e.thread.Messages = append(e.thread.Messages, msg)
	e.thread.LastActivityAt = now

	return &msg, nil
}

// ThreadsForRole returns a snapshot of every thread carrying a participant
// slot for the role, newest activity first. Filtering is by role slot, not by
// the requesting user's id: any authenticated user of a role sees the threads
// tagged with that role.
func (s *store) ThreadsForRole(role domain.Role, _ uuid.UUID) []*domain.Thread {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.threads))
	for _, e := range s.threads {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]*domain.Thread, 0)
	for _, e := range entries {
		t := e.snapshot()
		if t.HasRole(role) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastActivityAt.Equal(out[j].LastActivityAt) {
			return out[i].LastActivityAt.After(out[j].LastActivityAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *store) Thread(threadID string) (*domain.Thread, error) {
	s.mu.RLock()
	e, ok := s.threads[threadID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}
	return e.snapshot(), nil
}
