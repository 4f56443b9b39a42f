package repository

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"donorlink/internal/domain"
)

// memoryNotificationRepository is the process-local counterpart of the
// Postgres repository, used by tests and when no database is configured.
type memoryNotificationRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*domain.Notification
}

func NewMemoryNotificationRepository() NotificationRepository {
	return &memoryNotificationRepository{records: make(map[uuid.UUID]*domain.Notification)}
}

func (r *memoryNotificationRepository) Create(_ context.Context, notif *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = time.Now()
	}
	stored := *notif
	r.records[notif.ID] = &stored
	return nil
}

func (r *memoryNotificationRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	notif, ok := r.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *notif
	return &out, nil
}

func (r *memoryNotificationRepository) ListByRole(_ context.Context, role domain.Role, unreadOnly bool, params domain.PaginationParams) ([]domain.Notification, int64, error) {
	params.Validate()

	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]domain.Notification, 0)
	for _, notif := range r.records {
		if notif.TargetRole != role {
			continue
		}
		if unreadOnly && notif.IsRead {
			continue
		}
		matched = append(matched, *notif)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := params.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *memoryNotificationRepository) MarkAsRead(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	notif, ok := r.records[id]
	if !ok || notif.IsRead {
		return nil
	}
	now := time.Now()
	notif.IsRead = true
	notif.ReadAt = &now
	return nil
}

func (r *memoryNotificationRepository) MarkAllAsRead(_ context.Context, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, notif := range r.records {
		if notif.TargetRole == role && !notif.IsRead {
			notif.IsRead = true
			notif.ReadAt = &now
		}
	}
	return nil
}

func (r *memoryNotificationRepository) CountUnread(_ context.Context, role domain.Role) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, notif := range r.records {
		if notif.TargetRole == role && !notif.IsRead {
			count++
		}
	}
	return count, nil
}
