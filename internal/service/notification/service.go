package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"donorlink/internal/domain"
	"donorlink/internal/repository"
)

var ErrInvalidTargetRole = errors.New("unknown target role")

type Service interface {
	Create(ctx context.Context, input domain.CreateNotificationInput) (*domain.Notification, error)
	List(ctx context.Context, role domain.Role, unreadOnly bool, params domain.PaginationParams) (domain.PaginatedResponse[domain.Notification], error)
	GetUnreadCount(ctx context.Context, role domain.Role) (int64, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, role domain.Role) error

	NotifyRequestMatched(ctx context.Context, role domain.Role, userID *uuid.UUID, requesterName, bloodType string) error
	NotifyDonationReminder(ctx context.Context, userID *uuid.UUID, donorName, hospitalName string) error
}

type service struct {
	notifRepo repository.NotificationRepository
}

func NewService(notifRepo repository.NotificationRepository) Service {
	return &service{notifRepo: notifRepo}
}

func (s *service) Create(ctx context.Context, input domain.CreateNotificationInput) (*domain.Notification, error) {
	role, err := domain.ParseRole(input.TargetRole)
	if err != nil {
		return nil, ErrInvalidTargetRole
	}

	notifType := domain.NotificationType(input.Type)
	if !notifType.IsValid() {
		notifType = domain.NotifInfo
	}

	notif := &domain.Notification{
		ID:           uuid.New(),
		TargetRole:   role,
		TargetUserID: input.TargetUserID,
		Type:         notifType,
		Title:        input.Title,
		Message:      input.Message,
	}
	if err := s.notifRepo.Create(ctx, notif); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return notif, nil
}

func (s *service) List(ctx context.Context, role domain.Role, unreadOnly bool, params domain.PaginationParams) (domain.PaginatedResponse[domain.Notification], error) {
	notifications, total, err := s.notifRepo.ListByRole(ctx, role, unreadOnly, params)
	if err != nil {
		return domain.PaginatedResponse[domain.Notification]{}, err
	}
	return domain.NewPaginatedResponse(notifications, params.Page, params.PageSize, total), nil
}

func (s *service) GetUnreadCount(ctx context.Context, role domain.Role) (int64, error) {
	return s.notifRepo.CountUnread(ctx, role)
}

// MarkAsRead is total: a missing id is a no-op, never an error.
func (s *service) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	return s.notifRepo.MarkAsRead(ctx, id)
}

func (s *service) MarkAllAsRead(ctx context.Context, role domain.Role) error {
	return s.notifRepo.MarkAllAsRead(ctx, role)
}

func (s *service) NotifyRequestMatched(ctx context.Context, role domain.Role, userID *uuid.UUID, requesterName, bloodType string) error {
	notif := &domain.Notification{
		ID:           uuid.New(),
		TargetRole:   role,
		TargetUserID: userID,
		Type:         domain.NotifSuccess,
		Title:        "Donation Request Matched",
		Message:      fmt.Sprintf("A compatible donor was found for %s's %s request", requesterName, bloodType),
	}
	return s.notifRepo.Create(ctx, notif)
}

func (s *service) NotifyDonationReminder(ctx context.Context, userID *uuid.UUID, donorName, hospitalName string) error {
	notif := &domain.Notification{
		ID:           uuid.New(),
		TargetRole:   domain.RoleDonor,
		TargetUserID: userID,
		Type:         domain.NotifInfo,
		Title:        "Upcoming Donation",
		Message:      fmt.Sprintf("%s, your donation appointment at %s is coming up", donorName, hospitalName),
	}
	return s.notifRepo.Create(ctx, notif)
}
