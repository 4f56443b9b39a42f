package notification_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"donorlink/internal/domain"
	"donorlink/internal/repository"
	"donorlink/internal/service/notification"
	"donorlink/tests/mocks"
)

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(mocks.NotificationRepository)
		svc := notification.NewService(mockRepo)

		mockRepo.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.TargetRole == domain.RoleDonor && n.Title == "Urgent O- request" && n.ID != uuid.Nil
		})).Return(nil).Once()

		notif, err := svc.Create(ctx, domain.CreateNotificationInput{
			TargetRole: "donor",
			Type:       "warning",
			Title:      "Urgent O- request",
			Message:    "City Hospital needs O- blood within 6 hours",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.NotifWarning, notif.Type)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Unknown Type Falls Back To Info", func(t *testing.T) {
		mockRepo := new(mocks.NotificationRepository)
		svc := notification.NewService(mockRepo)

		mockRepo.On("Create", ctx, mock.Anything).Return(nil).Once()

		notif, err := svc.Create(ctx, domain.CreateNotificationInput{
			TargetRole: "patient",
			Type:       "shouting",
			Title:      "t",
			Message:    "m",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.NotifInfo, notif.Type)
	})

	t.Run("Invalid Role", func(t *testing.T) {
		svc := notification.NewService(new(mocks.NotificationRepository))

		_, err := svc.Create(ctx, domain.CreateNotificationInput{
			TargetRole: "villain",
			Title:      "t",
			Message:    "m",
		})
		assert.ErrorIs(t, err, notification.ErrInvalidTargetRole)
	})
}

// Unread accounting over the real in-memory repository.
func TestService_UnreadAccounting(t *testing.T) {
	ctx := context.Background()
	svc := notification.NewService(repository.NewMemoryNotificationRepository())

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, domain.CreateNotificationInput{
			TargetRole: "hospital",
			Title:      "Stock update",
			Message:    "Inventory changed",
		})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, domain.CreateNotificationInput{
		TargetRole: "ngo",
		Title:      "Campaign",
		Message:    "New donation drive",
	})
	require.NoError(t, err)

	count, err := svc.GetUnreadCount(ctx, domain.RoleHospital)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, svc.MarkAllAsRead(ctx, domain.RoleHospital))

	count, err = svc.GetUnreadCount(ctx, domain.RoleHospital)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// The other role's records are untouched.
	count, err = svc.GetUnreadCount(ctx, domain.RoleNGO)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	created, err := svc.Create(ctx, domain.CreateNotificationInput{
		TargetRole: "hospital",
		Title:      "New request",
		Message:    "Incoming transfer",
	})
	require.NoError(t, err)

	count, err = svc.GetUnreadCount(ctx, domain.RoleHospital)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, svc.MarkAsRead(ctx, created.ID))
	count, err = svc.GetUnreadCount(ctx, domain.RoleHospital)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestService_MarkAsReadMissingIDIsNoop(t *testing.T) {
	ctx := context.Background()
	svc := notification.NewService(repository.NewMemoryNotificationRepository())

	assert.NoError(t, svc.MarkAsRead(ctx, uuid.New()))
	assert.NoError(t, svc.MarkAllAsRead(ctx, domain.RoleAdmin))
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	svc := notification.NewService(repository.NewMemoryNotificationRepository())

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, domain.CreateNotificationInput{
			TargetRole: "donor",
			Title:      "Reminder",
			Message:    "Appointment soon",
		})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, domain.RoleDonor, false, domain.PaginationParams{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(5), page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext)

	unread, err := svc.List(ctx, domain.RoleDonor, true, domain.PaginationParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, unread.Data, 5)
}
