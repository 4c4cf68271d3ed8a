package services

import (
	"github.com/rs/zerolog"

	"medisync/internal/models"
	"medisync/internal/repository"
)

// NotificationService delivers lifecycle events as notification records and
// serves the notification read models.
type NotificationService struct {
	notifications *repository.NotificationRepository
	logger        zerolog.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(notifications *repository.NotificationRepository, logger zerolog.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		logger:        logger,
	}
}

// Dispatch persists the drafted events. Delivery is fire-and-forget: a
// failed event is logged and the rest still go out, matching the advisory
// nature of notifications.
func (s *NotificationService) Dispatch(events []Event) {
	for _, event := range events {
		if err := s.notifications.Create(event.notification()); err != nil {
			s.logger.Error().
				Err(err).
				Int64("user_id", event.UserID).
				Str("title", event.Title).
				Msg("failed to deliver notification")
		}
	}
}

// ListForUser returns a user's notifications from the past 30 days.
func (s *NotificationService) ListForUser(userID int64) ([]*models.Notification, error) {
	return s.notifications.ListForUser(userID)
}

// ListForUserByPriority returns a user's 30-day notifications of one priority.
func (s *NotificationService) ListForUserByPriority(userID int64, priority models.NotificationPriority) ([]*models.Notification, error) {
	return s.notifications.ListForUserByPriority(userID, priority)
}

// SearchForUser filters a user's 30-day notifications by title or message.
func (s *NotificationService) SearchForUser(userID int64, term string) ([]*models.Notification, error) {
	return s.notifications.SearchForUser(userID, term)
}

// ListAll returns all users' 30-day notifications for the admin view.
func (s *NotificationService) ListAll() ([]*models.Notification, error) {
	return s.notifications.ListAll()
}
