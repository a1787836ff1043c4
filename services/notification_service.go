package services

import (
	"context"
	"time"

	"retailtasks/logging"
	"retailtasks/models"
	repository "retailtasks/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationService interface {
	// Notify stores a notification. Failures are logged, never returned.
	Notify(ctx context.Context, notification *models.Notification)
	List(ctx context.Context, actor models.Actor) ([]models.Notification, error)
	MarkRead(ctx context.Context, actor models.Actor, id primitive.ObjectID) error
	MarkReadByLink(ctx context.Context, actor models.Actor, link string) error
	ClearAll(ctx context.Context, actor models.Actor) error
	UnreadCount(ctx context.Context, actor models.Actor) (int64, error)
}

type notificationService struct {
	repo repository.NotificationRepository
	now  func() time.Time
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{
		repo: repo,
		now:  time.Now,
	}
}

func (s *notificationService) Notify(ctx context.Context, notification *models.Notification) {
	if notification.User.IsZero() {
		return
	}
	if notification.Type == "" {
		notification.Type = models.NotificationTask
	}
	notification.CreatedAt = s.now()

	if err := s.repo.Create(ctx, notification); err != nil {
		logging.Logger.WithField("user", notification.User.Hex()).
			Errorf("Event ID: NOTIFICATION_FAILED, Description: Failed to store notification: %v", err)
	}
}

func (s *notificationService) List(ctx context.Context, actor models.Actor) ([]models.Notification, error) {
	return s.repo.ListByUser(ctx, actor.UserID)
}

func (s *notificationService) MarkRead(ctx context.Context, actor models.Actor, id primitive.ObjectID) error {
	return s.repo.MarkRead(ctx, actor.UserID, id)
}

func (s *notificationService) MarkReadByLink(ctx context.Context, actor models.Actor, link string) error {
	return s.repo.MarkReadByLink(ctx, actor.UserID, link)
}

func (s *notificationService) ClearAll(ctx context.Context, actor models.Actor) error {
	return s.repo.DeleteByUser(ctx, actor.UserID)
}

func (s *notificationService) UnreadCount(ctx context.Context, actor models.Actor) (int64, error) {
	return s.repo.CountUnread(ctx, actor.UserID)
}
