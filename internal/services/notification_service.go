package services

import (
	"context"
	"errors"

	"github.com/senyabanana/unlisted-market/internal/models"
	"github.com/senyabanana/unlisted-market/internal/repository"
	"github.com/senyabanana/unlisted-market/internal/utils"
)

type NotificationService struct {
	Repo repository.NotificationRepository
}

// NewNotificationService создает новый экземпляр NotificationService.
func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{Repo: repo}
}

// GetUserNotifications возвращает уведомления пользователя постранично.
func (s *NotificationService) GetUserNotifications(ctx context.Context, caller models.Caller, limitStr, offsetStr string) ([]models.Notification, error) {
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.ValidationError(err.Error())
	}
	notifications, err := s.Repo.GetUserNotifications(ctx, caller.ID, limit, offset)
	if err != nil {
		return nil, models.InternalError("internal server error")
	}
	return notifications, nil
}

// MarkRead отмечает уведомление прочитанным.
func (s *NotificationService) MarkRead(ctx context.Context, notificationId string, caller models.Caller) error {
	err := s.Repo.MarkRead(ctx, notificationId, caller.ID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return models.NotFound("notification not found")
	}
	return models.InternalError("internal server error")
}
