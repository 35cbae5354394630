package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/unlisted-market/internal/services"
	"github.com/senyabanana/unlisted-market/internal/utils"
)

// NotificationHandler обрабатывает HTTP-запросы к уведомлениям.
type NotificationHandler struct {
	Service *services.NotificationService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewNotificationHandler создаёт новый экземпляр NotificationHandler.
func NewNotificationHandler(service *services.NotificationService, logger *log.Logger, timeout time.Duration) *NotificationHandler {
	return &NotificationHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// GetNotifications обрабатывает запросы для получения уведомлений пользователя.
func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	notifications, err := h.Service.GetUserNotifications(ctx, caller, r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	if err != nil {
		h.Logger.Println(err)
		utils.SendError(w, h.Logger, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, notifications)
}

// MarkRead обрабатывает отметку уведомления прочитанным.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	if err := h.Service.MarkRead(ctx, r.PathValue("notificationId"), caller); err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]string{"message": "notification marked as read"})
}
