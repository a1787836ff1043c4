package handlers

import (
	"context"
	"net/http"

	"retailtasks/models"
	service "retailtasks/services"
	"retailtasks/utils"
)

type NotificationHandler struct {
	service service.NotificationService
}

func NewNotificationHandler(service service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		service: service,
	}
}

type notificationList struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unreadCount"`
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	notifications, err := h.service.List(ctx, actor)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	unread, err := h.service.UnreadCount(ctx, actor)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Notifications retrieved successfully", notificationList{
		Notifications: notifications,
		UnreadCount:   unread,
	}, http.StatusOK)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathObjectID(w, r, "id", "notification")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.service.MarkRead(ctx, actor, id); err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleMessageResponse(w, "Notification marked as read", http.StatusOK)
}

func (h *NotificationHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.service.ClearAll(ctx, actor); err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleMessageResponse(w, "Notifications cleared", http.StatusOK)
}
