package handlers

import (
	"context"
	"net/http"

	"retailtasks/models"
	service "retailtasks/services"
	"retailtasks/utils"
)

type MessageHandler struct {
	service service.MessageService
}

func NewMessageHandler(service service.MessageService) *MessageHandler {
	return &MessageHandler{
		service: service,
	}
}

func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var input models.MessageInput
	if err := utils.DecodeAndValidate(w, r, &input); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	message, err := h.service.Send(ctx, actor, &input)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Message sent successfully", message, http.StatusCreated)
}

func (h *MessageHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	inbox, err := h.service.Inbox(ctx, actor)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Inbox retrieved successfully", inbox, http.StatusOK)
}

func (h *MessageHandler) Sent(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	threads, err := h.service.Sent(ctx, actor)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Sent messages retrieved successfully", threads, http.StatusOK)
}

func (h *MessageHandler) Thread(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	messages, err := h.service.Thread(ctx, actor, r.PathValue("threadId"))
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Conversation retrieved successfully", messages, http.StatusOK)
}

func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathObjectID(w, r, "id", "message")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.service.Delete(ctx, actor, id); err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleMessageResponse(w, "Message deleted successfully", http.StatusOK)
}

func (h *MessageHandler) CheckNew(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	digest, err := h.service.CheckNew(ctx, actor)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "New messages checked", digest, http.StatusOK)
}
