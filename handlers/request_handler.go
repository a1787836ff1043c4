package handlers

import (
	"context"
	"net/http"

	"retailtasks/models"
	service "retailtasks/services"
	"retailtasks/utils"
)

type RequestHandler struct {
	service service.RequestService
}

func NewRequestHandler(service service.RequestService) *RequestHandler {
	return &RequestHandler{
		service: service,
	}
}

func (h *RequestHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var input models.ChangeRequestInput
	if err := utils.DecodeAndValidate(w, r, &input); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	request, err := h.service.Create(ctx, actor, &input)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Request submitted successfully", request, http.StatusCreated)
}

func (h *RequestHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	requests, err := h.service.List(ctx, actor)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Requests retrieved successfully", requests, http.StatusOK)
}

func (h *RequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathObjectID(w, r, "id", "request")
	if !ok {
		return
	}

	var input models.RequestStatusInput
	if err := utils.DecodeAndValidate(w, r, &input); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	request, err := h.service.UpdateStatus(ctx, actor, id, input.Status)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Request status updated", request, http.StatusOK)
}
