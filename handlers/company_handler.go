package handlers

import (
	"context"
	"net/http"

	"retailtasks/models"
	service "retailtasks/services"
	"retailtasks/utils"
)

type CompanyHandler struct {
	service service.CompanyService
}

func NewCompanyHandler(service service.CompanyService) *CompanyHandler {
	return &CompanyHandler{
		service: service,
	}
}

func (h *CompanyHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var input models.CompanyInput
	if err := utils.DecodeAndValidate(w, r, &input); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	company, err := h.service.CreateCompany(ctx, &input)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Company registered successfully", company, http.StatusCreated)
}

func (h *CompanyHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathObjectID(w, r, "id", "company")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	overview, err := h.service.GetCompany(ctx, actor, id)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Company retrieved successfully", overview, http.StatusOK)
}
