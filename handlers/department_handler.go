package handlers

import (
	"context"
	"net/http"

	"retailtasks/models"
	service "retailtasks/services"
	"retailtasks/utils"
)

type DepartmentHandler struct {
	service service.DepartmentService
}

func NewDepartmentHandler(service service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{
		service: service,
	}
}

func (h *DepartmentHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	departments, err := h.service.List(ctx, actor.CompanyID)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Departments retrieved successfully", departments, http.StatusOK)
}

func (h *DepartmentHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var input models.DepartmentInput
	if err := utils.DecodeAndValidate(w, r, &input); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	department, err := h.service.Create(ctx, actor.CompanyID, input.Name)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Department created successfully", department, http.StatusCreated)
}
