package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"retailtasks/logging"
	"retailtasks/models"
	service "retailtasks/services"
	"retailtasks/utils"
)

const (
	dateLayout       = time.DateOnly
	defaultRangeDays = 30
)

type AnalyticsHandler struct {
	service service.AnalyticsService
	now     func() time.Time
}

func NewAnalyticsHandler(service service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		now:     time.Now,
	}
}

// dateRange reads ?startDate= and ?endDate= (YYYY-MM-DD). Missing bounds
// default to the last 30 days ending today.
func (h *AnalyticsHandler) dateRange(r *http.Request) (time.Time, time.Time, error) {
	end := h.now()
	start := end.AddDate(0, 0, -defaultRangeDays)

	q := r.URL.Query()
	if raw := q.Get("startDate"); raw != "" {
		t, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			return start, end, utils.BadRequest("Invalid startDate, expected YYYY-MM-DD")
		}
		start = t
	}
	if raw := q.Get("endDate"); raw != "" {
		t, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			return start, end, utils.BadRequest("Invalid endDate, expected YYYY-MM-DD")
		}
		end = t
	}
	return start, end, nil
}

// GetAnalytics returns today's document, or every section for a date range
// when startDate or endDate is given.
func (h *AnalyticsHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q := r.URL.Query()
	if q.Get("startDate") == "" && q.Get("endDate") == "" {
		today, err := h.service.Today(ctx, actor.CompanyID)
		if err != nil {
			utils.HandleError(w, err)
			return
		}
		utils.HandleDataResponse(w, "Analytics retrieved successfully", today, http.StatusOK)
		return
	}

	h.writeRange(ctx, w, r, actor, nil)
}

func (h *AnalyticsHandler) GetDepartments(w http.ResponseWriter, r *http.Request) {
	h.section(w, r, "departmentStats")
}

func (h *AnalyticsHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	h.section(w, r, "userStats")
}

func (h *AnalyticsHandler) GetPriorities(w http.ResponseWriter, r *http.Request) {
	h.section(w, r, "priorityStats")
}

func (h *AnalyticsHandler) section(w http.ResponseWriter, r *http.Request, name string) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	h.writeRange(ctx, w, r, actor, []string{name})
}

func (h *AnalyticsHandler) writeRange(ctx context.Context, w http.ResponseWriter, r *http.Request, actor models.Actor, sections []string) {
	start, end, err := h.dateRange(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	days, err := h.service.Range(ctx, actor.CompanyID, start, end, sections)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Analytics retrieved successfully", days, http.StatusOK)
}

func (h *AnalyticsHandler) CustomRange(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var input models.AnalyticsRangeInput
	if err := utils.DecodeAndValidate(w, r, &input); err != nil {
		return
	}

	// The validator has already checked the date layout.
	start, _ := time.ParseInLocation(dateLayout, input.StartDate, time.Local)
	end, _ := time.ParseInLocation(dateLayout, input.EndDate, time.Local)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	days, err := h.service.Range(ctx, actor.CompanyID, start, end, input.Metrics)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Analytics retrieved successfully", days, http.StatusOK)
}

func (h *AnalyticsHandler) RealTime(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	stats, err := h.service.RealTime(ctx, actor.CompanyID)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Real-time analytics retrieved successfully", stats, http.StatusOK)
}

func (h *AnalyticsHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathObjectID(w, r, "id", "user")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	stats, err := h.service.UserStats(ctx, actor.CompanyID, id)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "User analytics retrieved successfully", stats, http.StatusOK)
}

func (h *AnalyticsHandler) GetDepartmentStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathObjectID(w, r, "id", "department")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	stats, err := h.service.DepartmentStats(ctx, actor.CompanyID, id)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Department analytics retrieved successfully", stats, http.StatusOK)
}

func (h *AnalyticsHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	start, end, err := h.dateRange(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	// Buffer so a failed export can still be reported as JSON.
	var buf bytes.Buffer
	if err := h.service.ExportCSV(ctx, actor.CompanyID, start, end, &buf); err != nil {
		utils.HandleError(w, err)
		return
	}

	filename := fmt.Sprintf("analytics_%s_%s.csv", start.Format(dateLayout), end.Format(dateLayout))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))

	if _, err := buf.WriteTo(w); err != nil {
		logging.Logger.Errorf("Event ID: EXPORT_STREAM_FAILED, Description: %v", err)
	}
}
