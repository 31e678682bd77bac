package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/Rayus223/backend/internal/app"
	"github.com/Rayus223/backend/internal/common"
	"github.com/Rayus223/backend/internal/domain/application"
	"github.com/Rayus223/backend/internal/http/middleware"
	"github.com/Rayus223/backend/internal/http/response"
)

type ApplicationHandler struct {
	applications *app.ApplicationService
	limiter      middleware.Limiter
}

func NewApplicationHandler(applications *app.ApplicationService, limiter middleware.Limiter) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, limiter: limiter}
}

type applyRequest struct {
	VacancyID string `json:"vacancy_id"`
}

func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	var req applyRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if strings.TrimSpace(req.VacancyID) == "" {
		response.Error(w, common.NewValidationError("invalid request", map[string]string{"vacancy_id": "vacancy_id is required"}))
		return
	}
	vacancyID, err := common.ParseUUID(req.VacancyID)
	if err != nil {
		response.Error(w, common.NewValidationError("invalid request", map[string]string{"vacancy_id": "invalid uuid"}))
		return
	}
	if h.limiter != nil {
		key := "apply:" + vacancyID.String() + ":" + teacherID.String()
		if !h.limiter.Allow(key, 3, time.Minute) {
			response.Error(w, common.NewError(common.CodeRateLimited, "apply rate limit exceeded", nil))
			return
		}
	}
	result, err := h.applications.Apply(r.Context(), vacancyID, teacherID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, result)
}

func (h *ApplicationHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	items, err := h.applications.ListByTeacher(r.Context(), teacherID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, items)
}

func (h *ApplicationHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	limit, offset := paginationFromQuery(r)
	items, err := h.applications.ListAvailable(r.Context(), teacherID, limit, offset)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, items)
}

func (h *ApplicationHandler) ListApplicants(w http.ResponseWriter, r *http.Request) {
	vacancyID, err := idFromPath(r, 1)
	if err != nil {
		response.Error(w, err)
		return
	}
	items, err := h.applications.ListApplicants(r.Context(), vacancyID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, items)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus handles PATCH /vacancies/{id}/applications/{appID}/status.
func (h *ApplicationHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	vacancyID, err := idFromPath(r, 1)
	if err != nil {
		response.Error(w, err)
		return
	}
	applicationID, err := idFromPath(r, 3)
	if err != nil {
		response.Error(w, err)
		return
	}
	var req setStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if req.Status == "" {
		response.Error(w, common.NewError(common.CodeValidation, "status is required", nil))
		return
	}
	target, err := application.ParseStatus(req.Status)
	if err != nil {
		response.Error(w, err)
		return
	}
	updated, err := h.applications.SetStatus(r.Context(), vacancyID, applicationID, target)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, updated)
}
