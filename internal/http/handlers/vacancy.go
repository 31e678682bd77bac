package handlers

import (
	"net/http"

	"github.com/Rayus223/backend/internal/app"
	"github.com/Rayus223/backend/internal/common"
	"github.com/Rayus223/backend/internal/domain/vacancy"
	"github.com/Rayus223/backend/internal/http/response"
)

type VacancyHandler struct {
	vacancies *app.VacancyService
}

func NewVacancyHandler(vacancies *app.VacancyService) *VacancyHandler {
	return &VacancyHandler{vacancies: vacancies}
}

type vacancyRequest struct {
	Title        string   `json:"title"`
	Subject      string   `json:"subject"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements"`
	Salary       string   `json:"salary"`
	Featured     bool     `json:"featured"`
	Status       string   `json:"status"`
}

type vacancyStatusRequest struct {
	Status string `json:"status"`
}

func (h *VacancyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req vacancyRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	created, err := h.vacancies.Create(r.Context(), vacancy.Vacancy{
		Title:        req.Title,
		Subject:      req.Subject,
		Description:  req.Description,
		Requirements: req.Requirements,
		Salary:       req.Salary,
		Featured:     req.Featured,
		Status:       vacancy.Status(req.Status),
	})
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, created)
}

func (h *VacancyHandler) Update(w http.ResponseWriter, r *http.Request) {
	vacancyID, err := idFromPath(r, 1)
	if err != nil {
		response.Error(w, err)
		return
	}
	var req vacancyRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	updated, err := h.vacancies.Update(r.Context(), vacancy.Vacancy{
		ID:           vacancyID,
		Title:        req.Title,
		Subject:      req.Subject,
		Description:  req.Description,
		Requirements: req.Requirements,
		Salary:       req.Salary,
		Featured:     req.Featured,
	})
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, updated)
}

func (h *VacancyHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	vacancyID, err := idFromPath(r, 1)
	if err != nil {
		response.Error(w, err)
		return
	}
	var req vacancyStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if req.Status == "" {
		response.Error(w, common.NewError(common.CodeValidation, "status is required", nil))
		return
	}
	updated, err := h.vacancies.UpdateStatus(r.Context(), vacancyID, vacancy.Status(req.Status))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, updated)
}

func (h *VacancyHandler) Get(w http.ResponseWriter, r *http.Request) {
	vacancyID, err := idFromPath(r, 1)
	if err != nil {
		response.Error(w, err)
		return
	}
	item, err := h.vacancies.Get(r.Context(), vacancyID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

func (h *VacancyHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationFromQuery(r)
	items, err := h.vacancies.ListOpen(r.Context(), limit, offset)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, items)
}
