package handlers

import (
	"net/http"

	"github.com/Rayus223/backend/internal/common"
	"github.com/Rayus223/backend/internal/domain/teacher"
	"github.com/Rayus223/backend/internal/http/middleware"
	"github.com/Rayus223/backend/internal/http/response"
)

type TeacherHandler struct {
	teachers teacher.Repository
}

func NewTeacherHandler(teachers teacher.Repository) *TeacherHandler {
	return &TeacherHandler{teachers: teachers}
}

type teacherProfileRequest struct {
	FullName        string   `json:"full_name"`
	Subjects        []string `json:"subjects"`
	ExperienceYears int      `json:"experience_years"`
	Bio             string   `json:"bio"`
}

func (h *TeacherHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	profile, err := h.teachers.GetByID(r.Context(), teacherID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, profile)
}

func (h *TeacherHandler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	var req teacherProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if req.FullName == "" {
		response.Error(w, common.NewValidationError("invalid profile", map[string]string{"full_name": "full_name is required"}))
		return
	}
	saved, err := h.teachers.Upsert(r.Context(), teacher.Teacher{
		ID:              teacherID,
		FullName:        req.FullName,
		Subjects:        req.Subjects,
		ExperienceYears: req.ExperienceYears,
		Bio:             req.Bio,
	})
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, saved)
}
