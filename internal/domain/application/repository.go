package application

import (
	"context"

	"github.com/Rayus223/backend/internal/common"
)

// ApplyResult is the committed outcome of an apply: the new application,
// the vacancy's full application list after the append, and whether the
// append filled the last slot and closed the vacancy.
type ApplyResult struct {
	Application   Application   `json:"application"`
	Applications  []Application `json:"applications"`
	VacancyClosed bool          `json:"vacancy_closed"`
}

// Repository persists applications. Every mutating method must commit
// as a single atomic conditional write: preconditions (vacancy open,
// slot free, no duplicate, target still pending) are re-evaluated at
// write time, never trusted from an earlier read.
type Repository interface {
	Apply(ctx context.Context, vacancyID, teacherID common.UUID) (*ApplyResult, error)
	SetStatus(ctx context.Context, vacancyID, applicationID common.UUID, target Status) ([]Application, error)
	ListByVacancy(ctx context.Context, vacancyID common.UUID) ([]Application, error)
	ListByTeacher(ctx context.Context, teacherID common.UUID) ([]Application, error)
}
