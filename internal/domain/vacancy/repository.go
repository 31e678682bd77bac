package vacancy

import (
	"context"

	"github.com/Rayus223/backend/internal/common"
)

type Repository interface {
	Create(ctx context.Context, v Vacancy) (*Vacancy, error)
	Update(ctx context.Context, v Vacancy) (*Vacancy, error)
	UpdateStatus(ctx context.Context, id common.UUID, status Status) (*Vacancy, error)
	GetByID(ctx context.Context, id common.UUID) (*Vacancy, error)
	ListOpen(ctx context.Context, limit, offset int) ([]Vacancy, error)
	// ListAvailable projects the core invariants onto the read side:
	// open, below capacity, and not yet applied to by the teacher.
	ListAvailable(ctx context.Context, teacherID common.UUID, limit, offset int) ([]Vacancy, error)
}
