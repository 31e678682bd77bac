package teacher

import (
	"context"
	"time"

	"github.com/Rayus223/backend/internal/common"
)

var ErrNotFound = common.NewError(common.CodeNotFound, "teacher profile not found", nil)

// Teacher is the applicant identity. Account management lives outside
// this service; the profile here is what applicant listings resolve
// against.
type Teacher struct {
	ID              common.UUID `json:"id"`
	FullName        string      `json:"full_name"`
	Subjects        []string    `json:"subjects"`
	ExperienceYears int         `json:"experience_years"`
	Bio             string      `json:"bio,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

type Repository interface {
	GetByID(ctx context.Context, id common.UUID) (*Teacher, error)
	Upsert(ctx context.Context, t Teacher) (*Teacher, error)
}
