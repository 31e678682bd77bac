package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/Rayus223/backend/internal/common"
	"github.com/Rayus223/backend/internal/domain/teacher"
)

type TeacherRepository struct {
	db *sql.DB
}

func NewTeacherRepository(db *sql.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

func (r *TeacherRepository) GetByID(ctx context.Context, id common.UUID) (*teacher.Teacher, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, full_name, subjects, experience_years, bio, created_at, updated_at
		FROM teachers WHERE id = $1`, id)
	var t teacher.Teacher
	if err := row.Scan(&t.ID, &t.FullName, pq.Array(&t.Subjects), &t.ExperienceYears, &t.Bio, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, teacher.ErrNotFound
		}
		return nil, common.NewError(common.CodeInternal, "failed to load teacher", err)
	}
	return &t, nil
}

func (r *TeacherRepository) Upsert(ctx context.Context, t teacher.Teacher) (*teacher.Teacher, error) {
	now := time.Now().UTC()
	t.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `INSERT INTO teachers (id, full_name, subjects, experience_years, bio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (id) DO UPDATE SET full_name = $2, subjects = $3, experience_years = $4, bio = $5, updated_at = $6`,
		t.ID, t.FullName, pq.Array(t.Subjects), t.ExperienceYears, t.Bio, now)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to upsert teacher", err)
	}
	return r.GetByID(ctx, t.ID)
}
