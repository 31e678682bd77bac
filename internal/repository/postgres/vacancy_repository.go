package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/Rayus223/backend/internal/common"
	"github.com/Rayus223/backend/internal/domain/vacancy"
)

type VacancyRepository struct {
	db *sql.DB
}

func NewVacancyRepository(db *sql.DB) *VacancyRepository {
	return &VacancyRepository{db: db}
}

func (r *VacancyRepository) Create(ctx context.Context, v vacancy.Vacancy) (*vacancy.Vacancy, error) {
	v.ID = common.NewUUID()
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `INSERT INTO vacancies (id, title, subject, description, requirements, salary, featured, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		v.ID, v.Title, v.Subject, v.Description, pq.Array(v.Requirements), v.Salary, v.Featured, v.Status, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to create vacancy", err)
	}
	return &v, nil
}

func (r *VacancyRepository) Update(ctx context.Context, v vacancy.Vacancy) (*vacancy.Vacancy, error) {
	v.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `UPDATE vacancies SET title = $1, subject = $2, description = $3, requirements = $4, salary = $5, featured = $6, updated_at = $7
		WHERE id = $8`,
		v.Title, v.Subject, v.Description, pq.Array(v.Requirements), v.Salary, v.Featured, v.UpdatedAt, v.ID)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to update vacancy", err)
	}
	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return nil, vacancy.ErrNotFound
	}
	return r.GetByID(ctx, v.ID)
}

func (r *VacancyRepository) UpdateStatus(ctx context.Context, id common.UUID, status vacancy.Status) (*vacancy.Vacancy, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE vacancies SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to update vacancy status", err)
	}
	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return nil, vacancy.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *VacancyRepository) GetByID(ctx context.Context, id common.UUID) (*vacancy.Vacancy, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, title, subject, description, requirements, salary, featured, status, created_at, updated_at
		FROM vacancies WHERE id = $1`, id)
	var v vacancy.Vacancy
	if err := row.Scan(&v.ID, &v.Title, &v.Subject, &v.Description, pq.Array(&v.Requirements), &v.Salary, &v.Featured, &v.Status, &v.CreatedAt, &v.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vacancy.ErrNotFound
		}
		return nil, common.NewError(common.CodeInternal, "failed to load vacancy", err)
	}
	return &v, nil
}

func (r *VacancyRepository) ListOpen(ctx context.Context, limit, offset int) ([]vacancy.Vacancy, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title, subject, description, requirements, salary, featured, status, created_at, updated_at
		FROM vacancies WHERE status = $1 ORDER BY featured DESC, created_at DESC LIMIT $2 OFFSET $3`,
		vacancy.StatusOpen, limit, offset)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list vacancies", err)
	}
	defer rows.Close()
	return scanVacancies(rows)
}

// ListAvailable restates the core invariants as a read projection: open
// status, below the application cap, and no existing application from
// this teacher. No separate availability state is stored.
func (r *VacancyRepository) ListAvailable(ctx context.Context, teacherID common.UUID, limit, offset int) ([]vacancy.Vacancy, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT v.id, v.title, v.subject, v.description, v.requirements, v.salary, v.featured, v.status, v.created_at, v.updated_at
		FROM vacancies v
		WHERE v.status = $1
		  AND (SELECT COUNT(*) FROM applications a WHERE a.vacancy_id = v.id) < $2
		  AND NOT EXISTS (SELECT 1 FROM applications a WHERE a.vacancy_id = v.id AND a.teacher_id = $3)
		ORDER BY v.featured DESC, v.created_at DESC LIMIT $4 OFFSET $5`,
		vacancy.StatusOpen, vacancy.MaxApplications, teacherID, limit, offset)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list available vacancies", err)
	}
	defer rows.Close()
	return scanVacancies(rows)
}

func scanVacancies(rows *sql.Rows) ([]vacancy.Vacancy, error) {
	var items []vacancy.Vacancy
	for rows.Next() {
		var v vacancy.Vacancy
		if err := rows.Scan(&v.ID, &v.Title, &v.Subject, &v.Description, pq.Array(&v.Requirements), &v.Salary, &v.Featured, &v.Status, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to scan vacancy", err)
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to read vacancies", err)
	}
	return items, nil
}
