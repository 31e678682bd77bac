package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Rayus223/backend/internal/common"
	"github.com/Rayus223/backend/internal/domain/application"
	"github.com/Rayus223/backend/internal/domain/vacancy"
)

type ApplicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Apply admits a teacher onto a vacancy as one atomic unit: the vacancy
// row is locked, the duplicate and capacity gates run against the
// locked snapshot, and the insert (plus the auto-close when the fifth
// slot fills) commits in the same transaction.
func (r *ApplicationRepository) Apply(ctx context.Context, vacancyID, teacherID common.UUID) (*application.ApplyResult, error) {
	var result *application.ApplyResult
	err := runInTx(ctx, r.db, func(tx *sql.Tx) error {
		v, err := lockVacancy(ctx, tx, vacancyID)
		if err != nil {
			return err
		}
		apps, err := listApplicationsTx(ctx, tx, vacancyID)
		if err != nil {
			return err
		}
		decision, err := vacancy.Admit(*v, apps, teacherID, time.Now().UTC())
		if err != nil {
			return err
		}
		app := decision.Application
		_, err = tx.ExecContext(ctx, `INSERT INTO applications (id, vacancy_id, teacher_id, status, applied_at)
			VALUES ($1, $2, $3, $4, $5)`,
			app.ID, app.VacancyID, app.TeacherID, app.Status, app.AppliedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return vacancy.ErrDuplicateApplication
			}
			return common.NewError(common.CodeInternal, "failed to create application", err)
		}
		if decision.CloseVacancy {
			if _, err := tx.ExecContext(ctx, `UPDATE vacancies SET status = $1, updated_at = $2 WHERE id = $3`,
				vacancy.StatusClosed, time.Now().UTC(), vacancyID); err != nil {
				return common.NewError(common.CodeInternal, "failed to close vacancy", err)
			}
		}
		result = &application.ApplyResult{
			Application:   app,
			Applications:  append(apps, app),
			VacancyClosed: decision.CloseVacancy,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SetStatus transitions one application, running the acceptance cascade
// when the target status is accepted. The vacancy row lock restates the
// "target still pending" precondition at write time.
func (r *ApplicationRepository) SetStatus(ctx context.Context, vacancyID, applicationID common.UUID, target application.Status) ([]application.Application, error) {
	var updated []application.Application
	err := runInTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := lockVacancy(ctx, tx, vacancyID); err != nil {
			return err
		}
		apps, err := listApplicationsTx(ctx, tx, vacancyID)
		if err != nil {
			return err
		}
		switch target {
		case application.StatusAccepted:
			resolved, err := vacancy.ResolveAcceptance(apps, applicationID)
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			if _, err := tx.ExecContext(ctx, `UPDATE applications SET status = $1 WHERE id = $2 AND vacancy_id = $3 AND status = $4`,
				application.StatusAccepted, applicationID, vacancyID, application.StatusPending); err != nil {
				return common.NewError(common.CodeInternal, "failed to accept application", err)
			}
			if _, err := tx.ExecContext(ctx, `UPDATE applications SET status = $1 WHERE vacancy_id = $2 AND status = $3 AND id <> $4`,
				application.StatusRejected, vacancyID, application.StatusPending, applicationID); err != nil {
				return common.NewError(common.CodeInternal, "failed to reject sibling applications", err)
			}
			if _, err := tx.ExecContext(ctx, `UPDATE vacancies SET status = $1, updated_at = $2 WHERE id = $3`,
				vacancy.StatusClosed, now, vacancyID); err != nil {
				return common.NewError(common.CodeInternal, "failed to close vacancy", err)
			}
			updated = resolved
			return nil
		case application.StatusRejected:
			idx := -1
			for i, app := range apps {
				if app.ID == applicationID {
					idx = i
					break
				}
			}
			if idx == -1 {
				return application.ErrNotFound
			}
			if !application.CanTransition(apps[idx].Status, application.StatusRejected) {
				return application.ErrInvalidTransition
			}
			if _, err := tx.ExecContext(ctx, `UPDATE applications SET status = $1 WHERE id = $2 AND vacancy_id = $3 AND status = $4`,
				application.StatusRejected, applicationID, vacancyID, application.StatusPending); err != nil {
				return common.NewError(common.CodeInternal, "failed to reject application", err)
			}
			apps[idx].Status = application.StatusRejected
			updated = apps
			return nil
		default:
			return application.ErrInvalidTransition
		}
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *ApplicationRepository) ListByVacancy(ctx context.Context, vacancyID common.UUID) ([]application.Application, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, vacancy_id, teacher_id, status, applied_at
		FROM applications WHERE vacancy_id = $1 ORDER BY applied_at, id`, vacancyID)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list applications", err)
	}
	defer rows.Close()
	return scanApplications(rows)
}

func (r *ApplicationRepository) ListByTeacher(ctx context.Context, teacherID common.UUID) ([]application.Application, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, vacancy_id, teacher_id, status, applied_at
		FROM applications WHERE teacher_id = $1 ORDER BY applied_at DESC`, teacherID)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list teacher applications", err)
	}
	defer rows.Close()
	return scanApplications(rows)
}

func lockVacancy(ctx context.Context, tx *sql.Tx, id common.UUID) (*vacancy.Vacancy, error) {
	row := tx.QueryRowContext(ctx, `SELECT id, status FROM vacancies WHERE id = $1 FOR UPDATE`, id)
	var v vacancy.Vacancy
	if err := row.Scan(&v.ID, &v.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vacancy.ErrNotFound
		}
		return nil, common.NewError(common.CodeInternal, "failed to lock vacancy", err)
	}
	return &v, nil
}

func listApplicationsTx(ctx context.Context, tx *sql.Tx, vacancyID common.UUID) ([]application.Application, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, vacancy_id, teacher_id, status, applied_at
		FROM applications WHERE vacancy_id = $1 ORDER BY applied_at, id`, vacancyID)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list applications", err)
	}
	defer rows.Close()
	return scanApplications(rows)
}

func scanApplications(rows *sql.Rows) ([]application.Application, error) {
	var items []application.Application
	for rows.Next() {
		var app application.Application
		if err := rows.Scan(&app.ID, &app.VacancyID, &app.TeacherID, &app.Status, &app.AppliedAt); err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to scan application", err)
		}
		items = append(items, app)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to read applications", err)
	}
	return items, nil
}

// isUniqueViolation is the store-level backstop for the duplicate
// guard: applications carry a unique (vacancy_id, teacher_id) index.
func isUniqueViolation(err error) bool {
	return sqlState(err) == "23505"
}
