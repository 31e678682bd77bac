package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rayus223/backend/internal/common"
	"github.com/Rayus223/backend/internal/domain/application"
	"github.com/Rayus223/backend/internal/domain/vacancy"
)

// stubSQLErr stands in for a driver error carrying a SQLSTATE code.
type stubSQLErr struct {
	state string
}

func (e stubSQLErr) Error() string    { return "sqlstate " + e.state }
func (e stubSQLErr) SQLState() string { return e.state }

func newMockRepo(t *testing.T) (*ApplicationRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewApplicationRepository(db), mock
}

func appColumns() []string {
	return []string{"id", "vacancy_id", "teacher_id", "status", "applied_at"}
}

func TestApplyInsertsAndCommits(t *testing.T) {
	repo, mock := newMockRepo(t)
	vacancyID := common.NewUUID()
	teacherID := common.NewUUID()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, status FROM vacancies WHERE id = \$1 FOR UPDATE`).
		WithArgs(string(vacancyID)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(string(vacancyID), "open"))
	mock.ExpectQuery(`SELECT id, vacancy_id, teacher_id, status, applied_at`).
		WillReturnRows(sqlmock.NewRows(appColumns()))
	mock.ExpectExec(`INSERT INTO applications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Apply(context.Background(), vacancyID, teacherID)
	require.NoError(t, err)
	assert.Equal(t, application.StatusPending, result.Application.Status)
	assert.False(t, result.VacancyClosed)
	assert.Len(t, result.Applications, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyFifthApplicantClosesVacancy(t *testing.T) {
	repo, mock := newMockRepo(t)
	vacancyID := common.NewUUID()
	teacherID := common.NewUUID()

	rows := sqlmock.NewRows(appColumns())
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		rows.AddRow(string(common.NewUUID()), string(vacancyID), string(common.NewUUID()), "pending", base.Add(time.Duration(i)*time.Minute))
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, status FROM vacancies WHERE id = \$1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(string(vacancyID), "open"))
	mock.ExpectQuery(`SELECT id, vacancy_id, teacher_id, status, applied_at`).
		WillReturnRows(rows)
	mock.ExpectExec(`INSERT INTO applications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE vacancies SET status`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Apply(context.Background(), vacancyID, teacherID)
	require.NoError(t, err)
	assert.True(t, result.VacancyClosed)
	assert.Len(t, result.Applications, 5)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyClosedVacancyRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	vacancyID := common.NewUUID()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, status FROM vacancies WHERE id = \$1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(string(vacancyID), "closed"))
	mock.ExpectRollback()

	_, err := repo.Apply(context.Background(), vacancyID, common.NewUUID())
	assert.True(t, errors.Is(err, vacancy.ErrClosed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyVacancyMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, status FROM vacancies WHERE id = \$1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))
	mock.ExpectRollback()

	_, err := repo.Apply(context.Background(), common.NewUUID(), common.NewUUID())
	assert.True(t, errors.Is(err, vacancy.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyUniqueViolationMapsToDuplicate(t *testing.T) {
	repo, mock := newMockRepo(t)
	vacancyID := common.NewUUID()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, status FROM vacancies WHERE id = \$1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(string(vacancyID), "open"))
	mock.ExpectQuery(`SELECT id, vacancy_id, teacher_id, status, applied_at`).
		WillReturnRows(sqlmock.NewRows(appColumns()))
	mock.ExpectExec(`INSERT INTO applications`).
		WillReturnError(stubSQLErr{state: "23505"})
	mock.ExpectRollback()

	_, err := repo.Apply(context.Background(), vacancyID, common.NewUUID())
	assert.True(t, errors.Is(err, vacancy.ErrDuplicateApplication))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyRetriesSerializationFailure(t *testing.T) {
	repo, mock := newMockRepo(t)
	vacancyID := common.NewUUID()

	// first attempt loses the serialization race
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, status FROM vacancies WHERE id = \$1 FOR UPDATE`).
		WillReturnError(stubSQLErr{state: "40001"})
	mock.ExpectRollback()

	// second attempt goes through
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, status FROM vacancies WHERE id = \$1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(string(vacancyID), "open"))
	mock.ExpectQuery(`SELECT id, vacancy_id, teacher_id, status, applied_at`).
		WillReturnRows(sqlmock.NewRows(appColumns()))
	mock.ExpectExec(`INSERT INTO applications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := repo.Apply(context.Background(), vacancyID, common.NewUUID())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatusAcceptedCascades(t *testing.T) {
	repo, mock := newMockRepo(t)
	vacancyID := common.NewUUID()
	target := common.NewUUID()
	sibling := common.NewUUID()
	base := time.Now().UTC().Add(-time.Hour)

	rows := sqlmock.NewRows(appColumns()).
		AddRow(string(target), string(vacancyID), string(common.NewUUID()), "pending", base).
		AddRow(string(sibling), string(vacancyID), string(common.NewUUID()), "pending", base.Add(time.Minute))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, status FROM vacancies WHERE id = \$1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(string(vacancyID), "open"))
	mock.ExpectQuery(`SELECT id, vacancy_id, teacher_id, status, applied_at`).
		WillReturnRows(rows)
	mock.ExpectExec(`UPDATE applications SET status = \$1 WHERE id = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE applications SET status = \$1 WHERE vacancy_id = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE vacancies SET status`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updated, err := repo.SetStatus(context.Background(), vacancyID, target, application.StatusAccepted)
	require.NoError(t, err)
	require.Len(t, updated, 2)
	for _, app := range updated {
		if app.ID == target {
			assert.Equal(t, application.StatusAccepted, app.Status)
		} else {
			assert.Equal(t, application.StatusRejected, app.Status)
		}
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatusRejectedLeavesVacancyOpen(t *testing.T) {
	repo, mock := newMockRepo(t)
	vacancyID := common.NewUUID()
	target := common.NewUUID()

	rows := sqlmock.NewRows(appColumns()).
		AddRow(string(target), string(vacancyID), string(common.NewUUID()), "pending", time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, status FROM vacancies WHERE id = \$1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(string(vacancyID), "open"))
	mock.ExpectQuery(`SELECT id, vacancy_id, teacher_id, status, applied_at`).
		WillReturnRows(rows)
	mock.ExpectExec(`UPDATE applications SET status = \$1 WHERE id = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updated, err := repo.SetStatus(context.Background(), vacancyID, target, application.StatusRejected)
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, application.StatusRejected, updated[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatusUnknownApplication(t *testing.T) {
	repo, mock := newMockRepo(t)
	vacancyID := common.NewUUID()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, status FROM vacancies WHERE id = \$1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(string(vacancyID), "open"))
	mock.ExpectQuery(`SELECT id, vacancy_id, teacher_id, status, applied_at`).
		WillReturnRows(sqlmock.NewRows(appColumns()))
	mock.ExpectRollback()

	_, err := repo.SetStatus(context.Background(), vacancyID, common.NewUUID(), application.StatusRejected)
	assert.True(t, errors.Is(err, application.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
