package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Rayus223/backend/internal/common"
	"github.com/Rayus223/backend/internal/domain/application"
	"github.com/Rayus223/backend/internal/domain/teacher"
	"github.com/Rayus223/backend/internal/domain/vacancy"
)

// Notifier receives committed vacancy mutations. The realtime layer
// subscribes through this seam; the service has no ambient broadcast
// state of its own.
type Notifier interface {
	VacancyUpdated(id common.UUID)
}

type noopNotifier struct{}

func (noopNotifier) VacancyUpdated(common.UUID) {}

// Applicant is an application with its identity fields resolved.
type Applicant struct {
	application.Application
	FullName        string   `json:"full_name,omitempty"`
	Subjects        []string `json:"subjects,omitempty"`
	ExperienceYears int      `json:"experience_years,omitempty"`
}

type ApplicationService struct {
	repo      application.Repository
	vacancies vacancy.Repository
	teachers  teacher.Repository
	notifier  Notifier
	logger    *slog.Logger
}

func NewApplicationService(repo application.Repository, vacancies vacancy.Repository, teachers teacher.Repository, notifier Notifier, logger *slog.Logger) *ApplicationService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &ApplicationService{repo: repo, vacancies: vacancies, teachers: teachers, notifier: notifier, logger: logger}
}

// Apply admits a teacher onto a vacancy. The duplicate and capacity
// gates, the append, and the auto-close on the fifth slot all commit as
// one conditional write in the repository; a retried request that
// already committed surfaces as a duplicate, never a second entry.
func (s *ApplicationService) Apply(ctx context.Context, vacancyID, teacherID common.UUID) (*application.ApplyResult, error) {
	if _, err := s.teachers.GetByID(ctx, teacherID); err != nil {
		if common.Is(err, common.CodeNotFound) {
			return nil, common.NewError(common.CodeValidation, "teacher profile is required", nil)
		}
		return nil, err
	}
	result, err := s.repo.Apply(ctx, vacancyID, teacherID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("application created",
		"application_id", result.Application.ID,
		"vacancy_id", vacancyID,
		"teacher_id", teacherID,
		"vacancy_closed", result.VacancyClosed)
	s.notifier.VacancyUpdated(vacancyID)
	return result, nil
}

// SetStatus transitions an application to accepted or rejected.
// Accepting cascades: every other pending application on the vacancy is
// rejected and the vacancy closes, all in the same committed write. A
// plain rejection touches only the one application.
func (s *ApplicationService) SetStatus(ctx context.Context, vacancyID, applicationID common.UUID, target application.Status) ([]application.Application, error) {
	if target != application.StatusAccepted && target != application.StatusRejected {
		return nil, application.ErrInvalidTransition
	}
	updated, err := s.repo.SetStatus(ctx, vacancyID, applicationID, target)
	if err != nil {
		if errors.Is(err, vacancy.ErrConflictingAcceptance) {
			s.logger.Error("conflicting acceptance detected",
				"vacancy_id", vacancyID,
				"application_id", applicationID)
		}
		return nil, err
	}
	s.logger.Info("application status changed",
		"application_id", applicationID,
		"vacancy_id", vacancyID,
		"status", target)
	s.notifier.VacancyUpdated(vacancyID)
	return updated, nil
}

func (s *ApplicationService) ListAvailable(ctx context.Context, teacherID common.UUID, limit, offset int) ([]vacancy.Vacancy, error) {
	return s.vacancies.ListAvailable(ctx, teacherID, limit, offset)
}

func (s *ApplicationService) ListByTeacher(ctx context.Context, teacherID common.UUID) ([]application.Application, error) {
	return s.repo.ListByTeacher(ctx, teacherID)
}

// ListApplicants returns the vacancy's applications with identity
// fields resolved through the teacher repository. A missing profile
// degrades to the bare application rather than failing the listing.
func (s *ApplicationService) ListApplicants(ctx context.Context, vacancyID common.UUID) ([]Applicant, error) {
	if _, err := s.vacancies.GetByID(ctx, vacancyID); err != nil {
		return nil, err
	}
	apps, err := s.repo.ListByVacancy(ctx, vacancyID)
	if err != nil {
		return nil, err
	}
	applicants := make([]Applicant, 0, len(apps))
	for _, app := range apps {
		applicant := Applicant{Application: app}
		profile, err := s.teachers.GetByID(ctx, app.TeacherID)
		if err == nil {
			applicant.FullName = profile.FullName
			applicant.Subjects = profile.Subjects
			applicant.ExperienceYears = profile.ExperienceYears
		} else if !common.Is(err, common.CodeNotFound) {
			return nil, err
		}
		applicants = append(applicants, applicant)
	}
	return applicants, nil
}
