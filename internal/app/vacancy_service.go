package app

import (
	"context"
	"log/slog"

	"github.com/Rayus223/backend/internal/common"
	"github.com/Rayus223/backend/internal/domain/vacancy"
)

type VacancyService struct {
	repo     vacancy.Repository
	notifier Notifier
	logger   *slog.Logger
}

func NewVacancyService(repo vacancy.Repository, notifier Notifier, logger *slog.Logger) *VacancyService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &VacancyService{repo: repo, notifier: notifier, logger: logger}
}

func (s *VacancyService) Create(ctx context.Context, v vacancy.Vacancy) (*vacancy.Vacancy, error) {
	if err := validateVacancy(v); err != nil {
		return nil, err
	}
	if v.Status == "" {
		v.Status = vacancy.StatusOpen
	}
	normalized, err := vacancy.ParseStatus(string(v.Status))
	if err != nil {
		return nil, err
	}
	v.Status = normalized
	created, err := s.repo.Create(ctx, v)
	if err != nil {
		return nil, err
	}
	s.logger.Info("vacancy created", "vacancy_id", created.ID, "title", created.Title)
	s.notifier.VacancyUpdated(created.ID)
	return created, nil
}

// Update edits descriptive fields only. Status changes go through
// UpdateStatus so the override path stays explicit.
func (s *VacancyService) Update(ctx context.Context, v vacancy.Vacancy) (*vacancy.Vacancy, error) {
	if err := validateVacancy(v); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, v)
	if err != nil {
		return nil, err
	}
	s.logger.Info("vacancy updated", "vacancy_id", updated.ID)
	s.notifier.VacancyUpdated(updated.ID)
	return updated, nil
}

// UpdateStatus is the administrative override. Reopening a vacancy does
// not bypass the capacity gate: a vacancy holding five applications
// still refuses a sixth.
func (s *VacancyService) UpdateStatus(ctx context.Context, id common.UUID, status vacancy.Status) (*vacancy.Vacancy, error) {
	normalized, err := vacancy.ParseStatus(string(status))
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdateStatus(ctx, id, normalized)
	if err != nil {
		return nil, err
	}
	s.logger.Info("vacancy status changed", "vacancy_id", id, "status", normalized)
	s.notifier.VacancyUpdated(id)
	return updated, nil
}

func (s *VacancyService) Get(ctx context.Context, id common.UUID) (*vacancy.Vacancy, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *VacancyService) ListOpen(ctx context.Context, limit, offset int) ([]vacancy.Vacancy, error) {
	return s.repo.ListOpen(ctx, limit, offset)
}

func validateVacancy(v vacancy.Vacancy) error {
	fields := map[string]string{}
	if v.Title == "" {
		fields["title"] = "title is required"
	}
	if v.Subject == "" {
		fields["subject"] = "subject is required"
	}
	if v.Description == "" {
		fields["description"] = "description is required"
	}
	if v.Salary == "" {
		fields["salary"] = "salary is required"
	}
	if len(fields) > 0 {
		return common.NewValidationError("invalid vacancy", fields)
	}
	return nil
}
