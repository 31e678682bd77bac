package vacancy

import (
	"sort"
	"time"

	"github.com/Rayus223/backend/internal/common"
	"github.com/Rayus223/backend/internal/domain/application"
)

// CheckNotDuplicate rejects an applicant who already holds an
// application on the vacancy, regardless of that application's status.
// A rejected teacher may not reapply.
func CheckNotDuplicate(apps []application.Application, teacherID common.UUID) error {
	for _, app := range apps {
		if app.TeacherID == teacherID {
			return ErrDuplicateApplication
		}
	}
	return nil
}

// AdmitDecision is the combined write produced by the capacity gate:
// append the pending application and, when it fills the last slot,
// close the vacancy. Both must commit together or not at all.
type AdmitDecision struct {
	Application  application.Application
	CloseVacancy bool
}

// Admit runs the duplicate guard and the capacity gate against the
// vacancy's current application snapshot. Callers must evaluate it on
// state that cannot change before the write commits.
//
// The duplicate guard runs first: a retry of an apply that already
// committed must surface as a duplicate even when that commit filled
// the last slot and closed the vacancy.
func Admit(v Vacancy, apps []application.Application, teacherID common.UUID, now time.Time) (AdmitDecision, error) {
	if err := CheckNotDuplicate(apps, teacherID); err != nil {
		return AdmitDecision{}, err
	}
	if v.Status != StatusOpen {
		return AdmitDecision{}, ErrClosed
	}
	if len(apps) >= MaxApplications {
		return AdmitDecision{}, ErrCapacityExceeded
	}
	return AdmitDecision{
		Application: application.Application{
			ID:        common.NewUUID(),
			VacancyID: v.ID,
			TeacherID: teacherID,
			Status:    application.StatusPending,
			AppliedAt: now,
		},
		CloseVacancy: len(apps)+1 == MaxApplications,
	}, nil
}

// ResolveAcceptance applies the acceptance cascade to a snapshot: the
// target becomes accepted, every other pending application becomes
// rejected, already-rejected siblings are untouched. The returned slice
// is a copy in applied-at order; the input is not mutated.
func ResolveAcceptance(apps []application.Application, acceptedID common.UUID) ([]application.Application, error) {
	updated := make([]application.Application, len(apps))
	copy(updated, apps)
	SortByAppliedAt(updated)

	target := -1
	for i, app := range updated {
		if app.ID == acceptedID {
			target = i
			break
		}
	}
	if target == -1 {
		return nil, application.ErrNotFound
	}
	for i, app := range updated {
		if i != target && app.Status == application.StatusAccepted {
			return nil, ErrConflictingAcceptance
		}
	}
	if !application.CanTransition(updated[target].Status, application.StatusAccepted) {
		return nil, application.ErrInvalidTransition
	}

	updated[target].Status = application.StatusAccepted
	for i := range updated {
		if i != target && updated[i].Status == application.StatusPending {
			updated[i].Status = application.StatusRejected
		}
	}
	return updated, nil
}

// SortByAppliedAt orders applications by applied-at ascending with the
// id as a tie-breaker, so capacity counting and cascade rejection are
// deterministic regardless of request arrival order.
func SortByAppliedAt(apps []application.Application) {
	sort.SliceStable(apps, func(i, j int) bool {
		if apps[i].AppliedAt.Equal(apps[j].AppliedAt) {
			return apps[i].ID < apps[j].ID
		}
		return apps[i].AppliedAt.Before(apps[j].AppliedAt)
	})
}
