package application

import (
	"strings"
	"time"

	"github.com/Rayus223/backend/internal/common"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// transitions lists every allowed (from -> to) pair. Accepted and
// rejected are terminal and have no outgoing transitions.
var transitions = map[Status][]Status{
	StatusPending: {StatusAccepted, StatusRejected},
}

func ParseStatus(value string) (Status, error) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StatusPending, StatusAccepted, StatusRejected:
		return normalized, nil
	default:
		return "", common.NewValidationError("invalid application status", map[string]string{"status": "status must be pending, accepted, or rejected"})
	}
}

func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Application is one teacher's request against one vacancy. It is
// created only through a successful apply and is never deleted, only
// transitioned.
type Application struct {
	ID        common.UUID `json:"id"`
	VacancyID common.UUID `json:"vacancy_id"`
	TeacherID common.UUID `json:"teacher_id"`
	Status    Status      `json:"status"`
	AppliedAt time.Time   `json:"applied_at"`
}
