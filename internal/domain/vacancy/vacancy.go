package vacancy

import (
	"strings"
	"time"

	"github.com/Rayus223/backend/internal/common"
)

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// MaxApplications caps concurrent applications per vacancy. Admitting
// the fifth applicant closes the vacancy in the same write.
const MaxApplications = 5

func ParseStatus(value string) (Status, error) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StatusOpen, StatusClosed:
		return normalized, nil
	default:
		return "", common.NewValidationError("invalid vacancy status", map[string]string{"status": "status must be open or closed"})
	}
}

type Vacancy struct {
	ID           common.UUID `json:"id"`
	Title        string      `json:"title"`
	Subject      string      `json:"subject"`
	Description  string      `json:"description"`
	Requirements []string    `json:"requirements"`
	Salary       string      `json:"salary"`
	Featured     bool        `json:"featured"`
	Status       Status      `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
