package vacancy

import "github.com/Rayus223/backend/internal/common"

var (
	ErrNotFound             = common.NewError(common.CodeNotFound, "vacancy not found", nil)
	ErrClosed               = common.NewError(common.CodeConflict, "vacancy is closed", nil)
	ErrCapacityExceeded     = common.NewError(common.CodeConflict, "vacancy application limit reached", nil)
	ErrDuplicateApplication = common.NewError(common.CodeConflict, "already applied to this vacancy", nil)

	// ErrConflictingAcceptance signals a data-integrity fault: a second
	// accepted application was found on the same vacancy. It is logged
	// and surfaced, never auto-corrected.
	ErrConflictingAcceptance = common.NewError(common.CodeInternal, "vacancy already has an accepted application", nil)

	// ErrStoreConflict is returned when every retry of a lost
	// conditional write has failed.
	ErrStoreConflict = common.NewError(common.CodeInternal, "storage conflict", nil)
)
