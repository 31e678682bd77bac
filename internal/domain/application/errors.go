package application

import "github.com/Rayus223/backend/internal/common"

var (
	ErrNotFound          = common.NewError(common.CodeNotFound, "application not found", nil)
	ErrInvalidTransition = common.NewError(common.CodeValidation, "invalid status transition", nil)
)
