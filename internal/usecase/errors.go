package usecase

import (
	"errors"
	"fmt"

	"mentor-booking/pkg/utils"
)

// Error classes. Handlers map a class to a status code with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	// ErrIntegrity marks input that passed authentication but is internally
	// inconsistent, such as webhook metadata that does not decode.
	ErrIntegrity = errors.New("integrity violation")
)

var (
	ErrInvalidDuration = fmt.Errorf("%w: slot length does not match the plan duration", ErrValidation)
	ErrInvalidDiscount = fmt.Errorf("%w: discount is not applicable", ErrValidation)
	ErrZeroAmount      = fmt.Errorf("%w: final amount must be greater than zero", ErrValidation)

	ErrSlotUnavailable   = fmt.Errorf("%w: slot is not available", ErrConflict)
	ErrSlotConflict      = fmt.Errorf("%w: slot was already claimed", ErrConflict)
	ErrDiscountExhausted = fmt.Errorf("%w: discount usage limit reached", ErrConflict)
	ErrInvalidTransition = fmt.Errorf("%w: status transition not allowed", ErrConflict)

	ErrInvalidSignature = fmt.Errorf("%w: invalid webhook signature", ErrIntegrity)
)

// ValidationError carries per-field messages for a 400 response.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", utils.FormatValidationErrors(e.Fields))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// validate runs the struct validator and wraps failures.
func validate(req any) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return newValidationError(errs)
	}
	return nil
}
