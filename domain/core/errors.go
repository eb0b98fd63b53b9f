package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input validation errors
	ErrInvalidInput      = errors.New("invalid input")
	ErrEmptyDataset      = fmt.Errorf("%w: dataset cannot be empty", ErrInvalidInput)
	ErrShapeMismatch     = fmt.Errorf("%w: shape mismatch", ErrInvalidInput)
	ErrInvalidParameter  = fmt.Errorf("%w: parameter out of range", ErrInvalidInput)
	ErrUnsupportedMethod = errors.New("unsupported feature selection method")
	ErrUnsupportedModel  = errors.New("unsupported model type")

	// Data sufficiency errors
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrSingleClass      = fmt.Errorf("%w: labels contain only one class", ErrInsufficientData)
	ErrDegenerateColumn = fmt.Errorf("%w: feature has no variation", ErrInsufficientData)

	// Budget and lifecycle errors
	ErrComputeBudget = errors.New("compute budget exceeded")
	ErrRateLimited   = errors.New("rate limit exceeded")
	ErrTimeout       = errors.New("operation timed out")
	ErrNotFitted     = errors.New("model has not been fitted")

	// Lookup errors
	ErrNotFound      = errors.New("resource not found")
	ErrModelNotFound = fmt.Errorf("%w: model", ErrNotFound)
)

// Error constructors with context
func NewShapeMismatchError(what string, got, want int) error {
	return fmt.Errorf("%w: %s has length %d, expected %d", ErrShapeMismatch, what, got, want)
}

func NewParameterError(name string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidParameter, name, reason)
}

func NewUnsupportedMethodError(method string, supported []string) error {
	return fmt.Errorf("%w: %q (supported: %v)", ErrUnsupportedMethod, method, supported)
}

func NewModelNotFoundError(modelID string) error {
	return fmt.Errorf("%w with id %s", ErrModelNotFound, modelID)
}

func NewBudgetError(what string, requested, ceiling int) error {
	return fmt.Errorf("%w: %s %d exceeds ceiling %d", ErrComputeBudget, what, requested, ceiling)
}

// Error checking helpers
func IsInvalidInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrUnsupportedMethod) ||
		errors.Is(err, ErrUnsupportedModel)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsBudgetError(err error) bool {
	return errors.Is(err, ErrComputeBudget)
}

func IsTimeoutError(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
