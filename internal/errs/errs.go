package errs

import (
	"errors"
	"fmt"
)

// Доменные сентинель-ошибки для маппинга в HTTP коды в handlers.
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSeriesNotFound     = errors.New("series not found")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrNotConnected       = errors.New("platform not connected")
	ErrValidation         = errors.New("validation failed")
)

// Validation wraps ErrValidation with a reason so handlers can map it to 400.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// AuthenticationError indicates bad or missing credentials at connect time.
// It aborts client construction only; it never escalates past its binding.
type AuthenticationError struct {
	Platform string
	Reason   string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s authentication failed: %s", e.Platform, e.Reason)
}

// ProvisioningError indicates a remote create failed. Recorded on the
// binding, non-fatal to siblings.
type ProvisioningError struct {
	Platform string
	Err      error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("%s provisioning failed: %v", e.Platform, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// BroadcastControlError indicates start/stop/update/delete failed remotely.
// Recorded on the binding, non-fatal to siblings.
type BroadcastControlError struct {
	Platform  string
	Operation string
	Err       error
}

func (e *BroadcastControlError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Platform, e.Operation, e.Err)
}

func (e *BroadcastControlError) Unwrap() error { return e.Err }
