package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when no edge leaves the current state for the trigger
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not valid
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when a guard condition fails
	ErrGuardFailed = errors.New("guard condition failed")

	// ErrRoleNotPermitted is returned when the caller's role may never fire the trigger
	ErrRoleNotPermitted = errors.New("role not permitted for trigger")

	// ErrInvalidRole is returned when a role value is unknown
	ErrInvalidRole = errors.New("invalid role")
)
