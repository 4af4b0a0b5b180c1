package workflow

import "context"

// StateMachine tracks the current state of one dossier and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the role may fire the trigger from the current state
	CanFire(role Role, trigger Trigger) bool

	// Authorize checks the role first, then the existence of an edge from the current state
	Authorize(role Role, trigger Trigger) error

	// Fire attempts to execute the trigger, transitioning to the new state if allowed
	Fire(ctx context.Context, role Role, trigger Trigger) error

	// PermittedTriggers returns the triggers the role can fire in the current state
	PermittedTriggers(role Role) []Trigger
}
