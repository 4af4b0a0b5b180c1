package workflow

import (
	"context"
	"fmt"
	"sort"
)

// GuardFunc is a function that evaluates whether a transition should be allowed
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder builds a configured state machine
type StateMachineBuilder interface {
	// Configure returns a state configuration for the given state
	Configure(state State) StateConfiguration

	// Build creates a new state machine instance with the given initial state
	Build(initialState State) StateMachine
}

// StateConfiguration configures transitions for a specific state
type StateConfiguration interface {
	// Permit allows the role to fire trigger and move to the target state
	Permit(trigger Trigger, toState State, role Role) StateConfiguration

	// PermitIf allows the role to fire trigger if the guard condition passes
	PermitIf(trigger Trigger, toState State, role Role, guard GuardFunc) StateConfiguration

	// PermitReentry allows the role to fire an action that keeps the current state
	PermitReentry(trigger Trigger, role Role) StateConfiguration
}

type transition struct {
	toState State
	role    Role
	guard   GuardFunc
}

type stateConfig struct {
	fromState   State
	transitions map[Trigger][]transition
}

type stateMachineBuilder struct {
	configurations map[State]*stateConfig
}

type stateMachine struct {
	currentState   State
	configurations map[State]*stateConfig
	triggerRoles   map[Trigger]map[Role]bool
}

// NewBuilder creates a new state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{
		configurations: make(map[State]*stateConfig),
	}
}

// Configure returns a state configuration for the given state
func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig{
			fromState:   state,
			transitions: make(map[Trigger][]transition),
		}
		b.configurations[state] = config
	}

	return config
}

// Build creates a new state machine instance with the given initial state
func (b *stateMachineBuilder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	// Copy so that later Configure calls never leak into built machines
	configsCopy := make(map[State]*stateConfig, len(b.configurations))
	triggerRoles := make(map[Trigger]map[Role]bool)
	for state, config := range b.configurations {
		transitionsCopy := make(map[Trigger][]transition, len(config.transitions))
		for trigger, transitions := range config.transitions {
			transitionsCopy[trigger] = append([]transition{}, transitions...)
			for _, t := range transitions {
				if triggerRoles[trigger] == nil {
					triggerRoles[trigger] = make(map[Role]bool)
				}
				triggerRoles[trigger][t.role] = true
			}
		}
		configsCopy[state] = &stateConfig{
			fromState:   state,
			transitions: transitionsCopy,
		}
	}

	return &stateMachine{
		currentState:   initialState,
		configurations: configsCopy,
		triggerRoles:   triggerRoles,
	}
}

// Permit allows the role to fire trigger and move to the target state
func (c *stateConfig) Permit(trigger Trigger, toState State, role Role) StateConfiguration {
	return c.PermitIf(trigger, toState, role, nil)
}

// PermitIf allows the role to fire trigger if the guard condition passes
func (c *stateConfig) PermitIf(trigger Trigger, toState State, role Role, guard GuardFunc) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}
	if !role.IsValid() {
		panic(fmt.Sprintf("invalid role: %s", role))
	}

	c.transitions[trigger] = append(c.transitions[trigger], transition{
		toState: toState,
		role:    role,
		guard:   guard,
	})

	return c
}

// PermitReentry allows the role to fire an action that keeps the current state
func (c *stateConfig) PermitReentry(trigger Trigger, role Role) StateConfiguration {
	return c.Permit(trigger, c.fromState, role)
}

// State returns the current state
func (m *stateMachine) State() State {
	return m.currentState
}

func (m *stateMachine) edges(role Role, trigger Trigger) []transition {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return nil
	}

	var out []transition
	for _, t := range config.transitions[trigger] {
		if t.role == role {
			out = append(out, t)
		}
	}
	return out
}

// CanFire returns true if the role may fire the trigger from the current state.
// Guards are not evaluated.
func (m *stateMachine) CanFire(role Role, trigger Trigger) bool {
	return m.Authorize(role, trigger) == nil
}

// Authorize checks the role first, then the existence of an edge from the current state
func (m *stateMachine) Authorize(role Role, trigger Trigger) error {
	if !m.triggerRoles[trigger][role] {
		return fmt.Errorf("%w: role %s cannot fire %s", ErrRoleNotPermitted, role, trigger)
	}
	if len(m.edges(role, trigger)) == 0 {
		return fmt.Errorf("%w: cannot fire trigger %s from state %s", ErrInvalidTransition, trigger, m.currentState)
	}
	return nil
}

// Fire attempts to execute the trigger, transitioning to the new state if allowed
func (m *stateMachine) Fire(ctx context.Context, role Role, trigger Trigger) error {
	if err := m.Authorize(role, trigger); err != nil {
		return err
	}

	// Try each transition in order until one succeeds
	for _, t := range m.edges(role, trigger) {
		if t.guard == nil || t.guard(ctx) {
			m.currentState = t.toState
			return nil
		}
	}

	return fmt.Errorf("%w: trigger %s from state %s", ErrGuardFailed, trigger, m.currentState)
}

// PermittedTriggers returns the triggers the role can fire in the current state, sorted by name
func (m *stateMachine) PermittedTriggers(role Role) []Trigger {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(config.transitions))
	for trigger := range config.transitions {
		if len(m.edges(role, trigger)) > 0 {
			triggers = append(triggers, trigger)
		}
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })

	return triggers
}
