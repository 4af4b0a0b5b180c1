package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateEnAttente, false},
		{StateValideCB, false},
		{StateValideOrdonnateur, false},
		{StateValideDefinitivement, false},
		{StateRejeteCB, true},
		{StateTermine, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"initial state", StateEnAttente, true},
		{"terminal state", StateTermine, true},
		{"payment is not a state", State("PAYÉ"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAllStates(t *testing.T) {
	states := AllStates()
	if len(states) != 6 {
		t.Fatalf("AllStates() returned %d states, want 6", len(states))
	}
	for _, s := range states {
		if !s.IsValid() {
			t.Errorf("AllStates() contains invalid state %s", s)
		}
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("ORDONNATEUR")
	if err != nil || r != RoleOrdonnateur {
		t.Errorf("ParseRole() = %v, %v", r, err)
	}

	if _, err := ParseRole("ADMIN"); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("ParseRole(ADMIN) error = %v, want ErrInvalidRole", err)
	}
}

func TestBuilder_Configure(t *testing.T) {
	builder := NewBuilder()

	config := builder.Configure(StateEnAttente)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}

	config2 := builder.Configure(StateEnAttente)
	if config != config2 {
		t.Error("Configure() should return same config for same state")
	}
}

func TestBuilder_ConfigureInvalidState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	NewBuilder().Configure(State("INVALID"))
}

func TestBuilder_PermitInvalidRole(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic on invalid role")
		}
	}()

	NewBuilder().Configure(StateEnAttente).Permit(TriggerValiderCB, StateValideCB, Role("GUEST"))
}

func newTestBuilder() StateMachineBuilder {
	builder := NewBuilder()
	builder.Configure(StateEnAttente).
		Permit(TriggerValiderCB, StateValideCB, RoleControleurBudgetaire).
		Permit(TriggerRejeterCB, StateRejeteCB, RoleControleurBudgetaire)
	builder.Configure(StateValideCB).
		Permit(TriggerOrdonnancer, StateValideOrdonnateur, RoleOrdonnateur).
		PermitReentry(TriggerSoumettreVerifications, RoleOrdonnateur)
	builder.Configure(StateValideOrdonnateur).
		PermitReentry(TriggerSoumettreVerifications, RoleAgentComptable)
	return builder
}

func TestMachine_Fire(t *testing.T) {
	ctx := context.Background()
	m := newTestBuilder().Build(StateEnAttente)

	if err := m.Fire(ctx, RoleControleurBudgetaire, TriggerValiderCB); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if m.State() != StateValideCB {
		t.Errorf("State() = %v, want %v", m.State(), StateValideCB)
	}

	if err := m.Fire(ctx, RoleOrdonnateur, TriggerSoumettreVerifications); err != nil {
		t.Fatalf("Fire(reentry) error = %v", err)
	}
	if m.State() != StateValideCB {
		t.Errorf("reentry changed state to %v", m.State())
	}
}

func TestMachine_RoleCheckedBeforeState(t *testing.T) {
	ctx := context.Background()
	m := newTestBuilder().Build(StateValideCB)

	// wrong role and wrong state: role wins
	err := m.Fire(ctx, RoleSecretaire, TriggerValiderCB)
	if !errors.Is(err, ErrRoleNotPermitted) {
		t.Errorf("Fire() error = %v, want ErrRoleNotPermitted", err)
	}

	// right role, wrong state
	err = m.Fire(ctx, RoleControleurBudgetaire, TriggerValiderCB)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want ErrInvalidTransition", err)
	}
	if m.State() != StateValideCB {
		t.Errorf("failed Fire() changed state to %v", m.State())
	}
}

func TestMachine_RoleScopedPerState(t *testing.T) {
	m := newTestBuilder().Build(StateValideOrdonnateur)

	if m.CanFire(RoleOrdonnateur, TriggerSoumettreVerifications) {
		t.Error("ordonnateur should not submit verifications once ordonnanced")
	}
	if !m.CanFire(RoleAgentComptable, TriggerSoumettreVerifications) {
		t.Error("agent comptable should submit verifications in VALIDÉ_ORDONNATEUR")
	}
}

func TestMachine_PermitIf(t *testing.T) {
	ctx := context.Background()
	allowed := false

	builder := NewBuilder()
	builder.Configure(StateValideOrdonnateur).
		PermitIf(TriggerValiderDefinitivement, StateValideDefinitivement, RoleAgentComptable, func(ctx context.Context) bool {
			return allowed
		})

	m := builder.Build(StateValideOrdonnateur)
	err := m.Fire(ctx, RoleAgentComptable, TriggerValiderDefinitivement)
	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire() error = %v, want ErrGuardFailed", err)
	}

	allowed = true
	if err := m.Fire(ctx, RoleAgentComptable, TriggerValiderDefinitivement); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if m.State() != StateValideDefinitivement {
		t.Errorf("State() = %v, want %v", m.State(), StateValideDefinitivement)
	}
}

func TestMachine_TerminalStateHasNoEdges(t *testing.T) {
	m := newTestBuilder().Build(StateRejeteCB)

	if got := m.PermittedTriggers(RoleControleurBudgetaire); len(got) != 0 {
		t.Errorf("PermittedTriggers() = %v, want none", got)
	}
	err := m.Fire(context.Background(), RoleControleurBudgetaire, TriggerValiderCB)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want ErrInvalidTransition", err)
	}
}

func TestMachine_PermittedTriggersSorted(t *testing.T) {
	m := newTestBuilder().Build(StateEnAttente)

	got := m.PermittedTriggers(RoleControleurBudgetaire)
	want := []Trigger{TriggerRejeterCB, TriggerValiderCB}
	if len(got) != len(want) {
		t.Fatalf("PermittedTriggers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PermittedTriggers()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if got := m.PermittedTriggers(RoleOrdonnateur); len(got) != 0 {
		t.Errorf("PermittedTriggers(ordonnateur) = %v, want none", got)
	}
}

func TestBuilder_BuildIsolation(t *testing.T) {
	builder := newTestBuilder()
	m := builder.Build(StateValideOrdonnateur)

	builder.Configure(StateValideOrdonnateur).
		Permit(TriggerCloturer, StateTermine, RoleAgentComptable)

	if m.CanFire(RoleAgentComptable, TriggerCloturer) {
		t.Error("built machine should not see later configuration")
	}
}
