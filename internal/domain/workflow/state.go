package workflow

// State represents the statut of a dossier comptable
type State string

const (
	StateEnAttente            State = "EN_ATTENTE"
	StateValideCB             State = "VALIDÉ_CB"
	StateRejeteCB             State = "REJETÉ_CB"
	StateValideOrdonnateur    State = "VALIDÉ_ORDONNATEUR"
	StateValideDefinitivement State = "VALIDÉ_DÉFINITIVEMENT"
	StateTermine              State = "TERMINÉ"
)

var validStates = map[State]bool{
	StateEnAttente:            true,
	StateValideCB:             true,
	StateRejeteCB:             true,
	StateValideOrdonnateur:    true,
	StateValideDefinitivement: true,
	StateTermine:              true,
}

var terminalStates = map[State]bool{
	StateRejeteCB: true,
	StateTermine:  true,
}

// AllStates returns the states in nominal forward order
func AllStates() []State {
	return []State{
		StateEnAttente,
		StateValideCB,
		StateRejeteCB,
		StateValideOrdonnateur,
		StateValideDefinitivement,
		StateTermine,
	}
}

// IsTerminal returns true if no transition leaves the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid dossier state
func (s State) IsValid() bool {
	return validStates[s]
}
