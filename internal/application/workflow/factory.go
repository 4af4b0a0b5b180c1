package workflow

import (
	domainwf "github.com/ac-tresor/dossiers/internal/domain/workflow"
)

// Guards are evaluated when the corresponding trigger fires
type Guards struct {
	// OperationTypeValidated gates CB validation when the strict variant is on
	OperationTypeValidated domainwf.GuardFunc
	// VerificationsConsistent gates definitive validation
	VerificationsConsistent domainwf.GuardFunc
}

// BuildDossierStateMachine creates a state machine configured for the dossier approval chain
func BuildDossierStateMachine(initialState domainwf.State, strictCB bool, g Guards) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	// EN_ATTENTE: budget controller review
	enAttente := builder.Configure(domainwf.StateEnAttente).
		Permit(domainwf.TriggerRejeterCB, domainwf.StateRejeteCB, domainwf.RoleControleurBudgetaire).
		PermitReentry(domainwf.TriggerValiderTypeOperation, domainwf.RoleControleurBudgetaire)
	if strictCB {
		enAttente.PermitIf(domainwf.TriggerValiderCB, domainwf.StateValideCB, domainwf.RoleControleurBudgetaire, g.OperationTypeValidated)
	} else {
		enAttente.Permit(domainwf.TriggerValiderCB, domainwf.StateValideCB, domainwf.RoleControleurBudgetaire)
	}

	// VALIDÉ_CB: ordonnateur checks then orders the expenditure
	builder.Configure(domainwf.StateValideCB).
		PermitReentry(domainwf.TriggerSoumettreVerifications, domainwf.RoleOrdonnateur).
		Permit(domainwf.TriggerOrdonnancer, domainwf.StateValideOrdonnateur, domainwf.RoleOrdonnateur)

	// VALIDÉ_ORDONNATEUR: agent comptable verification
	builder.Configure(domainwf.StateValideOrdonnateur).
		PermitReentry(domainwf.TriggerSoumettreVerifications, domainwf.RoleAgentComptable).
		PermitReentry(domainwf.TriggerRapportVerification, domainwf.RoleAgentComptable).
		PermitIf(domainwf.TriggerValiderDefinitivement, domainwf.StateValideDefinitivement, domainwf.RoleAgentComptable, g.VerificationsConsistent)

	// VALIDÉ_DÉFINITIVEMENT: quitus and closure
	builder.Configure(domainwf.StateValideDefinitivement).
		PermitReentry(domainwf.TriggerGenererQuitus, domainwf.RoleAgentComptable).
		Permit(domainwf.TriggerCloturer, domainwf.StateTermine, domainwf.RoleAgentComptable)

	// REJETÉ_CB and TERMINÉ are terminal states - no outgoing transitions

	return builder.Build(initialState)
}
