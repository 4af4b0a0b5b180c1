package workflow

// Trigger represents an action requested on a dossier
type Trigger string

const (
	TriggerValiderCB              Trigger = "VALIDER_CB"
	TriggerRejeterCB              Trigger = "REJETER_CB"
	TriggerValiderTypeOperation   Trigger = "VALIDER_TYPE_OPERATION"
	TriggerSoumettreVerifications Trigger = "SOUMETTRE_VERIFICATIONS"
	TriggerOrdonnancer            Trigger = "ORDONNANCER"
	TriggerRapportVerification    Trigger = "RAPPORT_VERIFICATION"
	TriggerValiderDefinitivement  Trigger = "VALIDER_DEFINITIVEMENT"
	TriggerGenererQuitus          Trigger = "GENERER_QUITUS"
	TriggerCloturer               Trigger = "CLOTURER"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
