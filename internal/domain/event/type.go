package event

// Type identifies the type of domain event
type Type string

const (
	TypeDossierCreated               Type = "dossier.created"
	TypeDossierValidatedCB           Type = "dossier.validated_cb"
	TypeDossierRejectedCB            Type = "dossier.rejected_cb"
	TypeOperationTypeValidated       Type = "dossier.operation_type_validated"
	TypeVerificationsSubmitted       Type = "dossier.verifications_submitted"
	TypeDossierOrdonnanced           Type = "dossier.ordonnanced"
	TypeDossierValidatedDefinitively Type = "dossier.validated_definitively"
	TypeQuitusGenerated              Type = "dossier.quitus_generated"
	TypeDossierClosed                Type = "dossier.closed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeDossierCreated,
		TypeDossierValidatedCB,
		TypeDossierRejectedCB,
		TypeOperationTypeValidated,
		TypeVerificationsSubmitted,
		TypeDossierOrdonnanced,
		TypeDossierValidatedDefinitively,
		TypeQuitusGenerated,
		TypeDossierClosed:
		return true
	default:
		return false
	}
}
