package entity

import "time"

// NotificationKind identifies why a notification was emitted
type NotificationKind string

const (
	NotificationDossierSubmitted    NotificationKind = "DOSSIER_SUBMITTED"
	NotificationDossierValidatedCB  NotificationKind = "DOSSIER_VALIDATED_CB"
	NotificationDossierRejectedCB   NotificationKind = "DOSSIER_REJECTED_CB"
	NotificationDossierPending      NotificationKind = "DOSSIER_PENDING"
	NotificationDossierOrdonnanced  NotificationKind = "DOSSIER_ORDONNANCED"
	NotificationDossierValidatedDef NotificationKind = "DOSSIER_VALIDATED_DEFINITIVELY"
	NotificationDossierComptabilise NotificationKind = "DOSSIER_COMPTABILISE"
)

// Notification is a message persisted for one recipient.
// Metadata is limited to the dossier reference and the optional rejection reason.
type Notification struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	Kind            NotificationKind `json:"kind"`
	Title           string           `json:"title"`
	Message         string           `json:"message"`
	DossierID       string           `json:"dossier_id"`
	NumeroDossier   string           `json:"numero_dossier"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	Read            bool             `json:"read"`
	ReadAt          *time.Time       `json:"read_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}
