package entity

import "time"

// DossierHistory is one row of a dossier's audit trail
type DossierHistory struct {
	ID             int64     `json:"id"`
	DossierID      string    `json:"dossier_id"`
	ActorID        string    `json:"actor_id"`
	ActorRole      string    `json:"actor_role"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	ActionType     string    `json:"action_type"`
	Comment        string    `json:"comment,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
