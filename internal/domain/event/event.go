package event

import (
	"time"

	"github.com/google/uuid"
)

// Event records a dossier lifecycle change. Fields are closed per event kind:
// Reason is set only on rejection, Comment only when the actor supplied one.
type Event struct {
	ID            string    `json:"id"`
	Type          Type      `json:"type"`
	DossierID     string    `json:"dossier_id"`
	NumeroDossier string    `json:"numero_dossier"`
	SecretaireID  string    `json:"secretaire_id"`
	FromState     string    `json:"from_state,omitempty"`
	ToState       string    `json:"to_state,omitempty"`
	ActorID       string    `json:"actor_id"`
	Reason        string    `json:"reason,omitempty"`
	Comment       string    `json:"comment,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id"`
}

// Subject identifies the dossier an event is about
type Subject struct {
	DossierID     string
	NumeroDossier string
	SecretaireID  string
}

// NewEvent creates a new event with generated ID and timestamp
func NewEvent(eventType Type, subject Subject, actorID string) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		DossierID:     subject.DossierID,
		NumeroDossier: subject.NumeroDossier,
		SecretaireID:  subject.SecretaireID,
		ActorID:       actorID,
		Timestamp:     time.Now(),
		CorrelationID: uuid.NewString(),
	}
}

// WithTransition returns a copy carrying the state change
func (e *Event) WithTransition(from, to string) *Event {
	cp := *e
	cp.FromState = from
	cp.ToState = to
	return &cp
}

// WithReason returns a copy carrying a rejection reason
func (e *Event) WithReason(reason string) *Event {
	cp := *e
	cp.Reason = reason
	return &cp
}

// WithComment returns a copy carrying the actor's comment
func (e *Event) WithComment(comment string) *Event {
	cp := *e
	cp.Comment = comment
	return &cp
}
