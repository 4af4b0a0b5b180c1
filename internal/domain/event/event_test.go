package event

import (
	"testing"
	"time"
)

func TestType_String(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      string
	}{
		{"created", TypeDossierCreated, "dossier.created"},
		{"rejected", TypeDossierRejectedCB, "dossier.rejected_cb"},
		{"closed", TypeDossierClosed, "dossier.closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.String(); got != tt.want {
				t.Errorf("Type.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"ordonnanced", TypeDossierOrdonnanced, true},
		{"quitus", TypeQuitusGenerated, true},
		{"unknown", Type("dossier.paid"), false},
		{"empty", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	before := time.Now()
	subject := Subject{DossierID: "d-1", NumeroDossier: "ACT-2026-00001", SecretaireID: "u-sec"}

	e := NewEvent(TypeDossierValidatedCB, subject, "u-cb")

	if e.ID == "" || e.CorrelationID == "" {
		t.Error("NewEvent() should generate ids")
	}
	if e.ID == e.CorrelationID {
		t.Error("ID and CorrelationID should differ")
	}
	if e.DossierID != "d-1" || e.NumeroDossier != "ACT-2026-00001" || e.SecretaireID != "u-sec" {
		t.Errorf("NewEvent() subject not copied: %+v", e)
	}
	if e.ActorID != "u-cb" {
		t.Errorf("ActorID = %v, want u-cb", e.ActorID)
	}
	if e.Timestamp.Before(before) {
		t.Error("Timestamp should be set to now")
	}
}

func TestEvent_WithersDoNotMutate(t *testing.T) {
	e := NewEvent(TypeDossierRejectedCB, Subject{DossierID: "d-1"}, "u-cb")

	e2 := e.WithTransition("EN_ATTENTE", "REJETÉ_CB").WithReason("Pièce manquante").WithComment("voir annexe")

	if e.FromState != "" || e.Reason != "" || e.Comment != "" {
		t.Errorf("original event mutated: %+v", e)
	}
	if e2.FromState != "EN_ATTENTE" || e2.ToState != "REJETÉ_CB" {
		t.Errorf("transition not set: %+v", e2)
	}
	if e2.Reason != "Pièce manquante" || e2.Comment != "voir annexe" {
		t.Errorf("reason/comment not set: %+v", e2)
	}
	if e2.ID != e.ID {
		t.Error("withers should keep the event id")
	}
}
