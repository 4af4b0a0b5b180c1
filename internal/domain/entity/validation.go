package entity

import "time"

// OperationValidation records the CB's type-of-operation check for a dossier
type OperationValidation struct {
	ID                string           `json:"id"`
	DossierID         string           `json:"dossier_id"`
	TypeOperationID   string           `json:"type_operation_id"`
	NatureOperationID string           `json:"nature_operation_id"`
	Commentaire       string           `json:"commentaire,omitempty"`
	ValidatedBy       string           `json:"validated_by"`
	Pieces            []PieceSelection `json:"pieces"`
	CreatedAt         time.Time        `json:"created_at"`
}

// PieceSelection marks presence of one piece justificative
type PieceSelection struct {
	PieceID     string `json:"piece_id"`
	Present     bool   `json:"present"`
	Commentaire string `json:"commentaire,omitempty"`
}

// VerificationAnswer is the answer to one checklist item
type VerificationAnswer struct {
	DossierID                   string    `json:"dossier_id"`
	VerificationID              string    `json:"verification_id"`
	Valide                      bool      `json:"valide"`
	Commentaire                 string    `json:"commentaire,omitempty"`
	PieceJustificativeReference string    `json:"piece_justificative_reference,omitempty"`
	AnsweredBy                  string    `json:"answered_by"`
	AnsweredRole                string    `json:"answered_role"`
	UpdatedAt                   time.Time `json:"updated_at"`
}

// VerificationReport aggregates checklist answers for the agent comptable
type VerificationReport struct {
	DossierID           string                   `json:"dossier_id"`
	OperationValidation *OperationValidation     `json:"operation_validation,omitempty"`
	Total               int                      `json:"total"`
	Validated           int                      `json:"validated"`
	Rejected            int                      `json:"rejected"`
	Pending             int                      `json:"pending"`
	MandatoryRejected   int                      `json:"mandatory_rejected"`
	MandatoryPending    int                      `json:"mandatory_pending"`
	HasInconsistency    bool                     `json:"has_inconsistency"`
	Lines               []VerificationReportLine `json:"lines"`
}

// VerificationReportLine is one item of the report with its answer, if any
type VerificationReportLine struct {
	Item   VerificationItem    `json:"item"`
	Answer *VerificationAnswer `json:"answer,omitempty"`
}

// BuildVerificationReport computes counts over the checklist. An item without
// an answer is pending. The report is inconsistent when a mandatory item is
// rejected or pending.
func BuildVerificationReport(dossierID string, items []VerificationItem, answers []VerificationAnswer) *VerificationReport {
	byItem := make(map[string]VerificationAnswer, len(answers))
	for _, a := range answers {
		byItem[a.VerificationID] = a
	}

	r := &VerificationReport{
		DossierID: dossierID,
		Total:     len(items),
		Lines:     make([]VerificationReportLine, 0, len(items)),
	}
	for _, item := range items {
		line := VerificationReportLine{Item: item}
		a, ok := byItem[item.ID]
		switch {
		case !ok:
			r.Pending++
			if item.Obligatoire {
				r.MandatoryPending++
			}
		case a.Valide:
			r.Validated++
		default:
			r.Rejected++
			if item.Obligatoire {
				r.MandatoryRejected++
			}
		}
		if ok {
			a := a
			line.Answer = &a
		}
		r.Lines = append(r.Lines, line)
	}
	r.HasInconsistency = r.MandatoryRejected > 0 || r.MandatoryPending > 0

	return r
}
