package entity

// TypeOperation is a top-level category of accounting operation
type TypeOperation struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Libelle string `json:"libelle"`
}

// NatureOperation is scoped to one TypeOperation
type NatureOperation struct {
	ID              string `json:"id"`
	TypeOperationID string `json:"type_operation_id"`
	Code            string `json:"code"`
	Libelle         string `json:"libelle"`
}

// PieceJustificative is a supporting document required for a nature of operation
type PieceJustificative struct {
	ID                string `json:"id"`
	NatureOperationID string `json:"nature_operation_id"`
	Libelle           string `json:"libelle"`
	Obligatoire       bool   `json:"obligatoire"`
	Ordre             int    `json:"ordre"`
}

// VerificationCategory groups ordonnateur checklist items
type VerificationCategory struct {
	ID      string             `json:"id"`
	Libelle string             `json:"libelle"`
	Ordre   int                `json:"ordre"`
	Items   []VerificationItem `json:"items"`
}

// VerificationItem is one yes/no check of the ordonnateur checklist
type VerificationItem struct {
	ID          string `json:"id"`
	CategoryID  string `json:"category_id"`
	Libelle     string `json:"libelle"`
	Obligatoire bool   `json:"obligatoire"`
	Ordre       int    `json:"ordre"`
}
