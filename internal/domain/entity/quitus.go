package entity

import "time"

// Quitus is the clearance document issued after definitive validation
type Quitus struct {
	ID           string    `json:"id"`
	DossierID    string    `json:"dossier_id"`
	NumeroQuitus string    `json:"numero_quitus"`
	FilePath     string    `json:"-"`
	FileName     string    `json:"file_name"`
	GeneratedBy  string    `json:"generated_by"`
	CreatedAt    time.Time `json:"created_at"`
}
