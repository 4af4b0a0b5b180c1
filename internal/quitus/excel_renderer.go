package quitus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ac-tresor/dossiers/internal/application/port"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	defaultSheet = "Quitus"
	dateLayout   = "02/01/2006"
)

// Cell addresses of the quitus layout, shared by the template and the generated sheet
const (
	cellInstitution    = "B2"
	cellTitle          = "B4"
	cellNumeroQuitus   = "C6"
	cellNumeroDossier  = "C7"
	cellBeneficiaire   = "C8"
	cellObjet          = "C9"
	cellPosteComptable = "C10"
	cellNature         = "C11"
	cellDateDepot      = "C12"
	cellValidatedAt    = "C13"
	cellAgent          = "C15"
	cellIssuedAt       = "C16"
)

// ExcelRenderer writes quitus workbooks with excelize
type ExcelRenderer struct {
	templatePath string
	institution  string
	logger       *zap.Logger
}

// NewExcelRenderer creates a renderer. An empty templatePath builds the sheet from scratch.
func NewExcelRenderer(templatePath, institution string, logger *zap.Logger) (*ExcelRenderer, error) {
	if templatePath != "" {
		if _, err := os.Stat(templatePath); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templatePath)
		}
	}
	return &ExcelRenderer{
		templatePath: templatePath,
		institution:  institution,
		logger:       logger,
	}, nil
}

// Extension implements port.QuitusRenderer
func (r *ExcelRenderer) Extension() string {
	return ".xlsx"
}

// Render implements port.QuitusRenderer
func (r *ExcelRenderer) Render(ctx context.Context, data port.QuitusData) ([]byte, error) {
	r.logger.Info("Rendering quitus",
		zap.String("numero_quitus", data.NumeroQuitus),
		zap.String("numero_dossier", data.NumeroDossier))

	f, sheet, err := r.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r.setCell(f, sheet, cellInstitution, r.institution)
	r.setCell(f, sheet, cellTitle, "QUITUS")
	r.setCell(f, sheet, cellNumeroQuitus, data.NumeroQuitus)
	r.setCell(f, sheet, cellNumeroDossier, data.NumeroDossier)
	r.setCell(f, sheet, cellBeneficiaire, data.Beneficiaire)
	r.setCell(f, sheet, cellObjet, data.ObjetOperation)
	r.setCell(f, sheet, cellPosteComptable, data.PosteComptable)
	r.setCell(f, sheet, cellNature, data.NatureDocument)
	r.setCell(f, sheet, cellDateDepot, data.DateDepot.Format(dateLayout))
	r.setCell(f, sheet, cellValidatedAt, data.ValidatedAt.Format(dateLayout))
	r.setCell(f, sheet, cellAgent, data.AgentComptable)
	r.setCell(f, sheet, cellIssuedAt, data.IssuedAt.Format(dateLayout))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write quitus workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *ExcelRenderer) open() (*excelize.File, string, error) {
	if r.templatePath != "" {
		f, err := excelize.OpenFile(r.templatePath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open template: %w", err)
		}
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			_ = f.Close()
			return nil, "", ErrInvalidTemplate
		}
		return f, sheets[0], nil
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", defaultSheet); err != nil {
		_ = f.Close()
		return nil, "", fmt.Errorf("failed to name sheet: %w", err)
	}
	r.writeLabels(f, defaultSheet)
	return f, defaultSheet, nil
}

func (r *ExcelRenderer) writeLabels(f *excelize.File, sheet string) {
	labels := map[string]string{
		"B6":  "N° quitus",
		"B7":  "N° dossier",
		"B8":  "Bénéficiaire",
		"B9":  "Objet de l'opération",
		"B10": "Poste comptable",
		"B11": "Nature du document",
		"B12": "Date de dépôt",
		"B13": "Validé définitivement le",
		"B15": "L'Agent comptable",
		"B16": "Délivré le",
	}
	for cell, label := range labels {
		r.setCell(f, sheet, cell, label)
	}
	_ = f.SetColWidth(sheet, "B", "B", 28)
	_ = f.SetColWidth(sheet, "C", "C", 48)

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}); err == nil {
		_ = f.SetCellStyle(sheet, cellTitle, cellTitle, style)
	}
}

func (r *ExcelRenderer) setCell(f *excelize.File, sheet, cell string, value interface{}) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		r.logger.Warn("Failed to set cell", zap.String("cell", cell), zap.Error(err))
	}
}

var _ port.QuitusRenderer = (*ExcelRenderer)(nil)
