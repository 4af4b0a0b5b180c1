package quitus

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ac-tresor/dossiers/internal/application/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func sampleData() port.QuitusData {
	day := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return port.QuitusData{
		NumeroQuitus:   "Q-ACT-2026-00001",
		NumeroDossier:  "ACT-2026-00001",
		Beneficiaire:   "Papeterie du Centre",
		ObjetOperation: "Achat de fournitures",
		PosteComptable: "PC-01",
		NatureDocument: "Facture",
		DateDepot:      day,
		ValidatedAt:    day.AddDate(0, 0, 5),
		AgentComptable: "A. Comptable",
		IssuedAt:       day.AddDate(0, 0, 6),
	}
}

func TestExcelRenderer_RenderWithoutTemplate(t *testing.T) {
	r, err := NewExcelRenderer("", "Agence Comptable Centrale", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", r.Extension())

	content, err := r.Render(context.Background(), sampleData())
	require.NoError(t, err)
	require.NotEmpty(t, content)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	get := func(cell string) string {
		v, err := f.GetCellValue(defaultSheet, cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Agence Comptable Centrale", get(cellInstitution))
	assert.Equal(t, "Q-ACT-2026-00001", get(cellNumeroQuitus))
	assert.Equal(t, "ACT-2026-00001", get(cellNumeroDossier))
	assert.Equal(t, "Papeterie du Centre", get(cellBeneficiaire))
	assert.Equal(t, "14/03/2026", get(cellDateDepot))
	assert.Equal(t, "19/03/2026", get(cellValidatedAt))
	assert.Equal(t, "N° dossier", get("B7"))
}

func TestExcelRenderer_RenderWithTemplate(t *testing.T) {
	templatePath := filepath.Join(t.TempDir(), "template.xlsx")
	tpl := excelize.NewFile()
	require.NoError(t, tpl.SetCellValue("Sheet1", "A1", "En-tête officiel"))
	require.NoError(t, tpl.SaveAs(templatePath))
	require.NoError(t, tpl.Close())

	r, err := NewExcelRenderer(templatePath, "ACC", zap.NewNop())
	require.NoError(t, err)

	content, err := r.Render(context.Background(), sampleData())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	header, _ := f.GetCellValue("Sheet1", "A1")
	assert.Equal(t, "En-tête officiel", header)
	numero, _ := f.GetCellValue("Sheet1", cellNumeroDossier)
	assert.Equal(t, "ACT-2026-00001", numero)
}

func TestNewExcelRenderer_MissingTemplate(t *testing.T) {
	_, err := NewExcelRenderer(filepath.Join(t.TempDir(), "missing.xlsx"), "ACC", zap.NewNop())
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}
