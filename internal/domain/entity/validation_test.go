package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checklist() []VerificationItem {
	return []VerificationItem{
		{ID: "v1", Libelle: "Imputation budgétaire", Obligatoire: true, Ordre: 1},
		{ID: "v2", Libelle: "Disponibilité des crédits", Obligatoire: true, Ordre: 2},
		{ID: "v3", Libelle: "Visa du chef de service", Obligatoire: false, Ordre: 3},
	}
}

func TestBuildVerificationReport_AllValid(t *testing.T) {
	answers := []VerificationAnswer{
		{VerificationID: "v1", Valide: true},
		{VerificationID: "v2", Valide: true},
	}

	r := BuildVerificationReport("d-1", checklist(), answers)

	assert.Equal(t, 3, r.Total)
	assert.Equal(t, 2, r.Validated)
	assert.Equal(t, 0, r.Rejected)
	assert.Equal(t, 1, r.Pending)
	assert.False(t, r.HasInconsistency, "optional pending item must not block")
	require.Len(t, r.Lines, 3)
	assert.Nil(t, r.Lines[2].Answer)
}

func TestBuildVerificationReport_MandatoryPending(t *testing.T) {
	answers := []VerificationAnswer{{VerificationID: "v1", Valide: true}}

	r := BuildVerificationReport("d-1", checklist(), answers)

	assert.Equal(t, 1, r.MandatoryPending)
	assert.True(t, r.HasInconsistency)
}

func TestBuildVerificationReport_MandatoryRejected(t *testing.T) {
	answers := []VerificationAnswer{
		{VerificationID: "v1", Valide: true},
		{VerificationID: "v2", Valide: false, Commentaire: "Crédits insuffisants"},
		{VerificationID: "v3", Valide: true},
	}

	r := BuildVerificationReport("d-1", checklist(), answers)

	assert.Equal(t, 1, r.Rejected)
	assert.Equal(t, 1, r.MandatoryRejected)
	assert.Equal(t, 0, r.Pending)
	assert.True(t, r.HasInconsistency)
	require.NotNil(t, r.Lines[1].Answer)
	assert.Equal(t, "Crédits insuffisants", r.Lines[1].Answer.Commentaire)
}

func TestBuildVerificationReport_IgnoresUnknownAnswers(t *testing.T) {
	answers := []VerificationAnswer{{VerificationID: "zz", Valide: false}}

	r := BuildVerificationReport("d-1", checklist(), answers)

	assert.Equal(t, 0, r.Rejected)
	assert.Equal(t, 3, r.Pending)
}
