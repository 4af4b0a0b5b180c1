package errs

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsWrapKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"validation", Validation("reason is required"), ErrValidation},
		{"authorization", Authorization("role %s", "SECRETAIRE"), ErrAuthorization},
		{"conflict", Conflict("dossier %s changed", "d-1"), ErrConflict},
		{"not found", NotFound("dossier %s", "d-1"), ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)
			assert.True(t, Is(tt.err))
		})
	}
}

func TestValidationMessage(t *testing.T) {
	err := Validation("piece %s is mandatory", "p1")
	assert.Equal(t, "validation error: piece p1 is mandatory", err.Error())
}

func TestPersistence(t *testing.T) {
	assert.Nil(t, Persistence("get dossier", nil))

	cause := errors.New("disk I/O error")
	err := Persistence("get dossier", cause)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "get dossier")

	// already classified errors pass through
	nf := NotFound("dossier")
	assert.Equal(t, nf, Persistence("get dossier", nf))

	wrapped := fmt.Errorf("scan: %w", sql.ErrConnDone)
	assert.ErrorIs(t, Persistence("scan", wrapped), sql.ErrConnDone)
}

func TestIs_UnclassifiedError(t *testing.T) {
	assert.False(t, Is(errors.New("boom")))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 200},
		{Validation("x"), 400},
		{fmt.Errorf("%w: no token", ErrUnauthenticated), 401},
		{Authorization("x"), 403},
		{NotFound("x"), 404},
		{Conflict("x"), 409},
		{Persistence("insert", errors.New("disk full")), 500},
		{errors.New("boom"), 500},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), "%v", tt.err)
	}
}
