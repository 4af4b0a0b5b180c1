package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ac-tresor/dossiers/internal/domain/entity"
	"github.com/ac-tresor/dossiers/internal/domain/errs"
	domainwf "github.com/ac-tresor/dossiers/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (fakeHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(userID string, role string) (string, time.Time, error) {
	return "token-" + userID, time.Now().Add(time.Hour), nil
}

func (fakeTokens) Validate(token string) (string, error) {
	if len(token) <= len("token-") || token[:len("token-")] != "token-" {
		return "", errors.New("malformed token")
	}
	return token[len("token-"):], nil
}

func newAuthFixture(t *testing.T) (AuthService, *mockUserRepo, *entity.User) {
	t.Helper()
	users := newMockUserRepo()
	svc := NewAuthService(users, fakeHasher{}, fakeTokens{}, nil)

	u, err := svc.CreateUser(context.Background(), CreateUserInput{
		Email:    "  CB@Tresor.test ",
		FullName: "Contrôleur Budgétaire",
		Role:     "CONTROLEUR_BUDGETAIRE",
		Password: "motdepasse",
	})
	require.NoError(t, err)
	return svc, users, u
}

func TestAuthService_CreateUser(t *testing.T) {
	svc, _, u := newAuthFixture(t)
	assert.Equal(t, "cb@tresor.test", u.Email)
	assert.Equal(t, "hashed:motdepasse", u.PasswordHash)

	tests := []struct {
		name    string
		input   CreateUserInput
		wantErr error
	}{
		{"duplicate email", CreateUserInput{Email: "cb@tresor.test", FullName: "X", Role: "ORDONNATEUR", Password: "motdepasse"}, errs.ErrConflict},
		{"bad email", CreateUserInput{Email: "nope", FullName: "X", Role: "ORDONNATEUR", Password: "motdepasse"}, errs.ErrValidation},
		{"bad role", CreateUserInput{Email: "x@tresor.test", FullName: "X", Role: "ADMIN", Password: "motdepasse"}, errs.ErrValidation},
		{"short password", CreateUserInput{Email: "x@tresor.test", FullName: "X", Role: "ORDONNATEUR", Password: "court"}, errs.ErrValidation},
		{"missing name", CreateUserInput{Email: "x@tresor.test", Role: "ORDONNATEUR", Password: "motdepasse"}, errs.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthService_LoginAndAuthenticate(t *testing.T) {
	svc, users, u := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "cb@tresor.test", "mauvais")
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)

	_, err = svc.Login(ctx, "inconnu@tresor.test", "motdepasse")
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)

	res, err := svc.Login(ctx, "CB@tresor.test", "motdepasse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)

	p, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, entity.Principal{UserID: u.ID, FullName: u.FullName, Role: domainwf.RoleControleurBudgetaire}, p)

	// the role is read from the store, not from the token
	users.users[u.ID].Role = domainwf.RoleOrdonnateur
	p, err = svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, domainwf.RoleOrdonnateur, p.Role)

	users.users[u.ID].Active = false
	_, err = svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)

	_, err = svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
}

func TestAuthService_ChangePassword(t *testing.T) {
	svc, _, u := newAuthFixture(t)
	ctx := context.Background()
	p := entity.Principal{UserID: u.ID, Role: u.Role}

	assert.ErrorIs(t, svc.ChangePassword(ctx, p, "mauvais", "nouveaumotdepasse"), errs.ErrValidation)
	assert.ErrorIs(t, svc.ChangePassword(ctx, p, "motdepasse", "court"), errs.ErrValidation)
	require.NoError(t, svc.ChangePassword(ctx, p, "motdepasse", "nouveaumotdepasse"))

	_, err := svc.Login(ctx, "cb@tresor.test", "nouveaumotdepasse")
	assert.NoError(t, err)
}
