package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/ac-tresor/dossiers/internal/application/port"
	"github.com/ac-tresor/dossiers/internal/domain/entity"
	"github.com/ac-tresor/dossiers/internal/domain/errs"
	domainwf "github.com/ac-tresor/dossiers/internal/domain/workflow"
	"github.com/google/uuid"
)

const minPasswordLength = 8

// LoginResult is returned by a successful login
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *entity.User `json:"user"`
}

// CreateUserInput describes a new account
type CreateUserInput struct {
	Email    string
	FullName string
	Role     string
	Password string
}

// AuthService authenticates users and resolves the principal of a request
type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)

	// Authenticate validates a bearer token and re-reads the user so that the
	// role always comes from the database
	Authenticate(ctx context.Context, token string) (entity.Principal, error)

	Me(ctx context.Context, p entity.Principal) (*entity.User, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*entity.User, error)
	ChangePassword(ctx context.Context, p entity.Principal, current, next string) error
}

type authServiceImpl struct {
	userRepo port.UserRepository
	hasher   port.PasswordHasher
	tokens   port.TokenIssuer
	logger   Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo port.UserRepository, hasher port.PasswordHasher, tokens port.TokenIssuer, logger Logger) AuthService {
	return &authServiceImpl{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		logger:   orNop(logger),
	}
}

func invalidCredentials() error {
	return fmt.Errorf("%w: invalid email or password", errs.ErrUnauthenticated)
}

func (s *authServiceImpl) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errs.Validation("email and password are required")
	}

	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, errs.Persistence("load user", err)
	}
	if u == nil || !u.Active {
		s.logger.Info("Login rejected", "email", email, "reason", "unknown or inactive")
		return nil, invalidCredentials()
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		s.logger.Info("Login rejected", "email", email, "reason", "password mismatch")
		return nil, invalidCredentials()
	}

	token, expiresAt, err := s.tokens.Issue(u.ID, u.Role.String())
	if err != nil {
		s.logger.Error("Failed to issue token", "error", err, "user_id", u.ID)
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("User logged in", "user_id", u.ID, "role", u.Role)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

func (s *authServiceImpl) Authenticate(ctx context.Context, token string) (entity.Principal, error) {
	if strings.TrimSpace(token) == "" {
		return entity.Principal{}, fmt.Errorf("%w: missing bearer token", errs.ErrUnauthenticated)
	}

	userID, err := s.tokens.Validate(token)
	if err != nil {
		return entity.Principal{}, fmt.Errorf("%w: %v", errs.ErrUnauthenticated, err)
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return entity.Principal{}, errs.Persistence("load user", err)
	}
	if u == nil || !u.Active || !u.Role.IsValid() {
		return entity.Principal{}, fmt.Errorf("%w: account is disabled", errs.ErrUnauthenticated)
	}

	return entity.Principal{UserID: u.ID, FullName: u.FullName, Role: u.Role}, nil
}

func (s *authServiceImpl) Me(ctx context.Context, p entity.Principal) (*entity.User, error) {
	u, err := s.userRepo.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, errs.Persistence("load user", err)
	}
	if u == nil {
		return nil, errs.NotFound("user %s", p.UserID)
	}
	return u, nil
}

func (s *authServiceImpl) CreateUser(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, errs.Validation("invalid email %q", in.Email)
	}
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return nil, errs.Validation("full name is required")
	}
	role, err := domainwf.ParseRole(strings.TrimSpace(in.Role))
	if err != nil {
		return nil, errs.Validation("%v", err)
	}
	if len(in.Password) < minPasswordLength {
		return nil, errs.Validation("password must be at least %d characters", minPasswordLength)
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, errs.Persistence("load user", err)
	}
	if existing != nil {
		return nil, errs.Conflict("a user with email %s already exists", email)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &entity.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		Role:         role,
		PasswordHash: hash,
		Active:       true,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, errs.Persistence("create user", err)
	}

	s.logger.Info("User created", "user_id", u.ID, "role", u.Role)
	return u, nil
}

func (s *authServiceImpl) ChangePassword(ctx context.Context, p entity.Principal, current, next string) error {
	if len(next) < minPasswordLength {
		return errs.Validation("password must be at least %d characters", minPasswordLength)
	}

	u, err := s.Me(ctx, p)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(u.PasswordHash, current); err != nil {
		return errs.Validation("current password is incorrect")
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, u.ID, hash); err != nil {
		return errs.Persistence("update password", err)
	}

	s.logger.Info("Password changed", "user_id", u.ID)
	return nil
}
