// Package services holds the backend use cases behind the REST API. Each
// service builds its repositories from a RepositoryManager over one
// *sql.DB.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/spendwise/internal/common"
	"github.com/dmitrijs2005/spendwise/internal/cryptox"
	"github.com/dmitrijs2005/spendwise/internal/server/auth"
	"github.com/dmitrijs2005/spendwise/internal/server/config"
	"github.com/dmitrijs2005/spendwise/internal/server/models"
	"github.com/dmitrijs2005/spendwise/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// MinPasswordLength matches the hosted backend's default policy.
const MinPasswordLength = 6

type AuthResult struct {
	AccessToken string
	ExpiresIn   time.Duration
	User        models.User
}

type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email", common.ErrValidation)
	}
	return email, nil
}

// SignUp registers a user and signs them in. A taken email yields
// common.ErrAlreadyExists.
func (s *UserService) SignUp(ctx context.Context, email, password, displayName string) (*AuthResult, error) {

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password should be at least %d characters", common.ErrValidation, MinPasswordLength)
	}

	hash, err := cryptox.HashSecret([]byte(password))
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: hash,
	}

	repo := s.repomanager.Users(s.db)

	user, err = repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

// SignIn checks the password. Unknown emails and wrong passwords both
// yield common.ErrUnauthorized.
func (s *UserService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, common.ErrUnauthorized
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}

	ok, err := cryptox.VerifySecret(user.PasswordHash, []byte(password))
	if err != nil {
		return nil, fmt.Errorf("error verifying password: %w", err)
	}
	if !ok {
		return nil, common.ErrUnauthorized
	}

	return s.issue(user)
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(user.Email, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating access token: %w", err)
	}
	return &AuthResult{AccessToken: token, ExpiresIn: s.accessTokenValidityDuration, User: *user}, nil
}

// Authenticate returns the email carried by a valid access token.
func (s *UserService) Authenticate(token string) (string, error) {
	return auth.GetEmailFromToken(token, s.jwtSecret)
}
