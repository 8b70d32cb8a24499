// Package services contains server-side business logic. This file implements
// UserService: session identity resolution, lookup by email, registration
// with a salted password hash, and credential checks.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// UserService provides authentication-related operations:
// - ResolveCurrentUser: pass through the identity attached upstream
// - FindByEmail: look a user up by unique email
// - CreateUser: hash the password and persist a new user
// - Authenticate: check an email/password pair
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	logger      logging.Logger
}

// NewUserService constructs a UserService. db may be nil when the manager
// does not need a connection (in-memory store).
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, h auth.PasswordHasher, l logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      h,
		logger:      l.With("module", "user_service"),
	}
}

// ResolveCurrentUser returns the identity supplied by the caller unchanged.
// A nil identity yields common.ErrorUnauthenticated.
func (s *UserService) ResolveCurrentUser(identity *models.User) (*models.User, error) {
	if identity == nil {
		return nil, common.ErrorUnauthenticated
	}
	return identity, nil
}

// FindByEmail returns the user with the given email, or (nil, nil) when there
// is none.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return user, nil
}

// CreateUser stores a new user whose password is kept only as a hash.
// A duplicate email fails with an error matching common.ErrConstraintViolation.
func (s *UserService) CreateUser(ctx context.Context, email, password string) (*models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	}

	repo := s.repomanager.Users(s.db)
	created, err := repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Debug(ctx, "user created", "user_id", created.ID)
	return created, nil
}

// Authenticate returns the user when password matches the stored hash.
// Unknown emails and wrong passwords both yield common.ErrorInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.ErrorInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorInvalidCredentials
	}
	return user, nil
}
