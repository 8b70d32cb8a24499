// Package services contains application services for the GophAuth client.
// This file defines the authentication service: register, login, identity
// refresh, logout, and the locally persisted session user.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
)

const (
	sessionUserKey    = "session_user"
	sessionSavedAtKey = "session_saved_at"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register: create a new user on the server; no session is started.
//   - Login: authenticate against the server and persist the session user.
//   - Me: re-read the session user from the server and persist it.
//   - Logout: forget credentials and drop the persisted session user.
//   - Restore: load the persisted session user, nil when there is none.
//   - Ping: check server liveness.
//   - Close: release underlying client resources.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Me(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context) error
	Restore(ctx context.Context) (*models.User, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// authService is the concrete AuthService backed by a remote Client
// and the local sqlite database.
type authService struct {
	client client.Client
	db     *sql.DB
	now    func() time.Time
}

// NewAuthService constructs an AuthService bound to the given API client and DB.
func NewAuthService(client client.Client, db *sql.DB) AuthService {
	return &authService{client: client, db: db, now: time.Now}
}

func (a *authService) Register(ctx context.Context, email, password string) (*models.User, error) {
	u, err := a.client.Register(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("register error: %w", err)
	}
	return u, nil
}

func (a *authService) Login(ctx context.Context, email, password string) (*models.User, error) {
	u, err := a.client.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	if err := a.saveSession(ctx, u); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return u, nil
}

func (a *authService) Me(ctx context.Context) (*models.User, error) {
	u, err := a.client.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("session check error: %w", err)
	}

	if err := a.saveSession(ctx, u); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return u, nil
}

// Logout is local only: the server keeps no session to end.
func (a *authService) Logout(ctx context.Context) error {
	a.client.Forget()

	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Delete(ctx, sessionUserKey); err != nil {
			return err
		}
		return repo.Delete(ctx, sessionSavedAtKey)
	})
}

func (a *authService) Restore(ctx context.Context) (*models.User, error) {
	u, err := metadata.GetJSON[models.User](ctx, metadata.NewSQLiteRepository(a.db), sessionUserKey)
	if err != nil {
		return nil, fmt.Errorf("session restore error: %w", err)
	}
	return u, nil
}

// saveSession writes the user and the save time in one transaction.
func (a *authService) saveSession(ctx context.Context, u *models.User) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := metadata.SetJSON(ctx, repo, sessionUserKey, u); err != nil {
			return err
		}
		return repo.Set(ctx, sessionSavedAtKey, []byte(a.now().UTC().Format(time.RFC3339)))
	})
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
