package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/ustory/internal/client/client"
	"github.com/dmitrijs2005/ustory/internal/client/models"
	"github.com/dmitrijs2005/ustory/internal/common"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate against the API and persist the session locally.
//   - Register: create a new account.
//   - Logout: forget the local session. Queued stories are kept.
//   - Whoami: the stored session, or common.ErrNoToken.
//   - Ping: check API liveness.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Register(ctx context.Context, name, email, password string) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) (*models.Session, error)
	Ping(ctx context.Context) error
}

type authService struct {
	client   client.Client
	sessions *Sessions
}

func NewAuthService(client client.Client, sessions *Sessions) AuthService {
	return &authService{client: client, sessions: sessions}
}

func (a *authService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	if email == "" || password == "" {
		return nil, &common.ValidationError{Reason: "email and password are required"}
	}
	sess, err := a.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := a.sessions.Save(ctx, *sess); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return sess, nil
}

func (a *authService) Register(ctx context.Context, name, email, password string) error {
	switch {
	case name == "":
		return &common.ValidationError{Field: "name", Reason: "is required"}
	case email == "":
		return &common.ValidationError{Field: "email", Reason: "is required"}
	case len(password) < 8:
		return &common.ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}
	return a.client.Register(ctx, name, email, password)
}

func (a *authService) Logout(ctx context.Context) error {
	return a.sessions.Clear(ctx)
}

func (a *authService) Whoami(ctx context.Context) (*models.Session, error) {
	return a.sessions.Current(ctx)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
