package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ustory/internal/client/models"
	"github.com/dmitrijs2005/ustory/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

const (
	metaToken  = "token"
	metaName   = "name"
	metaUserID = "user_id"
)

// Sessions keeps the signed-in user in the metadata collection and serves
// the bearer token to the API client and the sync engine.
type Sessions struct {
	store MetaStore
	now   func() time.Time
}

func NewSessions(store MetaStore) *Sessions {
	return &Sessions{store: store, now: time.Now}
}

func (s *Sessions) Save(ctx context.Context, sess models.Session) error {
	return s.store.SetMeta(ctx, map[string][]byte{
		metaToken:  []byte(sess.Token),
		metaName:   []byte(sess.Name),
		metaUserID: []byte(sess.UserID),
	})
}

func (s *Sessions) Clear(ctx context.Context) error {
	return s.store.DeleteMeta(ctx, metaToken, metaName, metaUserID)
}

// Current returns the stored session or common.ErrNoToken.
func (s *Sessions) Current(ctx context.Context) (*models.Session, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	name, _, err := s.store.GetMeta(ctx, metaName)
	if err != nil {
		return nil, err
	}
	userID, _, err := s.store.GetMeta(ctx, metaUserID)
	if err != nil {
		return nil, err
	}
	return &models.Session{Token: token, Name: string(name), UserID: string(userID)}, nil
}

// Token returns the stored bearer token. An absent token, or a JWT whose exp
// claim has passed, yields common.ErrNoToken. Tokens that are not JWTs are
// returned as-is.
func (s *Sessions) Token(ctx context.Context) (string, error) {
	raw, found, err := s.store.GetMeta(ctx, metaToken)
	if err != nil {
		return "", err
	}
	if !found || len(raw) == 0 {
		return "", common.ErrNoToken
	}
	token := string(raw)

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return token, nil
	}
	exp, err := claims.GetExpirationTime()
	if err == nil && exp != nil && !exp.After(s.now()) {
		return "", fmt.Errorf("%w: session expired at %s", common.ErrNoToken, exp.Format(time.RFC3339))
	}
	return token, nil
}
