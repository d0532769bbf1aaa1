package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/m-mizutani/goerr/v2"

	"github.com/Makepad-fr/portal/internal/logging"
	"github.com/Makepad-fr/portal/internal/model"
)

type sessionClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"userId"`
	LegacyID string `json:"id"`
	MongoID  string `json:"_id"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// SessionFromToken reads the session claims of a JWT. The signature is not
// verified; the backend does that on every call.
func SessionFromToken(token string) (*model.Session, *time.Time, error) {
	var c sessionClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return nil, nil, goerr.Wrap(ErrMalformedJWT, err.Error())
	}

	s := &model.Session{
		UserID: firstNonEmpty(c.UserID, c.Subject, c.LegacyID, c.MongoID),
		Role:   model.Role(c.Role),
		Email:  c.Email,
		Name:   c.Name,
	}
	var expires *time.Time
	if c.ExpiresAt != nil {
		t := c.ExpiresAt.Time
		expires = &t
	}
	return s, expires, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Provider is the authentication collaborator as seen by the dashboard.
type Provider interface {
	State(ctx context.Context) model.AuthState
}

// TokenProvider derives the auth state from the stored token.
type TokenProvider struct {
	store *Store
	now   func() time.Time
}

func NewTokenProvider(store *Store) *TokenProvider {
	return &TokenProvider{store: store, now: time.Now}
}

func (p *TokenProvider) State(ctx context.Context) model.AuthState {
	ti, err := p.store.Get()
	if err != nil {
		logging.From(ctx).Warn("failed to read token", "error", err.Error())
		return model.AuthState{}
	}
	if ti == nil {
		return model.AuthState{}
	}
	s, expires, err := SessionFromToken(ti.Token)
	if err != nil {
		logging.From(ctx).Warn("failed to read session from token", "error", err.Error())
		return model.AuthState{}
	}
	if expires != nil && p.now().After(*expires) {
		logging.From(ctx).Info("session token expired", "expired_at", expires.String())
		return model.AuthState{}
	}
	return model.AuthState{Session: s}
}

// Token returns the raw token to authenticate backend calls.
func (p *TokenProvider) Token() (string, error) {
	ti, err := p.store.Get()
	if err != nil {
		return "", err
	}
	if ti == nil || ti.Token == "" {
		return "", ErrNotLoggedIn
	}
	return ti.Token, nil
}
