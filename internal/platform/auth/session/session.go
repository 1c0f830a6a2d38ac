// Package session issues and verifies the HS256 session tokens carried in the
// auth_token cookie or an Authorization: Bearer header.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/ports/out/clock"
)

// CookieName is the cookie the API sets on login.
const CookieName = "auth_token"

var ErrUnauthorized = errors.New("unauthorized")

type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Token is an issued session token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

type Manager struct {
	cfg   Config
	clock clock.Clock
}

func NewManager(cfg Config, clk clock.Clock) *Manager {
	return &Manager{cfg: cfg, clock: clk}
}

// Issue mints a token whose subject is the member id.
func (m *Manager) Issue(memberID domain.MemberID) (Token, error) {
	if memberID == "" {
		return Token{}, errors.New("empty member id")
	}
	now := m.clock.Now()
	exp := now.Add(m.cfg.TTL)
	claims := jwt.RegisteredClaims{
		Issuer:    m.cfg.Issuer,
		Subject:   string(memberID),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return Token{}, fmt.Errorf("sign session token: %w", err)
	}
	return Token{Value: signed, ExpiresAt: exp}, nil
}

// Verify validates signature, issuer and lifetime and returns the member id.
// Every failure is reported as ErrUnauthorized.
func (m *Manager) Verify(ctx context.Context, token string) (domain.MemberID, error) {
	_ = ctx
	if token == "" {
		return "", ErrUnauthorized
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(m.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.clock.Now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ErrUnauthorized
	}
	return domain.MemberID(claims.Subject), nil
}
