package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fmtdata/datafill/internal/core/domain"
)

// SessionTTL is the fixed lifetime of a session token. Expiry is the only way
// a session ends; rotating the secret invalidates every outstanding token.
const SessionTTL = 24 * time.Hour

type sessionClaims struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// SessionService issues and verifies HS256 session tokens with a shared secret.
type SessionService struct {
	secret []byte
	now    func() time.Time
}

func NewSessionService(secret string) *SessionService {
	return &SessionService{secret: []byte(secret), now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

func (s *SessionService) Issue(session domain.UserSession) (string, error) {
	if session.ID == "" {
		return "", fmt.Errorf("issue session: %w", domain.ErrInvalidCredential)
	}

	now := s.now()
	claims := sessionClaims{
		ID:      session.ID,
		Email:   session.Email,
		Name:    session.Name,
		Picture: session.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

func (s *SessionService) Verify(token string) (*domain.UserSession, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", domain.ErrInvalidToken)
		}
		return nil, domain.ErrInvalidToken
	}
	if !parsed.Valid || claims.ID == "" {
		return nil, domain.ErrInvalidToken
	}

	return &domain.UserSession{
		ID:      claims.ID,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}
