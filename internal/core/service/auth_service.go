package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fmtdata/datafill/internal/api/metrics"
	"github.com/fmtdata/datafill/internal/core/domain"
	"github.com/fmtdata/datafill/internal/core/ports"
)

// AuthService exchanges a provider credential for a session token.
type AuthService struct {
	verifier ports.CredentialVerifier
	sessions ports.SessionIssuer
	log      zerolog.Logger
}

func NewAuthService(verifier ports.CredentialVerifier, sessions ports.SessionIssuer, log zerolog.Logger) *AuthService {
	return &AuthService{verifier: verifier, sessions: sessions, log: log}
}

// AuthURL returns the provider consent URL with a fresh random state.
func (s *AuthService) AuthURL() (string, error) {
	state, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("auth url state: %w", err)
	}
	return s.verifier.AuthURL(state.String()), nil
}

// SignIn verifies the provider credential and issues a session token.
func (s *AuthService) SignIn(ctx context.Context, credential string) (string, *domain.UserSession, error) {
	if credential == "" {
		metrics.SignInsTotal.WithLabelValues("rejected").Inc()
		return "", nil, domain.ErrInvalidCredential
	}

	identity, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		metrics.SignInsTotal.WithLabelValues("rejected").Inc()
		s.log.Warn().Err(err).Msg("credential rejected")
		return "", nil, err
	}

	session := domain.SessionFromIdentity(*identity)
	token, err := s.sessions.Issue(session)
	if err != nil {
		metrics.SignInsTotal.WithLabelValues("error").Inc()
		return "", nil, fmt.Errorf("issue session: %w", err)
	}

	metrics.SignInsTotal.WithLabelValues("ok").Inc()
	s.log.Info().Str("user_id", session.ID).Msg("user signed in")
	return token, &session, nil
}

func (s *AuthService) VerifySession(token string) (*domain.UserSession, error) {
	return s.sessions.Verify(token)
}
