package ports

import (
	"context"

	"github.com/fmtdata/datafill/internal/core/domain"
)

// CredentialVerifier validates a provider-issued identity credential.
type CredentialVerifier interface {
	// Verify checks signature and audience and returns the normalised identity.
	// It fails with domain.ErrInvalidCredential.
	Verify(ctx context.Context, credential string) (*domain.Identity, error)
	// AuthURL returns the provider consent URL for the given state value.
	AuthURL(state string) string
}

// SessionIssuer mints and validates session tokens.
type SessionIssuer interface {
	Issue(session domain.UserSession) (string, error)
	// Verify fails with domain.ErrInvalidToken.
	Verify(token string) (*domain.UserSession, error)
}
