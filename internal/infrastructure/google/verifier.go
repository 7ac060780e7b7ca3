// Package google verifies Google Sign-In ID tokens and builds the consent URL.
package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"github.com/fmtdata/datafill/internal/core/domain"
)

var scopes = []string{
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/userinfo.email",
}

// TokenValidator is the subset of *idtoken.Validator the verifier needs.
type TokenValidator interface {
	Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

// Config holds the OAuth client registration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Verifier implements ports.CredentialVerifier against Google.
type Verifier struct {
	clientID  string
	validator TokenValidator
	oauth     *oauth2.Config
}

// NewVerifier builds a Verifier backed by Google's published signing keys.
func NewVerifier(ctx context.Context, cfg Config) (*Verifier, error) {
	v, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("id token validator: %w", err)
	}
	return NewVerifierWithValidator(cfg, v), nil
}

// NewVerifierWithValidator builds a Verifier around an arbitrary validator.
func NewVerifierWithValidator(cfg Config, validator TokenValidator) *Verifier {
	return &Verifier{
		clientID:  cfg.ClientID,
		validator: validator,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     googleoauth.Endpoint,
			Scopes:       scopes,
		},
	}
}

// Verify checks the token signature, expiry and audience and maps the payload
// onto an Identity. Subject and email are required.
func (v *Verifier) Verify(ctx context.Context, credential string) (*domain.Identity, error) {
	payload, err := v.validator.Validate(ctx, credential, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredential, err)
	}

	identity := &domain.Identity{
		Subject: payload.Subject,
		Email:   claim(payload, "email"),
		Name:    claim(payload, "name"),
		Picture: claim(payload, "picture"),
	}
	if identity.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrInvalidCredential)
	}
	if identity.Email == "" {
		return nil, fmt.Errorf("%w: missing email", domain.ErrInvalidCredential)
	}
	return identity, nil
}

// AuthURL returns the consent URL requesting offline access.
func (v *Verifier) AuthURL(state string) string {
	return v.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func claim(p *idtoken.Payload, key string) string {
	if s, ok := p.Claims[key].(string); ok {
		return s
	}
	return ""
}
