package google

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"

	"github.com/fmtdata/datafill/internal/core/domain"
)

type stubValidator struct {
	payload  *idtoken.Payload
	err      error
	audience string
}

func (s *stubValidator) Validate(_ context.Context, _, audience string) (*idtoken.Payload, error) {
	s.audience = audience
	return s.payload, s.err
}

var testConfig = Config{
	ClientID:     "client-123.apps.googleusercontent.com",
	ClientSecret: "secret",
	RedirectURL:  "http://localhost:5173/auth/callback",
}

func TestVerifier_Verify(t *testing.T) {
	stub := &stubValidator{payload: &idtoken.Payload{
		Subject: "1043",
		Claims: map[string]interface{}{
			"email":   "ann@example.com",
			"name":    "Ann",
			"picture": "https://example.com/ann.png",
		},
	}}
	v := NewVerifierWithValidator(testConfig, stub)

	got, err := v.Verify(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, testConfig.ClientID, stub.audience)
	assert.Equal(t, &domain.Identity{
		Subject: "1043",
		Email:   "ann@example.com",
		Name:    "Ann",
		Picture: "https://example.com/ann.png",
	}, got)
}

func TestVerifier_VerifyRejects(t *testing.T) {
	tests := []struct {
		name string
		stub *stubValidator
	}{
		{"validator error", &stubValidator{err: errors.New("idtoken: audience provided does not match")}},
		{"missing subject", &stubValidator{payload: &idtoken.Payload{Claims: map[string]interface{}{"email": "a@b.c"}}}},
		{"missing email", &stubValidator{payload: &idtoken.Payload{Subject: "1", Claims: map[string]interface{}{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVerifierWithValidator(testConfig, tt.stub).Verify(context.Background(), "id-token")
			assert.ErrorIs(t, err, domain.ErrInvalidCredential)
		})
	}
}

func TestVerifier_AuthURL(t *testing.T) {
	raw := NewVerifierWithValidator(testConfig, &stubValidator{}).AuthURL("state-1")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, testConfig.ClientID, q.Get("client_id"))
	assert.Equal(t, testConfig.RedirectURL, q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "userinfo.email")
}
