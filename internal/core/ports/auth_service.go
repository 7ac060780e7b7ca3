package ports

import (
	"context"

	"github.com/fmtdata/datafill/internal/core/domain"
)

type AuthService interface {
	AuthURL() (string, error)
	SignIn(ctx context.Context, credential string) (string, *domain.UserSession, error)
	VerifySession(token string) (*domain.UserSession, error)
}
