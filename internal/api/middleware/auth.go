package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fmtdata/datafill/internal/core/domain"
	"github.com/fmtdata/datafill/internal/core/ports"
)

// SessionKey is the echo context key holding the caller's *domain.UserSession.
const SessionKey = "session"

// Auth requires a valid bearer session token and injects the session into context.
func Auth(sessions ports.SessionIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			token, ok := bearerToken(authHeader)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			session, err := sessions.Verify(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token").SetInternal(err)
			}

			c.Set(SessionKey, session)
			return next(c)
		}
	}
}

// SessionFrom returns the session attached by Auth or OptionalAuth, or nil.
func SessionFrom(c echo.Context) *domain.UserSession {
	s, _ := c.Get(SessionKey).(*domain.UserSession)
	return s
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
