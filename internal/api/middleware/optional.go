package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/fmtdata/datafill/internal/core/ports"
)

// OptionalAuth attaches a session when the request carries a valid bearer
// token. It never rejects: a missing or bad token leaves the request anonymous.
func OptionalAuth(sessions ports.SessionIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization)); ok {
				if session, err := sessions.Verify(token); err == nil {
					c.Set(SessionKey, session)
				}
			}
			return next(c)
		}
	}
}

// Reads picks the gate applied to read endpoints: OptionalAuth when reads
// are public, Auth otherwise.
func Reads(public bool, sessions ports.SessionIssuer) echo.MiddlewareFunc {
	if public {
		return OptionalAuth(sessions)
	}
	return Auth(sessions)
}
