package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fmtdata/datafill/internal/api/middleware"
	"github.com/fmtdata/datafill/internal/core/domain"
)

// ctxSession returns the session injected by the auth middleware, or nil
// when the request is anonymous.
func ctxSession(c echo.Context) *domain.UserSession {
	return middleware.SessionFrom(c)
}

// requireSession fast-fails with 401 when no session is attached. Routes
// behind Auth always have one; this guards against a miswired route.
func requireSession(c echo.Context) (*domain.UserSession, error) {
	s := ctxSession(c)
	if s == nil || s.ID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return s, nil
}
