package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fmtdata/datafill/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// GoogleURL returns the Google consent URL.
//
// @Summary      Google consent URL
// @Tags         auth
// @Produce      json
// @Success      200  {object}  authURLResponse
// @Failure      500  {object}  errorResponse
// @Router       /auth/google/url [get]
func (h *AuthHandler) GoogleURL(c echo.Context) error {
	url, err := h.authService.AuthURL()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authURLResponse{URL: url})
}

// GoogleSignIn exchanges a Google ID token for a session token.
//
// @Summary      Sign in with Google
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Google ID token"
// @Success      200   {object}  signInResponse
// @Failure      400   {object}  validationErrorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/google [post]
func (h *AuthHandler) GoogleSignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, session, err := h.authService.SignIn(c.Request().Context(), req.Credential)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, signInResponse{Token: token, User: toSessionUser(session)})
}

// Verify echoes the session carried by the bearer token.
//
// @Summary      Verify session token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  verifyResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/verify [get]
func (h *AuthHandler) Verify(c echo.Context) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, verifyResponse{User: toSessionUser(session)})
}
