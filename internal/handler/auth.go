package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/club-seat-reservation/internal/middleware"
	"github.com/iliyamo/club-seat-reservation/internal/observability"
	"github.com/iliyamo/club-seat-reservation/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Account  *utils.AdminAccount
	Sessions middleware.Sessions
	Logger   observability.Logger
}

func NewAuthHandler(account *utils.AdminAccount, sessions middleware.Sessions, logger observability.Logger) *AuthHandler {
	return &AuthHandler{Account: account, Sessions: sessions, Logger: logger}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResp struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// readLogin decodes the credentials; a malformed body yields empty
// credentials, which never authenticate.
func readLogin(c echo.Context) loginReq {
	var req loginReq
	_ = json.NewDecoder(c.Request().Body).Decode(&req)
	return req
}

// Login checks the admin credentials and sets the session cookie.  A
// failed attempt also clears any cookie the client still holds.
func (h *AuthHandler) Login(c echo.Context) error {
	req := readLogin(c)
	user, err := h.Account.Authenticate(req.Username, req.Password)
	if err != nil {
		observability.AuthFailures.WithLabelValues("credentials").Inc()
		h.Sessions.ClearCookie(c)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
	}

	token, _, err := h.Sessions.Signer.Issue(user)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	c.SetCookie(h.Sessions.Cookie(token))
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": user})
}

// Logout clears the session cookie.  Tokens are not revoked server side.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.Sessions.ClearCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Me returns the identity in the session cookie.
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.Sessions.FromCookie(c)
	if err != nil {
		h.Sessions.ClearCookie(c)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

// Token exchanges admin credentials for a Bearer JWT, for clients that
// do not keep cookies.
func (h *AuthHandler) Token(c echo.Context) error {
	req := readLogin(c)
	user, err := h.Account.Authenticate(req.Username, req.Password)
	if err != nil {
		observability.AuthFailures.WithLabelValues("credentials").Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
	}
	at, err := utils.NewAccessToken(h.Sessions.JWTSecret, user, h.Sessions.Signer.TTL(), h.Sessions.Clock)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, tokenResp{Token: at.Token, Expires: at.Exp})
}
