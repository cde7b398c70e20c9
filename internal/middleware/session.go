package middleware

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/club-seat-reservation/internal/clock"
	"github.com/iliyamo/club-seat-reservation/internal/model"
	"github.com/iliyamo/club-seat-reservation/internal/observability"
	"github.com/iliyamo/club-seat-reservation/internal/utils"
)

// sessionUserKey is the Echo context key holding the verified model.SessionUser.
const sessionUserKey = "session_user"

// Sessions bundles what the auth handlers and the admin gate need to
// read and write the session cookie.
type Sessions struct {
	Signer     *utils.SessionSigner
	CookieName string
	JWTSecret  string
	Clock      clock.Clock
	Secure     bool
}

// Cookie builds the session cookie carrying token.
func (s Sessions) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     s.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.Signer.TTL() / time.Second),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the session cookie on the client (Max-Age=0).
func (s Sessions) ClearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     s.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromCookie verifies the session cookie of the request.
func (s Sessions) FromCookie(c echo.Context) (model.SessionUser, error) {
	ck, err := c.Cookie(s.CookieName)
	if err != nil || ck.Value == "" {
		return model.SessionUser{}, utils.ErrInvalidSession
	}
	return s.Signer.Verify(ck.Value)
}

// Authenticate accepts either a valid session cookie or, for scripted
// clients, a valid Bearer JWT.
func (s Sessions) Authenticate(c echo.Context) (model.SessionUser, error) {
	if raw, ok := bearerToken(c); ok && s.JWTSecret != "" {
		return utils.ParseAccessToken(s.JWTSecret, raw, s.Clock)
	}
	return s.FromCookie(c)
}

// RequireAdmin rejects requests without a verified identity.  Any failure
// also clears the session cookie so stale or forged cookies do not linger.
func RequireAdmin(s Sessions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := s.Authenticate(c)
			if err != nil {
				observability.AuthFailures.WithLabelValues(failureReason(err)).Inc()
				s.ClearCookie(c)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
			}
			c.Set(sessionUserKey, u)
			return next(c)
		}
	}
}

// CurrentUser returns the identity stored by RequireAdmin.
func CurrentUser(c echo.Context) (model.SessionUser, bool) {
	u, ok := c.Get(sessionUserKey).(model.SessionUser)
	return u, ok
}

func failureReason(err error) string {
	if errors.Is(err, utils.ErrSessionExpired) {
		return "expired"
	}
	return "invalid"
}
