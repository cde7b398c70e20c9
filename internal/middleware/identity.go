package middleware

// identity.go holds the helper shared by the rate limiter and the request
// logger to name the caller of a request.

import (
	"github.com/labstack/echo/v4"
)

// userID returns the username stored by RequireAdmin, or "anon" for
// public requests.
func userID(c echo.Context) string {
	if u, ok := CurrentUser(c); ok && u.Username != "" {
		return u.Username
	}
	return "anon"
}
