package utils // package utils provides helper functions for session and bearer tokens

import (
	"time" // time utilities for generating expirations

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens

	"github.com/iliyamo/club-seat-reservation/internal/clock"
	"github.com/iliyamo/club-seat-reservation/internal/model"
)

// AccessToken represents a signed JWT access token along with its expiry.
// Bearer tokens let scripts and CLI clients call the admin endpoints
// without a cookie jar.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// adminClaims carries the session identity inside a JWT.
type adminClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewAccessToken builds and signs an HS256 JWT for the admin user.  The
// subject is the username; name and role travel as private claims.
func NewAccessToken(secret string, u model.SessionUser, ttl time.Duration, clk clock.Clock) (AccessToken, error) {
	now := clk.Now()
	exp := now.Add(ttl)
	claims := adminClaims{
		Name: u.Name,
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, errors.Wrap(err, "sign access token")
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken validates an HS256 token against secret and the clock
// and returns the embedded identity.
func ParseAccessToken(secret, raw string, clk clock.Clock) (model.SessionUser, error) {
	var claims adminClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(clk.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.SessionUser{}, ErrSessionExpired
		}
		return model.SessionUser{}, ErrInvalidSession
	}
	if !tok.Valid || claims.Subject == "" {
		return model.SessionUser{}, ErrInvalidSession
	}
	return model.SessionUser{Username: claims.Subject, Name: claims.Name, Role: claims.Role}, nil
}
