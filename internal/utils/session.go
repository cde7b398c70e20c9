package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/club-seat-reservation/internal/clock"
	"github.com/iliyamo/club-seat-reservation/internal/model"
)

var (
	// ErrInvalidSession covers malformed tokens and bad signatures.
	ErrInvalidSession = errors.New("invalid session")
	// ErrSessionExpired is returned for a correctly signed token past its expiry.
	ErrSessionExpired = errors.New("session expired")
)

// sessionPayload is the signed part of a session token.  Exp is in
// milliseconds since the Unix epoch.
type sessionPayload struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Exp      int64  `json:"exp"`
}

// SessionSigner issues and verifies admin session tokens of the form
// base64(json payload) + "." + base64(HMAC-SHA256(encoded payload)).
// Tokens are not stored anywhere; a token stays valid until it expires.
type SessionSigner struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

// NewSessionSigner returns a signer keyed by secret whose tokens live for ttl.
func NewSessionSigner(secret string, ttl time.Duration, clk clock.Clock) *SessionSigner {
	return &SessionSigner{secret: []byte(secret), ttl: ttl, clock: clk}
}

// TTL is the lifetime of issued tokens.
func (s *SessionSigner) TTL() time.Duration { return s.ttl }

// Issue mints a token for u expiring ttl from now.
func (s *SessionSigner) Issue(u model.SessionUser) (string, time.Time, error) {
	exp := s.clock.Now().Add(s.ttl)
	raw, err := json.Marshal(sessionPayload{Username: u.Username, Name: u.Name, Role: u.Role, Exp: exp.UnixMilli()})
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "marshal session payload")
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	return encoded + "." + s.sign(encoded), exp, nil
}

// Verify checks the signature in constant time, then decodes the payload
// and checks expiry.
func (s *SessionSigner) Verify(token string) (model.SessionUser, error) {
	encoded, signature, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || signature == "" || strings.Contains(signature, ".") {
		return model.SessionUser{}, ErrInvalidSession
	}
	if !hmac.Equal([]byte(signature), []byte(s.sign(encoded))) {
		return model.SessionUser{}, ErrInvalidSession
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return model.SessionUser{}, ErrInvalidSession
	}
	var p sessionPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Exp == 0 {
		return model.SessionUser{}, ErrInvalidSession
	}
	if s.clock.Now().UnixMilli() > p.Exp {
		return model.SessionUser{}, ErrSessionExpired
	}
	return model.SessionUser{Username: p.Username, Name: p.Name, Role: p.Role}, nil
}

func (s *SessionSigner) sign(encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encoded))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
