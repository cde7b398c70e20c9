package utils

import (
	"encoding/base64"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/club-seat-reservation/internal/clock"
	"github.com/iliyamo/club-seat-reservation/internal/model"
)

var (
	issuedAt = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	admin    = model.SessionUser{Username: "admin", Name: "Club Administrator", Role: "admin"}
)

func TestSessionSigner_Lifecycle(t *testing.T) {
	t.Parallel()

	signer := NewSessionSigner("s3cret", 24*time.Hour, clock.NewFixed(issuedAt))
	token, exp, err := signer.Issue(admin)
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(24*time.Hour), exp)
	assert.Equal(t, 1, strings.Count(token, "."))

	u, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, admin, u)

	justBefore := NewSessionSigner("s3cret", 24*time.Hour, clock.NewFixed(exp))
	_, err = justBefore.Verify(token)
	assert.NoError(t, err, "a token is still valid at its expiry instant")

	later := NewSessionSigner("s3cret", 24*time.Hour, clock.NewFixed(exp.Add(time.Millisecond)))
	_, err = later.Verify(token)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestSessionSigner_PayloadFormat(t *testing.T) {
	t.Parallel()

	signer := NewSessionSigner("s3cret", time.Hour, clock.NewFixed(issuedAt))
	token, _, err := signer.Issue(admin)
	require.NoError(t, err)

	encoded, _, _ := strings.Cut(token, ".")
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"username":"admin","name":"Club Administrator","role":"admin","exp":`+
			strconv.FormatInt(issuedAt.Add(time.Hour).UnixMilli(), 10)+`}`,
		string(raw))
}

func TestSessionSigner_Rejects(t *testing.T) {
	t.Parallel()

	signer := NewSessionSigner("s3cret", time.Hour, clock.NewFixed(issuedAt))
	token, _, err := signer.Issue(admin)
	require.NoError(t, err)
	encoded, signature, _ := strings.Cut(token, ".")

	flip := func(s string, i int) string {
		b := []byte(s)
		if b[i] == 'A' {
			b[i] = 'B'
		} else {
			b[i] = 'A'
		}
		return string(b)
	}

	other := NewSessionSigner("different", time.Hour, clock.NewFixed(issuedAt))
	forged, _, err := other.Issue(admin)
	require.NoError(t, err)

	cases := map[string]string{
		"empty":             "",
		"no separator":      encoded,
		"empty signature":   encoded + ".",
		"empty payload":     "." + signature,
		"extra segment":     token + ".x",
		"flipped payload":   flip(encoded, 3) + "." + signature,
		"flipped signature": encoded + "." + flip(signature, 5),
		"short signature":   encoded + "." + signature[:10],
		"other secret":      forged,
		"not base64":        "%%%." + signer.sign("%%%"),
	}
	for name, tok := range cases {
		_, err := signer.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidSession, name)
	}
}

func TestAccessToken(t *testing.T) {
	t.Parallel()

	clk := clock.NewFixed(issuedAt)
	at, err := NewAccessToken("jwt-secret", admin, time.Hour, clk)
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(time.Hour), at.Exp)

	u, err := ParseAccessToken("jwt-secret", at.Token, clk)
	require.NoError(t, err)
	assert.Equal(t, admin, u)

	_, err = ParseAccessToken("wrong", at.Token, clk)
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = ParseAccessToken("jwt-secret", at.Token, clock.NewFixed(issuedAt.Add(2*time.Hour)))
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestAdminAccount_Authenticate(t *testing.T) {
	t.Parallel()

	acct, err := NewAdminAccount(admin, "correct horse", "", 4)
	require.NoError(t, err)

	u, err := acct.Authenticate("admin", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, admin, u)

	_, err = acct.Authenticate("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = acct.Authenticate("root", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	hashed, err := NewAdminAccount(admin, "ignored", acct.PasswordHash, 4)
	require.NoError(t, err)
	_, err = hashed.Authenticate("admin", "correct horse")
	assert.NoError(t, err)
}
