package utils

import (
	"crypto/subtle"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/club-seat-reservation/internal/model"
)

// HashPassword returns a bcrypt hash using the given cost, clamped to the
// range bcrypt accepts.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", errors.Wrap(err, "bcrypt hash")
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ErrInvalidCredentials is returned for any username or password mismatch.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AdminAccount is the single configured administrator.
type AdminAccount struct {
	User         model.SessionUser
	PasswordHash string
}

// NewAdminAccount builds the account from config.  A pre-computed hash
// wins over a plain password, which is hashed once here.
func NewAdminAccount(user model.SessionUser, password, passwordHash string, cost int) (*AdminAccount, error) {
	if passwordHash == "" {
		h, err := HashPassword(password, cost)
		if err != nil {
			return nil, err
		}
		passwordHash = h
	}
	return &AdminAccount{User: user, PasswordHash: passwordHash}, nil
}

// Authenticate checks a login attempt.  The password hash is always
// compared so that a wrong username costs the same as a wrong password.
func (a *AdminAccount) Authenticate(username, password string) (model.SessionUser, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.User.Username)) == 1
	passOK := VerifyPassword(a.PasswordHash, password)
	if !userOK || !passOK {
		return model.SessionUser{}, ErrInvalidCredentials
	}
	return a.User, nil
}
