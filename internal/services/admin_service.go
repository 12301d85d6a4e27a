package services

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"boutique/internal/apperrors"

	"golang.org/x/crypto/bcrypt"
)

// AdminAuthenticator checks the single configured dashboard credential.
type AdminAuthenticator struct {
	username     string
	passwordHash []byte
}

// NewAdminAuthenticator accepts either a bcrypt passwordHash or a plain
// password, which is hashed once at startup. The hash wins when both are set.
func NewAdminAuthenticator(username, password, passwordHash string) (*AdminAuthenticator, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("admin username is required")
	}
	hash := []byte(strings.TrimSpace(passwordHash))
	if len(hash) > 0 {
		if _, err := bcrypt.Cost(hash); err != nil {
			return nil, fmt.Errorf("admin password hash: %w", err)
		}
	} else {
		if password == "" {
			return nil, errors.New("admin password is required")
		}
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
	}
	return &AdminAuthenticator{username: username, passwordHash: hash}, nil
}

// Verify returns an Unauthorized error unless both username and password match.
func (a *AdminAuthenticator) Verify(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(a.username)) == 1
	// bcrypt runs even when the username is wrong.
	passErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return apperrors.Unauthorized(invalidCredentials)
	}
	return nil
}
