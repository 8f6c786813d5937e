package core

import (
	"errors"
	"strings"
)

// User is an identity record. PasswordHash carries the bcrypt digest of the
// signup password; it travels with the stored record but is stripped before
// a user is handed to any caller outside the identity gate.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	PasswordHash string `json:"password_hash,omitempty"`
}

var ErrEmptyEmail = errors.New("empty email")

func (u User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmptyEmail
	}
	if strings.TrimSpace(u.ID) == "" {
		return ErrEmptyID
	}
	return nil
}

// Sanitized returns a copy safe to expose once a session is established.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}
