package model

import (
	"errors"
	"strings"
)

var ErrEmailEmpty = errors.New("email must not be empty")
var ErrEmailInvalid = errors.New("email must contain @")
var ErrPasswordEmpty = errors.New("password must not be empty")

// User is the identity returned by the backend on login.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that both credentials are present.
func (r LoginRequest) Validate() error {
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	if r.Password == "" {
		return ErrPasswordEmpty
	}
	return nil
}

// LoginResponse is the body returned by a successful POST /login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// ValidateEmail performs the minimal shape check the forms rely on; the
// backend does the real validation.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailEmpty
	}
	if !strings.Contains(email, "@") {
		return ErrEmailInvalid
	}
	return nil
}
