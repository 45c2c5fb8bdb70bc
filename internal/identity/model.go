// Package identity adapts the external email/password identity provider.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrUnauthenticated     = errors.New("sign in required")
	ErrValidation          = errors.New("validation failed")
	ErrEmailExists         = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrRemoteUnavailable   = errors.New("identity provider unavailable")
	errProviderUnsupported = errors.New("identity provider not configured")
)

// MinPasswordLength is the shortest password the provider accepts.
const MinPasswordLength = 6

// Identity is an authenticated user as returned by the provider.
type Identity struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	IDToken string `json:"-"`
}

// Credentials are the email/password pair used to sign in.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Registration creates a new account together with its initial profile fields.
type Registration struct {
	Credentials
	Name     string `json:"name" validate:"required"`
	Location string `json:"location"`
}

// Provider creates accounts and exchanges credentials for an identity.
type Provider interface {
	SignUp(ctx context.Context, creds Credentials) (Identity, error)
	SignIn(ctx context.Context, creds Credentials) (Identity, error)
}

var validate = validator.New()

// Normalize trims user input in place.
func (c *Credentials) Normalize() {
	c.Email = strings.TrimSpace(c.Email)
}

// Validate checks the credentials before any remote call is made.
func (c Credentials) Validate() error {
	c.Normalize()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// Normalize trims user input in place.
func (r *Registration) Normalize() {
	r.Credentials.Normalize()
	r.Name = strings.TrimSpace(r.Name)
	r.Location = strings.TrimSpace(r.Location)
}

// Validate checks the registration form before any remote call is made.
func (r Registration) Validate() error {
	r.Normalize()
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
