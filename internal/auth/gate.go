package auth

import "errors"

var (
	// ErrInvalidCredentials is returned when the identifier or secret does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingFields is returned when a password change form has an empty field.
	ErrMissingFields = errors.New("missing fields")
	// ErrPasswordMismatch is returned when the new password and its confirmation differ.
	ErrPasswordMismatch = errors.New("mismatch")
)

// Fixed demo credentials. There is no credential store behind the gate.
const (
	AdminIdentifier = "admin@mess.com.mx"
	adminSecret     = "1234"
)

// Gate checks login attempts against a single fixed credential pair
type Gate struct {
	identifier string
	secret     string
}

// NewGate returns a gate for the built-in credential pair
func NewGate() *Gate {
	return &Gate{identifier: AdminIdentifier, secret: adminSecret}
}

// AttemptLogin compares both values exactly. Repeated attempts are always allowed.
func (g *Gate) AttemptLogin(identifier, secret string) error {
	if identifier != g.identifier || secret != g.secret {
		return ErrInvalidCredentials
	}
	return nil
}
