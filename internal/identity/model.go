package identity

import "time"

// User represents a registered player. Every user owns exactly one wallet,
// provisioned at registration time.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash []byte
	CountryCode  string
	CreatedAt    time.Time
}

// Credentials carries a login attempt. Login accepts either the username or
// the email address.
type Credentials struct {
	UsernameOrEmail string
	Password        string
}
