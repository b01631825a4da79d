package types

import "time"

// User represents an account in the system.
// It is the principal every owned resource refers back to.
type User struct {
	// ID is the unique identifier of the user.
	ID string `json:"id" db:"id"`

	// Name is the user's display name. It is copied onto posts and
	// comments at creation time, so those snapshots survive account
	// deletion unchanged.
	Name string `json:"name" db:"name"`

	// Email is the user's email address. It is unique and used as the
	// login identifier.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Avatar is the URL of the user's avatar image. It is derived from
	// the email at registration and may later point at an uploaded image.
	Avatar string `json:"avatar" db:"avatar"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
