package auth

import "time"

// Credentials is the stored login record for a staff account. Role and
// department live in the users package; auth only cares about identity.
type Credentials struct {
	UserID       int64
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
