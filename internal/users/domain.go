// Package users manages the staff directory: who works here, what role they
// hold, and which department is their home. The access package consumes this
// as its Session Provider input.
package users

import (
	"time"

	"github.com/lumina-media/backoffice/internal/access"
)

// User is a staff account. Department is empty for roles that are not
// department scoped (SUPER_ADMIN and ADMIN).
type User struct {
	ID         int64
	Email      string
	Name       string
	Role       access.Role
	Department access.Department
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
