// Package users encapsulates user management: the User entity, its validation
// rule set, the persistence gateway and the HTTP handlers for /users.
package users

import (
	"time"

	"github.com/user/taskboard-go/validation"
)

// User mirrors one row of the "user" table.
// The password hash is carried for persistence and validation but is never
// serialized to API clients.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	// HashedPassword is the one-way bcrypt hash of the plaintext password.
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ValidationRules returns the declarative rule table for the entity's current
// field values. Email format is not constrained here; email uniqueness is
// enforced by the store.
func (u *User) ValidationRules() []validation.Rule {
	return []validation.Rule{
		{Value: u.Username, Tag: "required", Message: `"username" is required.`},
		{Value: u.Email, Tag: "required", Message: `"email" is required.`},
		{Value: u.HashedPassword, Tag: "required", Message: `"password" is required.`},
	}
}
