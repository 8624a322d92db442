// Data transfer objects for the users API. Request DTOs use pointer fields
// where "absent from the body" must be distinguishable from a zero value.
package users

// CreateUserRequest represents the user creation payload.
type CreateUserRequest struct {
	Username string `json:"username" example:"newuser"`
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"strongpassword123"`
}

// UpdateUserRequest represents the user update payload. A nil field means
// "keep the current value". The password is deliberately not updatable
// through this endpoint.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty" example:"renameduser"`
	Email    *string `json:"email,omitempty" example:"renamed@example.com"`
}
