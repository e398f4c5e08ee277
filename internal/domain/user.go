package domain

// UserRole enumerates caller roles carried in access tokens.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// Caller identifies the authenticated user performing an operation.
type Caller struct {
	UserID string
	Role   UserRole
}

// IsAdmin reports whether the caller may run moderation and matching operations.
func (c Caller) IsAdmin() bool {
	return c.Role == UserRoleAdmin
}
