package domain

// UserRole separates administrators from regular handlers.
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleAgent UserRole = "agent"
	UserRoleUser  UserRole = "user"
)

// User is a helpdesk account as returned by the backend.
type User struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

// Session is the authenticated caller. It is passed explicitly to every
// service call rather than held in a global.
type Session struct {
	UserID string
	Name   string
	Email  string
	Role   UserRole
	Token  string
}

// IsAdmin reports whether the session may use admin endpoints.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == UserRoleAdmin
}

// Anonymous is used for unauthenticated calls such as public ticket
// submission.
var Anonymous = &Session{UserID: "anonymous"}
