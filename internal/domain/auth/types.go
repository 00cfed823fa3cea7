package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleAnalyst Role = "analyst"
	RoleGuest   Role = "guest"
)

// ParseRole normalizes a stored role string. Unknown roles degrade to
// guest rather than failing, so a bad row in the user store can never
// grant elevated access.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleAnalyst, RoleGuest:
		return Role(s)
	default:
		return RoleGuest
	}
}

// UserClaims is the validated identity returned by the external user
// store after successful authentication. It is the input to session
// creation; the session store never sees passwords.
type UserClaims struct {
	UserID      int64
	Username    string
	Email       string
	CompanyID   int64
	CompanyName string
	Role        Role
	IsAdmin     bool
	FullName    string
}

// RequestMeta carries per-request metadata recorded on the session.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// Session is the server-side record binding an opaque token to an
// authenticated identity, its company (tenant) and an expiry.
type Session struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	CompanyID    int64     `json:"company_id"`
	CompanyName  string    `json:"company_name"`
	Role         Role      `json:"role"`
	IsAdmin      bool      `json:"is_admin"`
	FullName     string    `json:"full_name"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsGuest returns true if the session role is guest.
func (s Session) IsGuest() bool { return s.Role == RoleGuest }

// HasRole reports whether the session satisfies a role requirement.
// Admin sessions satisfy every role requirement.
func (s Session) HasRole(required ...Role) bool {
	if s.IsAdmin {
		return true
	}
	for _, r := range required {
		if s.Role == r {
			return true
		}
	}
	return false
}

// CanAccessCompany reports whether the session may touch data belonging
// to the given company. Admin sessions cross tenant boundaries; everyone
// else is confined to their own company.
func (s Session) CanAccessCompany(companyID int64) bool {
	return s.IsAdmin || s.CompanyID == companyID
}

// Expired reports whether the session's embedded expiry has passed.
// The store's TTL normally enforces this; the check is a defensive
// double-check against clock-skewed writes.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
