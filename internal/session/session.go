// Package session models the signed-in console user explicitly.
//
// The backend owns authentication; the console only needs the session token
// to forward and the user's role to decide which screens and actions render.
// Sessions are passed through context.Context, never looked up globally.
package session

import (
	"context"
	"strings"
)

// Role is the typed staff role returned by the backend.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleFinance    Role = "finance"
	RoleMedia      Role = "media"
	RoleMember     Role = "member"
	RoleUnknown    Role = ""
)

// ParseRole normalizes the backend's role spelling.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "super_admin", "super-admin", "superadmin", "super admin":
		return RoleSuperAdmin
	case "admin", "administrator":
		return RoleAdmin
	case "finance", "accountant":
		return RoleFinance
	case "media":
		return RoleMedia
	case "member", "user":
		return RoleMember
	default:
		return RoleUnknown
	}
}

// Label returns a display name for the role.
func (r Role) Label() string {
	switch r {
	case RoleSuperAdmin:
		return "Super Admin"
	case RoleAdmin:
		return "Admin"
	case RoleFinance:
		return "Finance"
	case RoleMedia:
		return "Media"
	case RoleMember:
		return "Member"
	default:
		return "Unknown"
	}
}

// Session is the acting user for one request.
type Session struct {
	Token  string // backend session token, forwarded as a cookie
	UserID string
	Email  string
	Name   string
	Role   Role
}

// Anonymous returns a session with no identity and no permissions.
func Anonymous() Session {
	return Session{Role: RoleUnknown}
}

// Authenticated reports whether the session resolved to a backend user.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

// access describes what a role may do with one resource group.
type access struct {
	view   bool
	mutate bool
}

// Resource groups as registered by the console's resource catalog.
const (
	GroupFinance = "Finance"
	GroupPeople  = "People"
	GroupContent = "Content"
	GroupMedia   = "Media"
	GroupStore   = "Store"
	GroupAudit   = "Audit"
)

var matrix = map[Role]map[string]access{
	RoleAdmin: {
		GroupFinance: {view: true},
		GroupPeople:  {view: true, mutate: true},
		GroupContent: {view: true, mutate: true},
		GroupMedia:   {view: true, mutate: true},
		GroupStore:   {view: true, mutate: true},
		GroupAudit:   {view: true},
	},
	RoleFinance: {
		GroupFinance: {view: true, mutate: true},
		GroupStore:   {view: true},
	},
	RoleMedia: {
		GroupContent: {view: true, mutate: true},
		GroupMedia:   {view: true, mutate: true},
	},
}

// CanView reports whether the session may open screens of the group.
func (s Session) CanView(group string) bool {
	if s.Role == RoleSuperAdmin {
		return true
	}
	return matrix[s.Role][group].view
}

// CanMutate reports whether the session may create, edit or delete in the group.
func (s Session) CanMutate(group string) bool {
	if s.Role == RoleSuperAdmin {
		return true
	}
	return matrix[s.Role][group].mutate
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext extracts the session stored by WithSession.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}

// Current returns the session in ctx or Anonymous when none is set.
func Current(ctx context.Context) Session {
	if s, ok := FromContext(ctx); ok {
		return s
	}
	return Anonymous()
}
