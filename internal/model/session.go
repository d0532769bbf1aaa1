package model

import "github.com/m-mizutani/goerr/v2"

// Role selects the dashboard variant and resource set for a session.
type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

var ErrInvalidRole = goerr.New("invalid role")

func (r Role) String() string { return string(r) }

func (r Role) Validate() error {
	switch r {
	case RoleClient, RoleAdmin:
		return nil
	}
	return goerr.Wrap(ErrInvalidRole, "unknown role", goerr.V("role", string(r)))
}

// Session is owned by the auth collaborator and read-only here.
type Session struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
}

// AuthState is the {user, role, loading} capability handed to the core.
type AuthState struct {
	Session *Session
	Loading bool
}
