package auth

import (
	"github.com/m-mizutani/goerr/v2"

	"github.com/Makepad-fr/portal/internal/model"
)

// Variant is the dashboard flavour a session gets.
type Variant string

const (
	VariantClient Variant = "client"
	VariantAdmin  Variant = "admin"
)

// variants is the only place roles map to dashboards.
var variants = map[model.Role]Variant{
	model.RoleClient: VariantClient,
	model.RoleAdmin:  VariantAdmin,
}

// Resolve picks the dashboard variant for the current auth state.
func Resolve(state model.AuthState) (model.Session, Variant, error) {
	if state.Loading {
		return model.Session{}, "", ErrLoading
	}
	if state.Session == nil {
		return model.Session{}, "", ErrNoSession
	}
	v, ok := variants[state.Session.Role]
	if !ok {
		return model.Session{}, "", goerr.Wrap(ErrUnknownRole, "resolve dashboard",
			goerr.V("role", string(state.Session.Role)),
			goerr.V("user_id", state.Session.UserID))
	}
	return *state.Session, v, nil
}
