package auth

import "github.com/m-mizutani/goerr/v2"

var (
	ErrEmptyToken   = goerr.New("empty token")
	ErrNotLoggedIn  = goerr.New("not logged in")
	ErrMalformedJWT = goerr.New("token is not a readable JWT")
	ErrLoading      = goerr.New("session is still loading")
	ErrNoSession    = goerr.New("no active session")
	ErrUnknownRole  = goerr.New("no dashboard for role")
)
