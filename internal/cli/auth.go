package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/Makepad-fr/portal/internal/auth"
	"github.com/Makepad-fr/portal/internal/ui"
)

func (a *app) cmdAuth() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the session token",
		Commands: []*cli.Command{
			{
				Name:      "login",
				Usage:     "Store a session token",
				ArgsUsage: "[token]",
				Action:    a.authLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session token",
				Action: a.authLogout,
			},
			{
				Name:   "status",
				Usage:  "Show where the token comes from and when it expires",
				Action: a.authStatus,
			},
			{
				Name:   "whoami",
				Usage:  "Show the session carried by the token",
				Action: a.authWhoAmI,
			},
		},
	}
}

func (a *app) authLogin(ctx context.Context, c *cli.Command) error {
	token := c.Args().First()
	if token == "" {
		fmt.Fprint(a.out, "Paste your token: ")
		line, err := bufio.NewReader(a.in).ReadString('\n')
		if err != nil && line == "" {
			return usage("no token given")
		}
		token = strings.TrimSpace(line)
	}

	// Opaque tokens are accepted; their expiry is simply unknown.
	var expires *time.Time
	if s, exp, err := auth.SessionFromToken(token); err == nil {
		expires = exp
		if err := s.Role.Validate(); err != nil {
			ui.Warn(a.errOut, "the token carries no known role; the dashboard will not open")
		}
	}
	if err := a.store.Set(token, expires); err != nil {
		if errors.Is(err, auth.ErrEmptyToken) {
			return usage("no token given")
		}
		return err
	}
	ui.OK(a.out, "logged in")
	return nil
}

func (a *app) authLogout(ctx context.Context, c *cli.Command) error {
	ti, _ := a.store.Get()
	if ti != nil && ti.Source == auth.SourceEnv {
		ui.OK(a.out, "token is provided by the "+auth.TokenEnv+" env var (nothing to delete)")
		return nil
	}
	if err := a.store.Delete(); err != nil {
		return err
	}
	ui.OK(a.out, "logged out")
	return nil
}

func (a *app) authStatus(ctx context.Context, c *cli.Command) error {
	ti, err := a.store.Get()
	if err != nil {
		return err
	}
	t := ui.Current()
	if ti == nil {
		fmt.Fprintln(a.out, t.Muted.Render("not logged in"))
		fmt.Fprintln(a.out, "Run: portal auth login")
		return nil
	}
	fmt.Fprintf(a.out, "source: %s\n", ti.Source)
	expires := ti.ExpiresAt
	if expires == nil {
		if _, exp, err := auth.SessionFromToken(ti.Token); err == nil {
			expires = exp
		}
	}
	switch {
	case expires == nil:
		fmt.Fprintln(a.out, "expires: (unknown)")
	case time.Now().After(*expires):
		fmt.Fprintf(a.out, "expires: %s %s\n", expires.UTC().Format(time.RFC3339), t.Error.Render("(expired)"))
	default:
		fmt.Fprintf(a.out, "expires: %s\n", expires.UTC().Format(time.RFC3339))
	}
	fmt.Fprintln(a.out, "env override: "+auth.TokenEnv)
	return nil
}

func (a *app) authWhoAmI(ctx context.Context, c *cli.Command) error {
	ti, err := a.store.Get()
	if err != nil {
		return err
	}
	if ti == nil {
		return auth.ErrNotLoggedIn
	}
	s, _, err := auth.SessionFromToken(ti.Token)
	if err != nil {
		fmt.Fprintln(a.out, "Opaque token (cannot introspect locally).")
		fmt.Fprintln(a.out, "source:", ti.Source)
		return nil
	}
	fmt.Fprintf(a.out, "user:  %s\n", s.UserID)
	if s.Name != "" {
		fmt.Fprintf(a.out, "name:  %s\n", s.Name)
	}
	fmt.Fprintf(a.out, "email: %s\n", s.Email)
	fmt.Fprintf(a.out, "role:  %s %s\n", s.Role, ui.RoleBadge(s.Role))
	return nil
}
