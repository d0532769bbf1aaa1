package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/Makepad-fr/portal/internal/model"
	"github.com/Makepad-fr/portal/internal/ui"
	"github.com/Makepad-fr/portal/internal/usermgmt"
)

var ErrUserNotFound = goerr.New("user not found")

func (a *app) cmdUsers() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Manage portal users (admins only)",
		Commands: []*cli.Command{
			a.cmdUsersList(),
			a.cmdUsersCreateAdmin(),
			a.cmdUsersUpdate(),
			a.cmdUsersDelete(),
			a.cmdUsersToggle(),
			a.cmdUsersNotify(),
		},
	}
}

// users returns a user management controller for an admin session.
func (a *app) users(ctx context.Context) (*usermgmt.Controller, error) {
	session, variant, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.requireAdmin(variant); err != nil {
		return nil, err
	}
	client, err := a.client()
	if err != nil {
		return nil, err
	}
	return usermgmt.New(client, a.cache, session.Role, usermgmt.WithLimit(a.uiCfg.PageSize(a.file))), nil
}

// findUser looks a user up by email through the list search.
func findUser(ctx context.Context, ctl *usermgmt.Controller, email string) (model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return model.User{}, usage("a user email is required")
	}
	ctl.SetSearch(email)
	if _, err := ctl.Load(ctx); err != nil {
		return model.User{}, err
	}
	for _, u := range ctl.State().Users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, goerr.Wrap(ErrUserNotFound, email, goerr.V("email", email))
}

// settle turns the controller state after a mutation into command output.
func (a *app) settle(ctl *usermgmt.Controller, err error) error {
	st := ctl.State()
	if err != nil {
		keys := make([]string, 0, len(st.FieldErrors))
		for k := range st.FieldErrors {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ui.Warn(a.errOut, k+": "+st.FieldErrors[k])
		}
		return err
	}
	if st.Notice != "" {
		ui.OK(a.out, st.Notice)
	}
	return nil
}

func (a *app) cmdUsersList() *cli.Command {
	var (
		search string
		role   string
		page   int
	)
	return &cli.Command{
		Name:    "ls",
		Aliases: []string{"list"},
		Usage:   "List users",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Match name or email", Destination: &search},
			&cli.StringFlag{Name: "role", Usage: "Only show client or admin users", Destination: &role},
			&cli.IntFlag{Name: "page", Usage: "Page number", Value: 1, Destination: &page},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			ctl, err := a.users(ctx)
			if err != nil {
				return err
			}
			ctl.SetSearch(search)
			if err := ctl.SetRoleFilter(model.Role(strings.ToLower(role))); err != nil {
				return usage("--role must be client or admin")
			}
			if _, err := ctl.Load(ctx); err != nil {
				return err
			}
			// The page count is only known after the first page.
			if page > 1 {
				if !ctl.SetPage(page) {
					return usage(fmt.Sprintf("page %d is past the last page (%d)", page, ctl.State().Pages()))
				}
				if _, err := ctl.Load(ctx); err != nil {
					return err
				}
			}
			fmt.Fprintln(a.out, ui.UserTable(ctl.State()))
			return nil
		},
	}
}

type userFlags struct {
	name, email, password, role, company, phone string
}

func (f *userFlags) flags(withRole bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "Full name", Destination: &f.name},
		&cli.StringFlag{Name: "email", Usage: "Email address", Destination: &f.email},
		&cli.StringFlag{Name: "password", Usage: "Password", Destination: &f.password},
		&cli.StringFlag{Name: "company", Usage: "Company", Destination: &f.company},
		&cli.StringFlag{Name: "phone", Usage: "Phone number", Destination: &f.phone},
	}
	if withRole {
		flags = append(flags, &cli.StringFlag{Name: "role", Usage: "client or admin", Destination: &f.role})
	}
	return flags
}

// apply overrides the form with every flag that was given.
func (f *userFlags) apply(form usermgmt.UserForm) usermgmt.UserForm {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&form.Name, f.name)
	set(&form.Email, f.email)
	set(&form.Password, f.password)
	set(&form.Company, f.company)
	set(&form.Phone, f.phone)
	if f.role != "" {
		form.Role = model.Role(strings.ToLower(f.role))
	}
	return form
}

func (a *app) cmdUsersCreateAdmin() *cli.Command {
	var f userFlags
	return &cli.Command{
		Name:  "create-admin",
		Usage: "Create an admin user",
		Flags: f.flags(false),
		Action: func(ctx context.Context, c *cli.Command) error {
			if f.name == "" || f.email == "" || f.password == "" {
				return usage("--name, --email and --password are required")
			}
			ctl, err := a.users(ctx)
			if err != nil {
				return err
			}
			ctl.OpenCreate()
			return a.settle(ctl, ctl.CreateAdmin(ctx, f.apply(usermgmt.UserForm{})))
		},
	}
}

func (a *app) cmdUsersUpdate() *cli.Command {
	var f userFlags
	return &cli.Command{
		Name:      "update",
		Usage:     "Update a user; only the given fields change",
		ArgsUsage: "<email>",
		Flags:     f.flags(true),
		Action: func(ctx context.Context, c *cli.Command) error {
			if f.role != "" {
				if err := model.Role(strings.ToLower(f.role)).Validate(); err != nil {
					return usage("--role must be client or admin")
				}
			}
			ctl, err := a.users(ctx)
			if err != nil {
				return err
			}
			u, err := findUser(ctx, ctl, c.Args().First())
			if err != nil {
				return err
			}
			ctl.OpenEdit(u)
			return a.settle(ctl, ctl.UpdateUser(ctx, f.apply(usermgmt.FormFor(u))))
		},
	}
}

func (a *app) cmdUsersDelete() *cli.Command {
	var yes bool
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete a user",
		ArgsUsage: "<email>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation", Destination: &yes},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			ctl, err := a.users(ctx)
			if err != nil {
				return err
			}
			u, err := findUser(ctx, ctl, c.Args().First())
			if err != nil {
				return err
			}
			ctl.RequestDelete(u)
			if !yes && !a.confirm(fmt.Sprintf("Delete %s <%s>? This cannot be undone. [y/N] ", u.Name, u.Email)) {
				ctl.CloseModal()
				return usermgmt.ErrNotConfirmed
			}
			return a.settle(ctl, ctl.ConfirmDelete(ctx))
		},
	}
}

func (a *app) confirm(prompt string) bool {
	fmt.Fprint(a.out, prompt)
	line, _ := bufio.NewReader(a.in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (a *app) cmdUsersToggle() *cli.Command {
	return &cli.Command{
		Name:      "toggle",
		Usage:     "Activate or deactivate a user",
		ArgsUsage: "<email>",
		Action: func(ctx context.Context, c *cli.Command) error {
			ctl, err := a.users(ctx)
			if err != nil {
				return err
			}
			u, err := findUser(ctx, ctl, c.Args().First())
			if err != nil {
				return err
			}
			return a.settle(ctl, ctl.ToggleStatus(ctx, u))
		},
	}
}

func (a *app) cmdUsersNotify() *cli.Command {
	var title, body string
	return &cli.Command{
		Name:      "notify",
		Usage:     "Send a push notification to a user",
		ArgsUsage: "<email>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "Notification title", Destination: &title},
			&cli.StringFlag{Name: "body", Usage: "Notification message", Destination: &body},
			&cli.StringSliceFlag{Name: "data", Usage: "Extra payload as key=value, repeatable"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			data, err := parseData(c.StringSlice("data"))
			if err != nil {
				return err
			}
			ctl, err := a.users(ctx)
			if err != nil {
				return err
			}
			u, err := findUser(ctx, ctl, c.Args().First())
			if err != nil {
				return err
			}
			ctl.OpenNotify(u)
			err = ctl.SendNotification(ctx, usermgmt.NotifyForm{Title: title, Body: body, Data: data})
			if errors.Is(err, usermgmt.ErrEmptyNotification) {
				return usage("--title and --body are required")
			}
			return a.settle(ctl, err)
		},
	}
}

func parseData(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	data := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, usage("--data must be key=value: " + p)
		}
		data[strings.TrimSpace(k)] = v
	}
	return data, nil
}
