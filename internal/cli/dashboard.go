package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/Makepad-fr/portal/internal/auth"
	"github.com/Makepad-fr/portal/internal/dashboard"
	"github.com/Makepad-fr/portal/internal/tui"
	"github.com/Makepad-fr/portal/internal/ui"
	"github.com/Makepad-fr/portal/internal/usermgmt"
	"github.com/Makepad-fr/portal/internal/workflow"
)

func (a *app) cmdDashboard() *cli.Command {
	var plain bool
	return &cli.Command{
		Name:    "dashboard",
		Aliases: []string{"d"},
		Usage:   "Open the dashboard for the signed-in role",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "plain",
				Usage:       "Print the dashboard once instead of opening the terminal UI",
				Destination: &plain,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return a.runDashboard(ctx, plain)
		},
	}
}

func (a *app) cmdFeed() *cli.Command {
	return &cli.Command{
		Name:  "feed",
		Usage: "Print the recent activity feed (clients only)",
		Action: func(ctx context.Context, c *cli.Command) error {
			session, variant, err := a.session(ctx)
			if err != nil {
				return err
			}
			if variant != auth.VariantClient {
				return goerr.New("the activity feed is only available to clients")
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			v, err := dashboard.New(client, a.cache).Load(ctx, session)
			if err != nil {
				return err
			}
			now := time.Now()
			fmt.Fprintln(a.out, ui.Feed(v.Feed(now), now))
			return a.reportPartial(v)
		},
	}
}

func (a *app) runDashboard(ctx context.Context, plain bool) error {
	session, variant, err := a.session(ctx)
	if err != nil {
		return err
	}
	client, err := a.client()
	if err != nil {
		return err
	}
	agg := dashboard.New(client, a.cache)

	if plain {
		v, err := agg.Load(ctx, session)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, ui.Dashboard(v, time.Now()))
		return a.reportPartial(v)
	}

	deps := tui.Deps{
		Session:    session,
		Aggregator: agg,
		Update:     workflow.NewUpdate(client),
		Meeting:    workflow.NewMeeting(client),
		Now:        time.Now,
	}
	if variant == auth.VariantAdmin {
		deps.Users = usermgmt.New(client, a.cache, session.Role, usermgmt.WithLimit(a.uiCfg.PageSize(a.file)))
	}
	return tui.Run(ctx, deps)
}

// reportPartial fails the command when no section could be loaded. A
// partially loaded dashboard is still a success; its warning is already
// part of the rendered output.
func (a *app) reportPartial(v *dashboard.View) error {
	if len(v.Errors) == 0 || len(v.Errors) < len(v.Requested) {
		return nil
	}
	return goerr.Wrap(v.Err(v.Requested[0]), "the dashboard could not be loaded", goerr.V("sections", len(v.Errors)))
}
