package cli

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/Makepad-fr/portal/internal/auth"
	"github.com/Makepad-fr/portal/internal/ui"
	"github.com/Makepad-fr/portal/internal/workflow"
)

func (a *app) cmdRequest() *cli.Command {
	return &cli.Command{
		Name:  "request",
		Usage: "Ask the agency for a project update or a meeting (clients only)",
		Commands: []*cli.Command{
			a.cmdRequestUpdate(),
			a.cmdRequestMeeting(),
		},
	}
}

// requestController returns the controller for kind, opened on projectID.
func (a *app) requestController(ctx context.Context, kind workflow.Kind, projectID string) (*workflow.Controller, error) {
	_, variant, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	if variant != auth.VariantClient {
		return nil, usage("requests can only be sent from a client account")
	}
	client, err := a.client()
	if err != nil {
		return nil, err
	}
	ctl := workflow.NewUpdate(client)
	if kind == workflow.KindMeeting {
		ctl = workflow.NewMeeting(client)
	}
	ctl.Open(strings.TrimSpace(projectID))
	return ctl, nil
}

// finish prints the outcome kept in the controller state.
func (a *app) finish(ctl *workflow.Controller, err error) error {
	st := ctl.State()
	if err != nil {
		if st.LastError != "" {
			return goerr.New(st.LastError, goerr.V("cause", err.Error()))
		}
		return err
	}
	ui.OK(a.out, st.Notice)
	return nil
}

func (a *app) cmdRequestUpdate() *cli.Command {
	var (
		project string
		urgent  bool
	)
	return &cli.Command{
		Name:      "update",
		Usage:     "Request a project update",
		ArgsUsage: "[message]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project ID the request is about", Destination: &project},
			&cli.BoolFlag{Name: "urgent", Usage: "Send with high priority", Destination: &urgent},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			message := strings.Join(c.Args().Slice(), " ")
			ctl, err := a.requestController(ctx, workflow.KindUpdate, project)
			if err != nil {
				return err
			}
			return a.finish(ctl, ctl.SubmitUpdate(ctx, workflow.UpdateForm{Message: message, Urgent: urgent}))
		},
	}
}

func (a *app) cmdRequestMeeting() *cli.Command {
	var (
		project string
		email   string
	)
	return &cli.Command{
		Name:      "meeting",
		Usage:     "Request a meeting",
		ArgsUsage: "<message>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project ID the request is about", Destination: &project},
			&cli.StringFlag{Name: "email", Usage: "Where to send the confirmation (defaults to your account email)", Destination: &email},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			message := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(message) == "" {
				return usage("a meeting request needs a message")
			}
			if email == "" {
				if s, _, err := a.session(ctx); err == nil {
					email = s.Email
				}
			}
			ctl, err := a.requestController(ctx, workflow.KindMeeting, project)
			if err != nil {
				return err
			}
			return a.finish(ctl, ctl.SubmitMeeting(ctx, workflow.MeetingForm{Message: message, Email: email}))
		},
	}
}
