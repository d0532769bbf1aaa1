// Package cli is the portal command line. Without a subcommand it opens the
// interactive dashboard.
package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/Makepad-fr/portal/internal/api"
	"github.com/Makepad-fr/portal/internal/auth"
	"github.com/Makepad-fr/portal/internal/config"
	"github.com/Makepad-fr/portal/internal/logging"
	"github.com/Makepad-fr/portal/internal/model"
	"github.com/Makepad-fr/portal/internal/querycache"
	"github.com/Makepad-fr/portal/internal/telemetry"
	"github.com/Makepad-fr/portal/internal/ui"
)

// ErrUsage marks errors caused by how the command was invoked.
var ErrUsage = goerr.New("usage error")

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// ExitCode maps the error returned by Run to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		return ExitUsage
	}
	return ExitError
}

func usage(msg string) error {
	return goerr.Wrap(ErrUsage, msg)
}

// app carries the configuration and collaborators shared by every command.
type app struct {
	version string
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
	home    string

	source    config.Source
	clientCfg config.Client
	cacheCfg  config.Cache
	loggerCfg config.Logger
	uiCfg     config.UI

	file  *config.File
	store *auth.Store
	cache *querycache.Cache
}

func newApp(version string, in io.Reader, out, errOut io.Writer) *app {
	return &app{version: version, in: in, out: out, errOut: errOut}
}

// Run executes the command line and returns the error of the command, if any.
// Errors are printed before returning.
func Run(ctx context.Context, args []string, version string) error {
	a := newApp(version, os.Stdin, os.Stdout, os.Stderr)
	return a.run(ctx, args)
}

func (a *app) run(ctx context.Context, args []string) error {
	cmd := a.command()
	if err := cmd.Run(ctx, args); err != nil {
		logging.Default().Debug("command failed", "error", err.Error())
		ui.Fail(a.errOut, errorText(err))
		return err
	}
	return nil
}

func (a *app) command() *cli.Command {
	var (
		closer   func()
		shutdown telemetry.Shutdown
	)

	var flags []cli.Flag
	flags = append(flags, a.source.Flags()...)
	flags = append(flags, a.clientCfg.Flags()...)
	flags = append(flags, a.cacheCfg.Flags()...)
	flags = append(flags, a.loggerCfg.Flags()...)
	flags = append(flags, a.uiCfg.Flags()...)

	return &cli.Command{
		Name:      "portal",
		Usage:     "Role-aware client and agency dashboard",
		Version:   a.version,
		Flags:     flags,
		Reader:    a.in,
		Writer:    a.out,
		ErrWriter: a.errOut,
		// Errors are reported by run; never exit from inside the command tree.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := a.source.Configure()
			if err != nil {
				return ctx, err
			}
			a.file = f

			closeLog, err := a.loggerCfg.Configure(f, interactive(c.Args().Slice()))
			if err != nil {
				return ctx, err
			}
			closer = closeLog

			ui.SetTheme(a.uiCfg.Theme(f))

			store, err := auth.NewStore(a.home)
			if err != nil {
				return ctx, err
			}
			a.store = store
			a.cache = a.cacheCfg.Configure(f)

			shutdown = telemetry.Setup(ctx, "portal", a.version)

			logger := logging.Default()
			logger.Debug("Starting portal",
				"logger", &a.loggerCfg,
				slog.Any("api", slog.GroupValue(a.clientCfg.LogAttrs(f)...)),
				"theme", a.uiCfg.Theme(f),
			)
			return logging.With(ctx, logger), nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if shutdown != nil {
				if err := shutdown(ctx); err != nil {
					logging.Default().Warn("failed to flush traces", "error", err.Error())
				}
			}
			if closer != nil {
				closer()
			}
			return nil
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Present() {
				return usage("unknown command: " + c.Args().First())
			}
			return a.runDashboard(ctx, false)
		},
		Commands: []*cli.Command{
			a.cmdDashboard(),
			a.cmdFeed(),
			a.cmdUsers(),
			a.cmdRequest(),
			a.cmdAuth(),
		},
	}
}

// interactive reports whether args start the terminal UI, in which case logs
// must not be written to the terminal.
func interactive(args []string) bool {
	if len(args) == 0 {
		return true
	}
	return slices.Contains([]string{"dashboard", "d"}, args[0]) && !slices.Contains(args[1:], "--plain")
}

// session returns the signed-in session and its dashboard variant.
func (a *app) session(ctx context.Context) (model.Session, auth.Variant, error) {
	state := auth.NewTokenProvider(a.store).State(ctx)
	if state.Session == nil {
		return model.Session{}, "", goerr.Wrap(auth.ErrNotLoggedIn, "run `portal auth login` or set "+auth.TokenEnv)
	}
	return auth.Resolve(state)
}

// client builds the REST client with the stored token.
func (a *app) client() (*api.Client, error) {
	token, err := auth.NewTokenProvider(a.store).Token()
	if err != nil {
		return nil, err
	}
	return a.clientCfg.Configure(a.file, token)
}

func (a *app) requireAdmin(variant auth.Variant) error {
	if variant != auth.VariantAdmin {
		return goerr.New("this command needs an admin account")
	}
	return nil
}

func errorText(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return api.UserMessage(err, api.GenericFailureMessage)
	}
	return err.Error()
}
