// Package tui is the interactive terminal dashboard. The Bubble Tea update
// loop is the only place view state changes; every backend call runs as a
// tea.Cmd and reports back with a message.
package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/m-mizutani/goerr/v2"

	"github.com/Makepad-fr/portal/internal/api"
	"github.com/Makepad-fr/portal/internal/auth"
	"github.com/Makepad-fr/portal/internal/dashboard"
	"github.com/Makepad-fr/portal/internal/model"
	"github.com/Makepad-fr/portal/internal/ui"
	"github.com/Makepad-fr/portal/internal/usermgmt"
	"github.com/Makepad-fr/portal/internal/workflow"
)

// Deps are the controllers the TUI drives. Users is nil for clients.
type Deps struct {
	Session    model.Session
	Aggregator *dashboard.Aggregator
	Users      *usermgmt.Controller
	Update     *workflow.Controller
	Meeting    *workflow.Controller
	Now        func() time.Time
}

type screen int

const (
	screenDashboard screen = iota
	screenUsers
)

// App is the root Bubble Tea model.
type App struct {
	ctx     context.Context
	deps    Deps
	variant auth.Variant

	screen screen
	dash   dashboardScreen
	users  usersScreen

	width, height int
}

// New builds the root model. The session must resolve to a dashboard variant.
func New(ctx context.Context, deps Deps) (App, error) {
	_, variant, err := auth.Resolve(model.AuthState{Session: &deps.Session})
	if err != nil {
		return App{}, err
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	a := App{
		ctx:     ctx,
		deps:    deps,
		variant: variant,
		width:   80,
		height:  24,
	}
	a.dash = newDashboardScreen()
	if deps.Users != nil {
		a.users = newUsersScreen(deps.Users)
	}
	return a, nil
}

// Run starts the program on the alternate screen until the user quits.
func Run(ctx context.Context, deps Deps) error {
	app, err := New(ctx, deps)
	if err != nil {
		return err
	}
	if _, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return goerr.Wrap(err, "terminal UI failed")
	}
	return nil
}

func (a App) Init() tea.Cmd {
	return a.loadDashboard()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.users.setSize(msg.Width, msg.Height)
		return a, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	}

	var cmd tea.Cmd
	switch msg.(type) {
	case dashboardLoadedMsg, requestDoneMsg:
		a, cmd = a.updateDashboard(msg)
		return a, cmd
	case usersLoadedMsg, userMutationMsg, toggleDoneMsg:
		a, cmd = a.updateUsers(msg)
		return a, cmd
	}

	if a.screen == screenUsers {
		a, cmd = a.updateUsers(msg)
	} else {
		a, cmd = a.updateDashboard(msg)
	}
	return a, cmd
}

func (a App) View() string {
	if a.screen == screenUsers {
		return a.viewUsers()
	}
	return a.viewDashboard()
}

func (a App) switchScreen() (App, tea.Cmd) {
	if a.deps.Users == nil {
		return a, nil
	}
	if a.screen == screenDashboard {
		a.screen = screenUsers
		if !a.deps.Users.State().Loaded {
			return a, a.loadUsers()
		}
		return a, nil
	}
	a.screen = screenDashboard
	return a, nil
}

func (a App) footer(help string) string {
	return ui.Current().Help.Render(help)
}

// errorText shows backend failures with their user message and local
// validation errors as they are.
func errorText(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return api.UserMessage(err, "")
	}
	return err.Error()
}
