package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/portal/internal/api"
	"github.com/Makepad-fr/portal/internal/auth"
	"github.com/Makepad-fr/portal/internal/dashboard"
	"github.com/Makepad-fr/portal/internal/ui"
	"github.com/Makepad-fr/portal/internal/workflow"
)

type dashboardLoadedMsg struct {
	view *dashboard.View
	err  error
}

type requestDoneMsg struct {
	kind workflow.Kind
	err  error
}

type dashboardScreen struct {
	view    *dashboard.View
	loading bool
	err     string
	notice  string

	// selected indexes the recent projects; requests are scoped to it.
	selected int

	modal     *form
	modalKind workflow.Kind
}

func newDashboardScreen() dashboardScreen {
	return dashboardScreen{loading: true, selected: -1}
}

func (a App) loadDashboard() tea.Cmd {
	ctx, agg, session := a.ctx, a.deps.Aggregator, a.deps.Session
	return func() tea.Msg {
		v, err := agg.Load(ctx, session)
		return dashboardLoadedMsg{view: v, err: err}
	}
}

func (a App) selectedProject() (id, title string) {
	v := a.dash.view
	if v == nil || a.dash.selected < 0 || a.dash.selected >= len(v.Projects) {
		return "", ""
	}
	p := v.Projects[a.dash.selected]
	return p.ID, p.Title
}

func (a App) openRequest(kind workflow.Kind) App {
	projectID, projectTitle := a.selectedProject()
	scope := "All projects"
	if projectTitle != "" {
		scope = "Project: " + projectTitle
	}

	switch kind {
	case workflow.KindUpdate:
		a.deps.Update.Open(projectID)
		st := a.deps.Update.State()
		a.dash.modal = newForm("Request an update").
			withHint(scope).
			text("message", "Message", st.Update.Message, workflow.DefaultUpdateMessage).
			checkbox("urgent", "Urgent", st.Update.Urgent)
	case workflow.KindMeeting:
		a.deps.Meeting.Open(projectID)
		st := a.deps.Meeting.State()
		email := st.Meeting.Email
		if email == "" {
			email = a.deps.Session.Email
		}
		a.dash.modal = newForm("Request a meeting").
			withHint(scope).
			text("message", "What would you like to discuss?", st.Meeting.Message, "Required").
			text("email", "Confirmation email", email, "you@example.com")
	}
	a.dash.modalKind = kind
	a.dash.notice = ""
	return a
}

func (a App) submitRequest() tea.Cmd {
	ctx, f, kind := a.ctx, a.dash.modal, a.dash.modalKind
	switch kind {
	case workflow.KindUpdate:
		ctl := a.deps.Update
		in := workflow.UpdateForm{Message: f.value("message"), Urgent: f.checked("urgent")}
		return func() tea.Msg {
			return requestDoneMsg{kind: kind, err: ctl.SubmitUpdate(ctx, in)}
		}
	case workflow.KindMeeting:
		ctl := a.deps.Meeting
		in := workflow.MeetingForm{Message: f.value("message"), Email: f.value("email")}
		return func() tea.Msg {
			return requestDoneMsg{kind: kind, err: ctl.SubmitMeeting(ctx, in)}
		}
	}
	return nil
}

func (a App) controllerFor(kind workflow.Kind) *workflow.Controller {
	if kind == workflow.KindMeeting {
		return a.deps.Meeting
	}
	return a.deps.Update
}

func (a App) updateDashboard(msg tea.Msg) (App, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardLoadedMsg:
		a.dash.loading = false
		if msg.err != nil {
			a.dash.err = api.UserMessage(msg.err, "")
			return a, nil
		}
		a.dash.err = ""
		a.dash.view = msg.view
		if a.dash.selected >= len(msg.view.Projects) {
			a.dash.selected = len(msg.view.Projects) - 1
		}
		return a, nil

	case requestDoneMsg:
		st := a.controllerFor(msg.kind).State()
		if a.dash.modal != nil && a.dash.modalKind == msg.kind {
			a.dash.modal.busy = false
			if !st.Open {
				a.dash.modal = nil
				a.dash.notice = st.Notice
			} else {
				a.dash.modal.err = st.LastError
			}
		}
		return a, nil
	}

	if a.dash.modal != nil {
		res, cmd := a.dash.modal.update(msg)
		switch res {
		case formCancelled:
			a.controllerFor(a.dash.modalKind).Close()
			a.dash.modal = nil
			return a, nil
		case formSubmitted:
			a.dash.modal.busy = true
			a.dash.modal.err = ""
			return a, a.submitRequest()
		}
		return a, cmd
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	client := a.variant == auth.VariantClient
	switch k.String() {
	case "q", "esc":
		return a, tea.Quit
	case "r":
		a.deps.Aggregator.Refresh(a.variant)
		a.dash.loading = true
		a.dash.notice = ""
		return a, a.loadDashboard()
	case "tab":
		return a.switchScreen()
	case "up", "k":
		if client && a.dash.view != nil && a.dash.selected > -1 {
			a.dash.selected--
		}
	case "down", "j":
		if client && a.dash.view != nil && a.dash.selected < len(a.dash.view.Projects)-1 {
			a.dash.selected++
		}
	case "u":
		if client {
			return a.openRequest(workflow.KindUpdate), nil
		}
	case "m":
		if client {
			return a.openRequest(workflow.KindMeeting), nil
		}
	}
	return a, nil
}

func (a App) viewDashboard() string {
	t := ui.Current()
	var parts []string

	switch {
	case a.dash.view == nil && a.dash.err != "":
		parts = append(parts, t.Error.Render(a.dash.err))
	case a.dash.view == nil:
		parts = append(parts, t.Muted.Render("Loading dashboard…"))
	default:
		parts = append(parts, ui.Dashboard(a.dash.view, a.deps.Now()))
		if a.variant == auth.VariantClient {
			if _, title := a.selectedProject(); title != "" {
				parts = append(parts, t.Accent.Render("Selected: "+title))
			}
		}
	}
	if a.dash.loading && a.dash.view != nil {
		parts = append(parts, t.Muted.Render("Refreshing…"))
	}
	if a.dash.notice != "" {
		parts = append(parts, t.Success.Render(t.SymOK+" "+a.dash.notice))
	}
	if a.dash.modal != nil {
		parts = append(parts, a.dash.modal.view(a.width))
	}

	help := "r refresh • q quit"
	if a.variant == auth.VariantClient {
		help = "↑/↓ select project • u request update • m request meeting • " + help
	} else if a.deps.Users != nil {
		help = "tab users • " + help
	}
	parts = append(parts, a.footer(help))
	return strings.Join(parts, "\n")
}
