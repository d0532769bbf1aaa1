package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/portal/internal/model"
	"github.com/Makepad-fr/portal/internal/ui"
	"github.com/Makepad-fr/portal/internal/usermgmt"
)

type usersLoadedMsg struct {
	committed bool
	err       error
}

type userMutationMsg struct {
	err error
}

type toggleDoneMsg struct {
	id  string
	err error
}

// userItem adapts model.User to bubbles/list.
type userItem struct{ user model.User }

func (i userItem) Title() string       { return i.user.Name }
func (i userItem) Description() string { return i.user.Email }
func (i userItem) FilterValue() string { return i.user.Name }

// userDelegate renders one row per user and asks the controller whether the
// row is toggling, so in-flight rows update without rebuilding the list.
type userDelegate struct {
	ctl *usermgmt.Controller
}

func (d userDelegate) Height() int                         { return 1 }
func (d userDelegate) Spacing() int                        { return 0 }
func (d userDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (d userDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(userItem)
	if !ok {
		return
	}
	prefix := "  "
	if index == m.Index() {
		prefix = ui.Current().Selected.Render("> ")
	}
	fmt.Fprint(w, prefix+ui.UserRow(it.user, d.ctl.IsToggling(it.user.ID)))
}

var (
	searchKey = key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search"))
	filterKey = key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "role filter"))
	nextKey   = key.NewBinding(key.WithKeys("n"), key.WithHelp("n/p", "page"))
	createKey = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add admin"))
	editKey   = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	deleteKey = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	toggleKey = key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle active"))
	notifyKey = key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "notify"))
	backKey   = key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "dashboard"))
)

type usersScreen struct {
	list    list.Model
	loading bool

	modal      *form
	searchForm bool
}

func newUsersScreen(ctl *usermgmt.Controller) usersScreen {
	l := list.New(nil, userDelegate{ctl: ctl}, 80, 20)
	l.Title = "Users"
	l.SetShowHelp(true)
	l.SetShowPagination(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = ui.Current().Title
	l.Styles.HelpStyle = ui.Current().Help
	bindings := func() []key.Binding {
		return []key.Binding{searchKey, filterKey, nextKey, createKey, editKey, deleteKey, toggleKey, notifyKey, backKey}
	}
	l.AdditionalShortHelpKeys = bindings
	l.AdditionalFullHelpKeys = bindings
	return usersScreen{list: l}
}

func (s *usersScreen) setSize(w, h int) {
	s.list.SetSize(max(w-4, 20), max(h-10, 5))
}

func (a App) loadUsers() tea.Cmd {
	ctx, ctl := a.ctx, a.deps.Users
	return func() tea.Msg {
		committed, err := ctl.Load(ctx)
		return usersLoadedMsg{committed: committed, err: err}
	}
}

func (a App) reloadUsers() (App, tea.Cmd) {
	a.users.loading = true
	return a, a.loadUsers()
}

func (a App) selectedUser() (model.User, bool) {
	it, ok := a.users.list.SelectedItem().(userItem)
	if !ok {
		return model.User{}, false
	}
	return it.user, true
}

func (a App) syncUsers() App {
	st := a.deps.Users.State()
	items := make([]list.Item, 0, len(st.Users))
	for _, u := range st.Users {
		items = append(items, userItem{user: u})
	}
	idx := a.users.list.Index()
	a.users.list.SetItems(items)
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx >= 0 {
		a.users.list.Select(idx)
	}
	a.users.list.Title = ui.Pager(st)
	return a
}

func (a App) userFormFor(m usermgmt.ModalState) *form {
	switch m := m.(type) {
	case usermgmt.ModalCreating:
		return newForm("Create admin").
			withHint("New users created here are always admins.").
			text("name", "Name", "", "Full name").
			text("email", "Email", "", "admin@example.com").
			secret("password", "Password", "Initial password").
			text("company", "Company", "", "Optional").
			text("phone", "Phone", "", "Optional")
	case usermgmt.ModalEditing:
		f := usermgmt.FormFor(m.User)
		return newForm("Edit "+m.User.Name).
			text("name", "Name", f.Name, "").
			text("email", "Email", f.Email, "").
			secret("password", "Password", "Leave empty to keep the current password").
			text("role", "Role (client or admin)", string(f.Role), "").
			text("company", "Company", f.Company, "").
			text("phone", "Phone", f.Phone, "")
	case usermgmt.ModalDeleting:
		return newForm("Delete user").
			withHint(fmt.Sprintf("Delete %s <%s>? This cannot be undone.", m.User.Name, m.User.Email))
	case usermgmt.ModalNotifying:
		return newForm("Notify "+m.User.Name).
			text("title", "Title", "", "Notification title").
			text("body", "Message", "", "What should they know?")
	}
	return nil
}

func userForm(f *form) usermgmt.UserForm {
	return usermgmt.UserForm{
		Name:     f.value("name"),
		Email:    f.value("email"),
		Password: f.value("password"),
		Role:     model.Role(strings.ToLower(strings.TrimSpace(f.value("role")))),
		Company:  f.value("company"),
		Phone:    f.value("phone"),
	}
}

func (a App) submitUserModal() tea.Cmd {
	ctx, ctl, f := a.ctx, a.deps.Users, a.users.modal
	switch ctl.State().Modal.(type) {
	case usermgmt.ModalCreating:
		in := userForm(f)
		return func() tea.Msg { return userMutationMsg{err: ctl.CreateAdmin(ctx, in)} }
	case usermgmt.ModalEditing:
		in := userForm(f)
		return func() tea.Msg { return userMutationMsg{err: ctl.UpdateUser(ctx, in)} }
	case usermgmt.ModalDeleting:
		return func() tea.Msg { return userMutationMsg{err: ctl.ConfirmDelete(ctx)} }
	case usermgmt.ModalNotifying:
		in := usermgmt.NotifyForm{Title: f.value("title"), Body: f.value("body")}
		return func() tea.Msg { return userMutationMsg{err: ctl.SendNotification(ctx, in)} }
	}
	return nil
}

func (a App) openUserModal(open func(model.User)) (App, tea.Cmd) {
	u, ok := a.selectedUser()
	if !ok {
		return a, nil
	}
	open(u)
	a.users.modal = a.userFormFor(a.deps.Users.State().Modal)
	return a, nil
}

func (a App) updateUsers(msg tea.Msg) (App, tea.Cmd) {
	ctl := a.deps.Users
	if ctl == nil {
		return a, nil
	}

	switch msg := msg.(type) {
	case usersLoadedMsg:
		if !msg.committed {
			return a, nil
		}
		a.users.loading = false
		return a.syncUsers(), nil

	case toggleDoneMsg:
		return a.reloadUsers()

	case userMutationMsg:
		if a.users.modal == nil {
			return a, nil
		}
		a.users.modal.busy = false
		st := ctl.State()
		if _, closed := st.Modal.(usermgmt.ModalNone); closed {
			a.users.modal = nil
			return a.reloadUsers()
		}
		a.users.modal.err = st.ModalError
		if msg.err != nil && st.ModalError == "" {
			a.users.modal.err = errorText(msg.err)
		}
		for field, problem := range st.FieldErrors {
			a.users.modal.err += fmt.Sprintf("\n%s: %s", field, problem)
		}
		return a, nil
	}

	if a.users.modal != nil {
		res, cmd := a.users.modal.update(msg)
		switch res {
		case formCancelled:
			if !a.users.searchForm {
				ctl.CloseModal()
			}
			a.users.modal, a.users.searchForm = nil, false
			return a, nil
		case formSubmitted:
			if a.users.searchForm {
				ctl.SetSearch(a.users.modal.value("search"))
				a.users.modal, a.users.searchForm = nil, false
				return a.reloadUsers()
			}
			a.users.modal.busy = true
			a.users.modal.err = ""
			return a, a.submitUserModal()
		}
		return a, cmd
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "q", "esc":
			return a, tea.Quit
		case "tab":
			return a.switchScreen()
		case "/":
			a.users.modal = newForm("Search users").text("search", "Name or email", ctl.Query().Search, "Search…")
			a.users.searchForm = true
			return a, nil
		case "f":
			next := map[model.Role]model.Role{"": model.RoleClient, model.RoleClient: model.RoleAdmin, model.RoleAdmin: ""}
			if err := ctl.SetRoleFilter(next[ctl.Query().RoleFilter]); err != nil {
				return a, nil
			}
			return a.reloadUsers()
		case "n":
			if ctl.NextPage() {
				return a.reloadUsers()
			}
			return a, nil
		case "p":
			if ctl.PrevPage() {
				return a.reloadUsers()
			}
			return a, nil
		case "a":
			ctl.OpenCreate()
			a.users.modal = a.userFormFor(ctl.State().Modal)
			return a, nil
		case "e":
			return a.openUserModal(ctl.OpenEdit)
		case "d":
			return a.openUserModal(ctl.RequestDelete)
		case "N":
			return a.openUserModal(ctl.OpenNotify)
		case " ":
			u, ok := a.selectedUser()
			if !ok || ctl.IsToggling(u.ID) {
				return a, nil
			}
			ctx := a.ctx
			return a, func() tea.Msg { return toggleDoneMsg{id: u.ID, err: ctl.ToggleStatus(ctx, u)} }
		}
	}

	var cmd tea.Cmd
	a.users.list, cmd = a.users.list.Update(msg)
	return a, cmd
}

func (a App) viewUsers() string {
	t := ui.Current()
	st := a.deps.Users.State()
	var parts []string

	switch {
	case !st.Loaded:
		parts = append(parts, ui.UserTable(st))
	case len(st.Users) == 0:
		parts = append(parts, ui.UserTable(st))
	default:
		parts = append(parts, a.users.list.View())
	}
	if a.users.loading {
		parts = append(parts, t.Muted.Render("Loading…"))
	}
	if st.LoadError != "" && st.Loaded {
		parts = append(parts, t.Error.Render(st.LoadError))
	}
	if st.ActionError != "" {
		parts = append(parts, t.Error.Render(st.ActionError))
	}
	if st.Notice != "" {
		parts = append(parts, t.Success.Render(t.SymOK+" "+st.Notice))
	}
	if a.users.modal != nil {
		parts = append(parts, a.users.modal.view(a.width))
	}
	return strings.Join(parts, "\n")
}
