// Package usermgmt is the admin user list: query state, paging, and the
// create, edit, delete, toggle and notify mutations with their modal and
// per-row state.
package usermgmt

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Makepad-fr/portal/internal/api"
	"github.com/Makepad-fr/portal/internal/logging"
	"github.com/Makepad-fr/portal/internal/model"
	"github.com/Makepad-fr/portal/internal/querycache"
)

var (
	ErrNotConfirmed      = goerr.New("delete was not confirmed")
	ErrNoUserSelected    = goerr.New("no user selected")
	ErrRowBusy           = goerr.New("user status change already in progress")
	ErrMutationInFlight  = goerr.New("another change is being saved")
	ErrEmptyNotification = goerr.New("notification title and body are required")
	ErrInvalidRoleFilter = goerr.New("invalid role filter")
)

// DefaultLimit is the user list page size.
const DefaultLimit = 10

// Query is the server-side list query. Page is always at least 1.
type Query struct {
	Page       int
	Limit      int
	Search     string
	RoleFilter model.Role
}

func (q Query) filter() model.UserFilter {
	return model.UserFilter{Page: q.Page, Limit: q.Limit, Search: q.Search, Role: q.RoleFilter}
}

// Backend is the subset of the REST client user management uses.
type Backend interface {
	ListUsers(ctx context.Context, f model.UserFilter) (*model.UserPage, error)
	CreateUser(ctx context.Context, in model.UserInput) (*model.User, error)
	UpdateUser(ctx context.Context, id string, in model.UserInput) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
	ToggleUserStatus(ctx context.Context, id string) (*model.User, error)
	SendPush(ctx context.Context, push model.PushNotification) error
}

// UserForm is the create/edit form. An empty Password means "unchanged".
type UserForm struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
	Company  string
	Phone    string
}

// Input converts the form to a request body, dropping an empty password so
// the backend never resets it.
func (f UserForm) Input() model.UserInput {
	in := model.UserInput{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Role:    f.Role,
		Company: strings.TrimSpace(f.Company),
		Phone:   strings.TrimSpace(f.Phone),
	}
	if f.Password != "" {
		pw := f.Password
		in.Password = &pw
	}
	return in
}

// FormFor prefills the edit form; the password is left empty.
func FormFor(u model.User) UserForm {
	return UserForm{Name: u.Name, Email: u.Email, Role: u.Role, Company: u.Company, Phone: u.Phone}
}

// NotifyForm is the push notification form.
type NotifyForm struct {
	Title string
	Body  string
	Data  map[string]string
}

// State is a render snapshot of the controller.
type State struct {
	Query       Query
	Users       []model.User
	Pagination  model.Pagination
	Loaded      bool
	LoadError   string
	Modal       ModalState
	Saving      bool
	ModalError  string
	FieldErrors map[string]string
	Notice      string
	ActionError string
	Toggling    map[string]bool
}

// Pages is the page count, never less than 1.
func (s State) Pages() int {
	if s.Pagination.Pages < 1 {
		return 1
	}
	return s.Pagination.Pages
}

// Controller owns the user list. Every mutation round-trips through the
// backend; the list shown is whatever the next Load returns.
type Controller struct {
	backend Backend
	cache   *querycache.Cache
	viewer  model.Role
	opts    querycache.Options

	mu        sync.Mutex
	query     Query
	page      *model.UserPage
	pages     int
	loadErr   error
	modal     ModalState
	saving    bool
	modalErr  error
	notice    string
	toggling  map[string]bool
	actionErr error
}

type Option func(*Controller)

func WithLimit(limit int) Option {
	return func(c *Controller) {
		if limit > 0 {
			c.query.Limit = limit
		}
	}
}

func WithQueryOptions(opts querycache.Options) Option {
	return func(c *Controller) { c.opts = opts }
}

// New creates a controller for a viewer of the given role. The role is part
// of every cache key.
func New(backend Backend, cache *querycache.Cache, viewer model.Role, opts ...Option) *Controller {
	c := &Controller{
		backend:  backend,
		cache:    cache,
		viewer:   viewer,
		query:    Query{Page: 1, Limit: DefaultLimit},
		pages:    1,
		modal:    ModalNone{},
		toggling: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Query:    c.query,
		Modal:    c.modal,
		Saving:   c.saving,
		Notice:   c.notice,
		Toggling: make(map[string]bool, len(c.toggling)),
	}
	for id := range c.toggling {
		s.Toggling[id] = true
	}
	if c.page != nil {
		s.Loaded = true
		s.Users = c.page.Users
		s.Pagination = c.page.Pagination
	}
	if c.loadErr != nil {
		s.LoadError = api.UserMessage(c.loadErr, "")
	}
	if c.actionErr != nil {
		s.ActionError = api.UserMessage(c.actionErr, "")
	}
	switch {
	case errors.Is(c.modalErr, model.ErrInvalidRole):
		s.ModalError = "Role must be client or admin."
	case c.modalErr != nil:
		s.ModalError = api.UserMessage(c.modalErr, "")
		s.FieldErrors = api.FieldErrors(c.modalErr)
	}
	return s
}

func (c *Controller) Query() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

func (c *Controller) key(q Query) querycache.Key {
	return querycache.Key{
		Resource:   querycache.ResourceUsers,
		Role:       c.viewer,
		Page:       q.Page,
		Limit:      q.Limit,
		Search:     q.Search,
		RoleFilter: q.RoleFilter,
	}
}

// SetSearch changes the search term and goes back to page 1.
func (c *Controller) SetSearch(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.Search = strings.TrimSpace(term)
	c.query.Page = 1
	c.pages = 1
}

// SetRoleFilter filters by role (empty for all) and goes back to page 1.
func (c *Controller) SetRoleFilter(role model.Role) error {
	if role != "" {
		if err := role.Validate(); err != nil {
			return goerr.Wrap(ErrInvalidRoleFilter, "set role filter", goerr.V("role", string(role)))
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.RoleFilter = role
	c.query.Page = 1
	c.pages = 1
	return nil
}

// SetPage moves to page n. Pages before the first clamp to 1; pages past the
// last page known for the current filters are ignored. It reports whether the
// page changed.
func (c *Controller) SetPage(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n < 1 {
		n = 1
	}
	if n > c.pages || n == c.query.Page {
		return false
	}
	c.query.Page = n
	return true
}

func (c *Controller) NextPage() bool { return c.SetPage(c.Query().Page + 1) }
func (c *Controller) PrevPage() bool { return c.SetPage(c.Query().Page - 1) }

// Load fetches the current query. When the query changed while the fetch was
// running the result is dropped and Load reports false. When the list shrank
// below the current page, Load moves to the last page and fetches it.
func (c *Controller) Load(ctx context.Context) (bool, error) {
	committed, refetch, err := c.load(ctx)
	if refetch {
		committed, _, err = c.load(ctx)
	}
	return committed, err
}

func (c *Controller) load(ctx context.Context) (committed, refetch bool, err error) {
	q := c.Query()
	r := querycache.Get(ctx, c.cache, c.key(q), func(ctx context.Context) (*model.UserPage, error) {
		return c.backend.ListUsers(ctx, q.filter())
	}, c.opts)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.query != q {
		logging.From(ctx).Debug("dropping stale user list response",
			"page", q.Page, "search", q.Search, "role", string(q.RoleFilter))
		return false, false, nil
	}
	if r.HasValue && r.Value != nil {
		if last := r.Value.Pagination.Pages; last >= 1 && q.Page > last {
			logging.From(ctx).Debug("user list page out of range",
				"page", q.Page, "pages", last)
			c.query.Page = last
			c.pages = last
			return false, true, nil
		}
		c.page = r.Value
		c.pages = max(1, r.Value.Pagination.Pages)
	}
	c.loadErr = r.Err
	if r.Err != nil {
		logging.From(ctx).Warn("user list load failed", "error", r.Err.Error())
		return true, false, goerr.Wrap(r.Err, "load users", goerr.V("page", q.Page))
	}
	return true, false, nil
}

// OpenCreate opens the create-admin modal.
func (c *Controller) OpenCreate() { c.setModal(ModalCreating{}) }

func (c *Controller) OpenEdit(u model.User) { c.setModal(ModalEditing{User: u}) }

// RequestDelete asks for confirmation; nothing is deleted until ConfirmDelete.
func (c *Controller) RequestDelete(u model.User) { c.setModal(ModalDeleting{User: u}) }

func (c *Controller) OpenNotify(u model.User) { c.setModal(ModalNotifying{User: u}) }

func (c *Controller) CloseModal() { c.setModal(ModalNone{}) }

func (c *Controller) setModal(m ModalState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modal = m
	c.modalErr = nil
	c.notice = ""
}

// ClearNotice drops the last success notice once shown.
func (c *Controller) ClearNotice() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notice = ""
	c.actionErr = nil
}

// beginMutation marks a modal mutation as running and returns the active
// modal.
func (c *Controller) beginMutation() (ModalState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saving {
		return nil, ErrMutationInFlight
	}
	c.saving = true
	c.modalErr = nil
	return c.modal, nil
}

// endMutation settles a modal mutation. On success the user list cache is
// invalidated, the modal closed and notice shown; on failure the modal stays
// open with the error.
func (c *Controller) endMutation(ctx context.Context, op string, err error, notice string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saving = false

	if err != nil {
		c.modalErr = err
		logger := logging.From(ctx)
		if fields := api.FieldErrors(err); len(fields) > 0 {
			logger.Warn("user mutation rejected", "op", op, "fields", fields)
		} else {
			logger.Error("user mutation failed", "op", op, "error", err.Error())
		}
		return goerr.Wrap(err, "user mutation failed", goerr.V("op", op))
	}

	c.cache.InvalidateResource(querycache.ResourceUsers)
	c.modal = ModalNone{}
	c.notice = notice
	logging.From(ctx).Info("user mutation done", "op", op)
	return nil
}

// CreateAdmin creates a user with the admin role whatever the form says.
func (c *Controller) CreateAdmin(ctx context.Context, f UserForm) error {
	if _, err := c.beginMutation(); err != nil {
		return err
	}
	in := f.Input()
	in.Role = model.RoleAdmin
	created, err := c.backend.CreateUser(ctx, in)
	notice := "Admin user created."
	if err == nil && created != nil && created.Name != "" {
		notice = "Admin " + created.Name + " created."
	}
	return c.endMutation(ctx, "create-admin", err, notice)
}

// UpdateUser saves the edit modal. The role may change in either direction;
// an empty role leaves it unchanged and an unknown one is rejected before any
// call.
func (c *Controller) UpdateUser(ctx context.Context, f UserForm) error {
	m, err := c.beginMutation()
	if err != nil {
		return err
	}
	editing, ok := m.(ModalEditing)
	if !ok {
		return c.abort(ErrNoUserSelected)
	}
	if f.Role != "" {
		if err := f.Role.Validate(); err != nil {
			return c.reject(err)
		}
	}
	_, err = c.backend.UpdateUser(ctx, editing.User.ID, f.Input())
	return c.endMutation(ctx, "update", err, "User updated.")
}

// ConfirmDelete deletes the user awaiting confirmation. It fails with
// ErrNotConfirmed unless RequestDelete came first.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	m, err := c.beginMutation()
	if err != nil {
		return err
	}
	deleting, ok := m.(ModalDeleting)
	if !ok {
		return c.abort(ErrNotConfirmed)
	}
	err = c.backend.DeleteUser(ctx, deleting.User.ID)
	return c.endMutation(ctx, "delete", err, "User deleted.")
}

// SendNotification pushes a notification to the user of the notify modal.
func (c *Controller) SendNotification(ctx context.Context, f NotifyForm) error {
	if strings.TrimSpace(f.Title) == "" || strings.TrimSpace(f.Body) == "" {
		return ErrEmptyNotification
	}
	m, err := c.beginMutation()
	if err != nil {
		return err
	}
	notifying, ok := m.(ModalNotifying)
	if !ok {
		return c.abort(ErrNoUserSelected)
	}
	err = c.backend.SendPush(ctx, model.PushNotification{
		UserID: notifying.User.ID,
		Title:  strings.TrimSpace(f.Title),
		Body:   strings.TrimSpace(f.Body),
		Data:   f.Data,
	})
	if err != nil {
		return c.endMutation(ctx, "notify", err, "")
	}

	// A push does not change the list.
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saving = false
	c.modal = ModalNone{}
	c.notice = "Notification sent to " + notifying.User.Name + "."
	return nil
}

func (c *Controller) abort(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saving = false
	return err
}

// reject ends a mutation that failed local validation, keeping the modal open
// with the error.
func (c *Controller) reject(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saving = false
	c.modalErr = err
	return err
}

// IsToggling reports whether the status of user id is being changed.
func (c *Controller) IsToggling(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.toggling[id]
}

// ToggleStatus flips a user's active flag. Only that row is locked while the
// call runs; other rows can toggle concurrently.
func (c *Controller) ToggleStatus(ctx context.Context, u model.User) error {
	if u.ID == "" {
		return ErrNoUserSelected
	}
	c.mu.Lock()
	if c.toggling[u.ID] {
		c.mu.Unlock()
		return ErrRowBusy
	}
	c.toggling[u.ID] = true
	c.mu.Unlock()

	updated, err := c.backend.ToggleUserStatus(ctx, u.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.toggling, u.ID)
	if err != nil {
		c.actionErr = err
		logging.From(ctx).Error("toggle status failed", "user", u.ID, "error", err.Error())
		return goerr.Wrap(err, "toggle status", goerr.V("user", u.ID))
	}

	c.actionErr = nil
	c.cache.InvalidateResource(querycache.ResourceUsers)
	active := !u.IsActive
	if updated != nil {
		active = updated.IsActive
	}
	if active {
		c.notice = u.Name + " activated."
	} else {
		c.notice = u.Name + " deactivated."
	}
	return nil
}
