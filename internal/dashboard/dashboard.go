package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Makepad-fr/portal/internal/api"
	"github.com/Makepad-fr/portal/internal/auth"
	"github.com/Makepad-fr/portal/internal/feed"
	"github.com/Makepad-fr/portal/internal/logging"
	"github.com/Makepad-fr/portal/internal/model"
	"github.com/Makepad-fr/portal/internal/querycache"
)

// RecentLimit is how many projects and notifications the client dashboard shows.
const RecentLimit = 5

// Backend is the subset of the REST client the dashboard reads from.
type Backend interface {
	AdminStats(ctx context.Context) (*model.Overview, error)
	ProjectDashboardStats(ctx context.Context) (*api.DashboardStats, error)
	ListProjects(ctx context.Context, page, limit int) (*api.ProjectPage, error)
	ListNotifications(ctx context.Context, page, limit int) (*api.NotificationPage, error)
}

// View is the unified dashboard view model. Errors holds per-resource fetch
// failures; the other fields still carry whatever could be loaded.
type View struct {
	Variant       auth.Variant
	Session       model.Session
	Overview      model.Overview
	HasOverview   bool
	Projects      []model.Project
	Notifications []model.Notification
	UnreadCount   int
	Requested     []querycache.Resource
	Errors        map[querycache.Resource]error
	LoadedAt      time.Time
}

// Err returns the fetch failure of resource, if any.
func (v *View) Err(resource querycache.Resource) error {
	return v.Errors[resource]
}

// Partial reports whether at least one resource failed.
func (v *View) Partial() bool { return len(v.Errors) > 0 }

// Feed synthesizes the client activity feed; admins have none.
func (v *View) Feed(now time.Time) []model.FeedItem {
	if v.Variant != auth.VariantClient {
		return nil
	}
	return feed.Synthesize(v.Projects, v.Notifications, now)
}

// loader fetches one resource and returns how to apply it to the view.
type loader func(ctx context.Context, a *Aggregator, role model.Role) (apply func(*View), err error)

// fetchSets is the single place a dashboard variant maps to its resources.
var fetchSets = map[auth.Variant][]querycache.Resource{
	auth.VariantAdmin:  {querycache.ResourceAdminStats},
	auth.VariantClient: {querycache.ResourceDashboardStats, querycache.ResourceProjects, querycache.ResourceNotifications},
}

var loaders = map[querycache.Resource]loader{
	querycache.ResourceAdminStats:     loadAdminStats,
	querycache.ResourceDashboardStats: loadDashboardStats,
	querycache.ResourceProjects:       loadProjects,
	querycache.ResourceNotifications:  loadNotifications,
}

// FetchSet lists the resources a variant loads.
func FetchSet(v auth.Variant) []querycache.Resource {
	return append([]querycache.Resource(nil), fetchSets[v]...)
}

// Aggregator orchestrates the role specific fetch set.
type Aggregator struct {
	backend Backend
	cache   *querycache.Cache
	opts    querycache.Options
	now     func() time.Time
}

type Option func(*Aggregator)

func WithQueryOptions(opts querycache.Options) Option {
	return func(a *Aggregator) { a.opts = opts }
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func New(backend Backend, cache *querycache.Cache, opts ...Option) *Aggregator {
	a := &Aggregator{backend: backend, cache: cache, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Load fetches the session's resource set. Each resource is cached and fails
// independently, so a failure only shows up in View.Errors.
func (a *Aggregator) Load(ctx context.Context, session model.Session) (*View, error) {
	_, variant, err := auth.Resolve(model.AuthState{Session: &session})
	if err != nil {
		return nil, err
	}

	resources := fetchSets[variant]
	view := &View{
		Variant:   variant,
		Session:   session,
		Requested: append([]querycache.Resource(nil), resources...),
		Errors:    make(map[querycache.Resource]error),
	}

	applies := make([]func(*View), len(resources))
	errs := make([]error, len(resources))

	var eg errgroup.Group
	for i, res := range resources {
		eg.Go(func() error {
			applies[i], errs[i] = loaders[res](ctx, a, session.Role)
			return nil
		})
	}
	_ = eg.Wait()

	for i, res := range resources {
		if applies[i] != nil {
			applies[i](view)
		}
		if errs[i] != nil {
			view.Errors[res] = errs[i]
			logging.From(ctx).Warn("dashboard resource failed",
				"resource", string(res),
				"variant", string(variant),
				"error", errs[i].Error())
		}
	}
	view.LoadedAt = a.now()
	return view, nil
}

// Refresh invalidates every cached resource of the variant.
func (a *Aggregator) Refresh(variant auth.Variant) {
	for _, res := range fetchSets[variant] {
		a.cache.InvalidateResource(res)
	}
}

func keyFor(res querycache.Resource, role model.Role) querycache.Key {
	k := querycache.Key{Resource: res, Role: role}
	if res == querycache.ResourceProjects || res == querycache.ResourceNotifications {
		k.Limit = RecentLimit
	}
	return k
}

func loadAdminStats(ctx context.Context, a *Aggregator, role model.Role) (func(*View), error) {
	r := querycache.Get(ctx, a.cache, keyFor(querycache.ResourceAdminStats, role),
		func(ctx context.Context) (*model.Overview, error) { return a.backend.AdminStats(ctx) },
		a.opts)
	if !r.HasValue || r.Value == nil {
		return nil, r.Err
	}
	stats := *r.Value
	return func(v *View) {
		v.Overview = stats
		v.HasOverview = true
	}, r.Err
}

func loadDashboardStats(ctx context.Context, a *Aggregator, role model.Role) (func(*View), error) {
	r := querycache.Get(ctx, a.cache, keyFor(querycache.ResourceDashboardStats, role),
		func(ctx context.Context) (*api.DashboardStats, error) { return a.backend.ProjectDashboardStats(ctx) },
		a.opts)
	if !r.HasValue || r.Value == nil {
		return nil, r.Err
	}
	stats := r.Value.Overview
	return func(v *View) {
		v.Overview = stats
		v.HasOverview = true
	}, r.Err
}

func loadProjects(ctx context.Context, a *Aggregator, role model.Role) (func(*View), error) {
	r := querycache.Get(ctx, a.cache, keyFor(querycache.ResourceProjects, role),
		func(ctx context.Context) (*api.ProjectPage, error) { return a.backend.ListProjects(ctx, 0, RecentLimit) },
		a.opts)
	if !r.HasValue || r.Value == nil {
		return nil, r.Err
	}
	projects := r.Value.Projects
	return func(v *View) { v.Projects = projects }, r.Err
}

func loadNotifications(ctx context.Context, a *Aggregator, role model.Role) (func(*View), error) {
	r := querycache.Get(ctx, a.cache, keyFor(querycache.ResourceNotifications, role),
		func(ctx context.Context) (*api.NotificationPage, error) {
			return a.backend.ListNotifications(ctx, 0, RecentLimit)
		},
		a.opts)
	if !r.HasValue || r.Value == nil {
		return nil, r.Err
	}
	page := r.Value
	return func(v *View) {
		v.Notifications = page.Notifications
		v.UnreadCount = page.UnreadCount
	}, r.Err
}
