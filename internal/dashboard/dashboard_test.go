package dashboard_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/Makepad-fr/portal/internal/api"
	"github.com/Makepad-fr/portal/internal/auth"
	"github.com/Makepad-fr/portal/internal/dashboard"
	"github.com/Makepad-fr/portal/internal/model"
	"github.com/Makepad-fr/portal/internal/querycache"
)

type mockBackend struct {
	mu    sync.Mutex
	calls map[string]int

	statsErr         error
	projectsErr      error
	notificationsErr error
	projects         []model.Project
}

func newMockBackend() *mockBackend {
	return &mockBackend{calls: map[string]int{}}
}

func (m *mockBackend) count(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[name]++
}

func (m *mockBackend) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *mockBackend) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *mockBackend) AdminStats(ctx context.Context) (*model.Overview, error) {
	m.count("admin-stats")
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	return &model.Overview{TotalUsers: 12, ActiveUsers: 10, AverageProgress: 41.6}, nil
}

func (m *mockBackend) ProjectDashboardStats(ctx context.Context) (*api.DashboardStats, error) {
	m.count("dashboard-stats")
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	return &api.DashboardStats{Overview: model.Overview{TotalProjects: 3, AverageProgress: 66.5}}, nil
}

func (m *mockBackend) ListProjects(ctx context.Context, page, limit int) (*api.ProjectPage, error) {
	m.count("projects")
	if limit != dashboard.RecentLimit {
		return nil, errors.New("unexpected limit")
	}
	if m.projectsErr != nil {
		return nil, m.projectsErr
	}
	return &api.ProjectPage{Projects: m.projects}, nil
}

func (m *mockBackend) ListNotifications(ctx context.Context, page, limit int) (*api.NotificationPage, error) {
	m.count("notifications")
	if m.notificationsErr != nil {
		return nil, m.notificationsErr
	}
	return &api.NotificationPage{
		Notifications: []model.Notification{{ID: "n1", Title: "Hi", CreatedAt: time.Now()}},
		UnreadCount:   1,
	}, nil
}

var (
	adminSession  = model.Session{UserID: "a1", Role: model.RoleAdmin}
	clientSession = model.Session{UserID: "c1", Role: model.RoleClient}
)

func TestLoad_AdminFetchesOnlyStats(t *testing.T) {
	backend := newMockBackend()
	agg := dashboard.New(backend, querycache.New())

	view, err := agg.Load(context.Background(), adminSession)
	gt.NoError(t, err).Required()

	gt.Value(t, backend.Total()).Equal(1)
	gt.Value(t, backend.Calls("admin-stats")).Equal(1)
	gt.Value(t, view.Variant).Equal(auth.VariantAdmin)
	gt.Bool(t, view.HasOverview).True()
	gt.Value(t, view.Overview.TotalUsers).Equal(12)
	gt.Array(t, view.Projects).Length(0)
	gt.Array(t, view.Notifications).Length(0)
	gt.Array(t, view.Requested).Length(1)
	gt.Array(t, view.Feed(time.Now())).Length(0)
}

func TestLoad_ClientFetchesThreeResources(t *testing.T) {
	backend := newMockBackend()
	backend.projects = []model.Project{{ID: "p1", Title: "Site", Deadline: time.Now().Add(48 * time.Hour)}}
	agg := dashboard.New(backend, querycache.New())

	view, err := agg.Load(context.Background(), clientSession)
	gt.NoError(t, err).Required()

	gt.Value(t, backend.Total()).Equal(3)
	gt.Value(t, backend.Calls("admin-stats")).Equal(0)
	gt.Value(t, backend.Calls("dashboard-stats")).Equal(1)
	gt.Value(t, backend.Calls("projects")).Equal(1)
	gt.Value(t, backend.Calls("notifications")).Equal(1)

	gt.Value(t, view.Variant).Equal(auth.VariantClient)
	gt.Value(t, view.Overview.TotalProjects).Equal(3)
	gt.Value(t, view.Overview.AverageProgressPercent()).Equal(67)
	gt.Value(t, view.Overview.AverageProgress).Equal(66.5)
	gt.Array(t, view.Projects).Length(1)
	gt.Value(t, view.UnreadCount).Equal(1)
	gt.Bool(t, view.Partial()).False()
	gt.Array(t, view.Feed(time.Now())).Length(2)
}

func TestLoad_PartialResults(t *testing.T) {
	backend := newMockBackend()
	backend.projectsErr = errors.New("projects down")
	agg := dashboard.New(backend, querycache.New())

	view, err := agg.Load(context.Background(), clientSession)
	gt.NoError(t, err).Required()

	gt.Bool(t, view.Partial()).True()
	gt.Value(t, view.Err(querycache.ResourceProjects)).NotNil()
	gt.Value(t, view.Err(querycache.ResourceNotifications)).Nil()
	gt.Bool(t, view.HasOverview).True()
	gt.Array(t, view.Notifications).Length(1)
	gt.Array(t, view.Projects).Length(0)
}

func TestLoad_CachedUntilRefresh(t *testing.T) {
	backend := newMockBackend()
	agg := dashboard.New(backend, querycache.New())

	_, err := agg.Load(context.Background(), clientSession)
	gt.NoError(t, err).Required()
	_, err = agg.Load(context.Background(), clientSession)
	gt.NoError(t, err).Required()
	gt.Value(t, backend.Total()).Equal(3)

	agg.Refresh(auth.VariantClient)
	_, err = agg.Load(context.Background(), clientSession)
	gt.NoError(t, err).Required()
	gt.Value(t, backend.Total()).Equal(6)
}

func TestLoad_FailureKeepsPreviousData(t *testing.T) {
	backend := newMockBackend()
	backend.projects = []model.Project{{ID: "p1"}}
	agg := dashboard.New(backend, querycache.New())

	_, err := agg.Load(context.Background(), clientSession)
	gt.NoError(t, err).Required()

	backend.projectsErr = errors.New("flaky")
	agg.Refresh(auth.VariantClient)

	view, err := agg.Load(context.Background(), clientSession)
	gt.NoError(t, err).Required()
	gt.Value(t, view.Err(querycache.ResourceProjects)).NotNil()
	gt.Array(t, view.Projects).Length(1)
}

func TestLoad_UnknownRole(t *testing.T) {
	backend := newMockBackend()
	agg := dashboard.New(backend, querycache.New())

	_, err := agg.Load(context.Background(), model.Session{UserID: "x", Role: "guest"})
	gt.Error(t, err).Is(auth.ErrUnknownRole)
	gt.Value(t, backend.Total()).Equal(0)
}

func TestFetchSet(t *testing.T) {
	gt.Array(t, dashboard.FetchSet(auth.VariantAdmin)).Length(1)
	gt.Array(t, dashboard.FetchSet(auth.VariantClient)).Length(3)
}
