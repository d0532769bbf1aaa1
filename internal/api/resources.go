package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Makepad-fr/portal/internal/model"
)

// ProjectPage is one page of the project list.
type ProjectPage struct {
	Projects   []model.Project  `json:"projects"`
	Pagination model.Pagination `json:"pagination"`
}

// NotificationPage is one page of the notification list, most recent first.
type NotificationPage struct {
	Notifications []model.Notification `json:"notifications"`
	Pagination    model.Pagination     `json:"pagination"`
	UnreadCount   int                  `json:"unreadCount"`
}

// DashboardStats is the client dashboard stats response. The figures the
// dashboard shows live under "overview".
type DashboardStats struct {
	Overview model.Overview `json:"overview"`
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

func (c *Client) ListUsers(ctx context.Context, f model.UserFilter) (*model.UserPage, error) {
	q := pageQuery(f.Page, f.Limit)
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Role != "" {
		q.Set("role", string(f.Role))
	}
	var out model.UserPage
	if err := c.do(ctx, http.MethodGet, "/users", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateUser(ctx context.Context, in model.UserInput) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodPost, "/users", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, in model.UserInput) (*model.User, error) {
	if id == "" {
		return nil, goerr.Wrap(ErrMissingID, "update user")
	}
	var out model.User
	if err := c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return goerr.Wrap(ErrMissingID, "delete user")
	}
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ToggleUserStatus(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, goerr.Wrap(ErrMissingID, "toggle user status")
	}
	var out model.User
	if err := c.do(ctx, http.MethodPatch, "/users/"+url.PathEscape(id)+"/toggle-status", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListProjects(ctx context.Context, page, limit int) (*ProjectPage, error) {
	var out ProjectPage
	if err := c.do(ctx, http.MethodGet, "/projects", pageQuery(page, limit), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ProjectDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var out DashboardStats
	if err := c.do(ctx, http.MethodGet, "/project-stats/dashboard", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminStats returns the admin stats block, which is already the overview.
func (c *Client) AdminStats(ctx context.Context) (*model.Overview, error) {
	var out model.Overview
	if err := c.do(ctx, http.MethodGet, "/admin/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListNotifications(ctx context.Context, page, limit int) (*NotificationPage, error) {
	var out NotificationPage
	if err := c.do(ctx, http.MethodGet, "/notifications", pageQuery(page, limit), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRequest records an update or meeting request as a notification.
func (c *Client) CreateRequest(ctx context.Context, payload model.RequestPayload) (*model.RequestReceipt, error) {
	var out model.RequestReceipt
	if err := c.do(ctx, http.MethodPost, "/notifications/request", nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendPush(ctx context.Context, push model.PushNotification) error {
	return c.do(ctx, http.MethodPost, "/notifications/push", nil, push, nil)
}
