package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/Makepad-fr/portal/internal/api"
	"github.com/Makepad-fr/portal/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *api.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := api.New(srv.URL+"/api", api.WithHTTPClient(srv.Client()), api.WithToken("tok"))
	gt.NoError(t, err).Required()
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := api.New("ftp://example.com")
	gt.Error(t, err).Is(api.ErrInvalidBaseURL)
}

func TestListUsers_OmitsEmptyFilters(t *testing.T) {
	var gotQuery map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.URL.Path).Equal("/api/users")
		gt.Value(t, r.Header.Get("Authorization")).Equal("Bearer tok")
		gt.String(t, r.Header.Get("X-Request-ID")).NotEqual("")
		gotQuery = r.URL.Query()
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"users":      []map[string]any{{"_id": "u1", "name": "Ann", "role": "client", "isActive": true}},
				"pagination": map[string]any{"page": 1, "limit": 10, "total": 1, "pages": 1},
			},
		})
	})

	page, err := c.ListUsers(context.Background(), model.UserFilter{Page: 1, Limit: 10})
	gt.NoError(t, err).Required()
	gt.Array(t, page.Users).Length(1)
	gt.Value(t, page.Users[0].ID).Equal("u1")
	gt.Value(t, page.Pagination.Total).Equal(1)

	_, hasSearch := gotQuery["search"]
	_, hasRole := gotQuery["role"]
	gt.Bool(t, hasSearch).False()
	gt.Bool(t, hasRole).False()
	gt.Value(t, gotQuery["page"][0]).Equal("1")
}

func TestListUsers_SendsFilters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.URL.Query().Get("search")).Equal("ann")
		gt.Value(t, r.URL.Query().Get("role")).Equal("admin")
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"users": []any{}}})
	})

	page, err := c.ListUsers(context.Background(), model.UserFilter{Page: 2, Limit: 10, Search: "ann", Role: model.RoleAdmin})
	gt.NoError(t, err).Required()
	gt.Array(t, page.Users).Length(0)
}

func TestFailureEnvelope(t *testing.T) {
	t.Run("message and field errors", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"message": "Validation failed",
				"errors":  []map[string]string{{"path": "email", "msg": "Email already in use"}},
			})
		})

		_, err := c.CreateUser(context.Background(), model.UserInput{Name: "x"})
		gt.Value(t, err).NotNil()

		var apiErr *api.Error
		gt.Bool(t, errors.As(err, &apiErr)).True()
		gt.Value(t, apiErr.Status).Equal(http.StatusBadRequest)
		gt.Bool(t, apiErr.IsValidation()).True()
		gt.Value(t, apiErr.Fields["email"]).Equal("Email already in use")
		gt.Value(t, api.UserMessage(err, "fallback")).Equal("Validation failed")
	})

	t.Run("missing message falls back", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		err := c.DeleteUser(context.Background(), "u1")
		gt.Value(t, err).NotNil()
		gt.Value(t, api.UserMessage(err, "Failed to delete user")).Equal("Failed to delete user")
		gt.Value(t, api.UserMessage(err, "")).Equal(api.GenericFailureMessage)
	})

	t.Run("success false with 200", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "nope"})
		})

		_, err := c.AdminStats(context.Background())
		gt.Value(t, api.UserMessage(err, "x")).Equal("nope")
	})
}

func TestUpdateUser_BodyWithoutPassword(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.Method).Equal(http.MethodPut)
		gt.Value(t, r.URL.Path).Equal("/api/users/u9")
		raw, err := io.ReadAll(r.Body)
		gt.NoError(t, err).Required()
		var body map[string]any
		gt.NoError(t, json.Unmarshal(raw, &body)).Required()
		_, has := body["password"]
		gt.Bool(t, has).False()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"_id": "u9"}})
	})

	u, err := c.UpdateUser(context.Background(), "u9", model.UserInput{Name: "Bob", Role: model.RoleClient})
	gt.NoError(t, err).Required()
	gt.Value(t, u.ID).Equal("u9")
}

func TestUpdateUser_RequiresID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := c.UpdateUser(context.Background(), "", model.UserInput{})
	gt.Error(t, err).Is(api.ErrMissingID)
}

func TestDashboardStats_Overview(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.URL.Path).Equal("/api/project-stats/dashboard")
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"overview": map[string]any{"totalProjects": 4, "averageProgress": 62.5},
			},
		})
	})

	stats, err := c.ProjectDashboardStats(context.Background())
	gt.NoError(t, err).Required()
	gt.Value(t, stats.Overview.TotalProjects).Equal(4)
	gt.Value(t, stats.Overview.AverageProgress).Equal(62.5)
}

func TestCreateRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.URL.Path).Equal("/api/notifications/request")
		var body model.RequestPayload
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&body)).Required()
		gt.Value(t, body.Type).Equal(model.RequestMeeting)
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": map[string]any{"_id": "n1", "emailSent": true}})
	})

	receipt, err := c.CreateRequest(context.Background(), model.RequestPayload{Type: model.RequestMeeting, Email: "a@b.c"})
	gt.NoError(t, err).Required()
	gt.Bool(t, receipt.EmailSent).True()
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := api.New(srv.URL)
	gt.NoError(t, err).Required()

	_, err = c.ListProjects(context.Background(), 1, 5)
	var apiErr *api.Error
	gt.Bool(t, errors.As(err, &apiErr)).True()
	gt.Bool(t, apiErr.IsNetwork()).True()
	gt.Value(t, api.UserMessage(err, "offline")).Equal("offline")
}
