package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/m-mizutani/gt"

	"github.com/Makepad-fr/portal/internal/auth"
	"github.com/Makepad-fr/portal/internal/cli"
	"github.com/Makepad-fr/portal/internal/model"
	"github.com/Makepad-fr/portal/internal/usermgmt"
)

func token(t *testing.T, role model.Role) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "u-" + string(role),
		"role":   string(role),
		"email":  string(role) + "@example.com",
		"name":   "Cleo",
	}).SignedString([]byte("test-secret"))
	gt.NoError(t, err).Required()
	return tok
}

// backend is a fake REST server that records every call.
type backend struct {
	mu     sync.Mutex
	calls  []string
	bodies map[string][]byte
	srv    *httptest.Server
}

func newBackend(t *testing.T, routes map[string]any) *backend {
	t.Helper()
	b := &backend{bodies: map[string][]byte{}}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path
		var body bytes.Buffer
		_, _ = body.ReadFrom(r.Body)

		b.mu.Lock()
		b.calls = append(b.calls, route)
		b.bodies[route] = body.Bytes()
		b.mu.Unlock()

		data, ok := routes[route]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "no route " + route})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) called(route string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.calls {
		if c == route {
			return true
		}
	}
	return false
}

type result struct {
	err    error
	out    string
	errOut string
}

func run(t *testing.T, b *backend, stdin string, args ...string) result {
	t.Helper()
	base := []string{"portal", "--theme", "mono", "--log-level", "error"}
	if b != nil {
		base = append(base, "--base-url", b.srv.URL+"/api")
	}
	var out, errOut bytes.Buffer
	err := cli.RunForTest(context.Background(), append(base, args...), strings.NewReader(stdin), &out, &errOut)
	return result{err: err, out: out.String(), errOut: errOut.String()}
}

func setup(t *testing.T, tok string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PORTAL_CONFIG", "")
	t.Setenv(auth.TokenEnv, tok)
}

var adaPage = map[string]any{
	"users": []map[string]any{
		{"_id": "u1", "name": "Ada Lovelace", "email": "ada@example.com", "role": "client", "isActive": true},
	},
	"pagination": map[string]any{"page": 1, "limit": 10, "total": 1, "pages": 1},
}

func TestExitCode(t *testing.T) {
	gt.Value(t, cli.ExitCode(nil)).Equal(0)
	gt.Value(t, cli.ExitCode(errors.New("boom"))).Equal(1)
	gt.Value(t, cli.ExitCode(cli.ErrUsage)).Equal(2)
}

func TestInteractive(t *testing.T) {
	gt.Bool(t, cli.Interactive(nil)).True()
	gt.Bool(t, cli.Interactive([]string{"dashboard"})).True()
	gt.Bool(t, cli.Interactive([]string{"d"})).True()
	gt.Bool(t, cli.Interactive([]string{"dashboard", "--plain"})).False()
	gt.Bool(t, cli.Interactive([]string{"users", "ls"})).False()
}

func TestAuth_LoginStatusLogout(t *testing.T) {
	setup(t, "")
	tok := token(t, model.RoleAdmin)

	r := run(t, nil, "", "auth", "login", tok)
	gt.NoError(t, r.err).Required()
	gt.String(t, r.out).Contains("logged in")

	r = run(t, nil, "", "auth", "status")
	gt.NoError(t, r.err)
	gt.String(t, r.out).Contains("source: file")

	r = run(t, nil, "", "auth", "whoami")
	gt.NoError(t, r.err)
	gt.String(t, r.out).Contains("role:  admin")

	r = run(t, nil, "", "auth", "logout")
	gt.NoError(t, r.err)
	gt.String(t, r.out).Contains("logged out")

	r = run(t, nil, "", "auth", "status")
	gt.NoError(t, r.err)
	gt.String(t, r.out).Contains("not logged in")
}

func TestAuth_LoginFromStdin(t *testing.T) {
	setup(t, "")
	r := run(t, nil, token(t, model.RoleClient)+"\n", "auth", "login")
	gt.NoError(t, r.err).Required()
	gt.String(t, r.out).Contains("Paste your token")

	r = run(t, nil, "", "auth", "whoami")
	gt.String(t, r.out).Contains("role:  client")
}

func TestDashboard_NotLoggedIn(t *testing.T) {
	setup(t, "")
	r := run(t, nil, "", "dashboard", "--plain")
	gt.Error(t, r.err).Is(auth.ErrNotLoggedIn)
	gt.Value(t, cli.ExitCode(r.err)).Equal(1)
}

func TestDashboardPlain_Client(t *testing.T) {
	setup(t, token(t, model.RoleClient))
	b := newBackend(t, map[string]any{
		"GET /api/project-stats/dashboard": map[string]any{"overview": map[string]any{"totalProjects": 1, "averageProgress": 40}},
		"GET /api/projects":                map[string]any{"projects": []map[string]any{{"_id": "p1", "title": "Website", "status": "in-progress", "progress": 40}}},
		"GET /api/notifications":           map[string]any{"notifications": []any{}},
	})

	r := run(t, b, "", "dashboard", "--plain")
	gt.NoError(t, r.err).Required()
	gt.String(t, r.out).Contains("Welcome back, Cleo")
	gt.String(t, r.out).Contains("Website")
}

func TestDashboardPlain_AllSectionsFail(t *testing.T) {
	setup(t, token(t, model.RoleAdmin))
	b := newBackend(t, map[string]any{})

	r := run(t, b, "", "dashboard", "--plain")
	gt.Value(t, r.err).NotNil()
	gt.Value(t, cli.ExitCode(r.err)).Equal(1)
	gt.String(t, r.out).Contains("1 of 1 sections could not be loaded.")
}

func TestFeed_AdminIsRejected(t *testing.T) {
	setup(t, token(t, model.RoleAdmin))
	r := run(t, nil, "", "feed")
	gt.Value(t, r.err).NotNil()
	gt.String(t, r.errOut).Contains("only available to clients")
}

func TestUsers_RequiresAdmin(t *testing.T) {
	setup(t, token(t, model.RoleClient))
	b := newBackend(t, map[string]any{"GET /api/users": adaPage})

	r := run(t, b, "", "users", "ls")
	gt.Value(t, r.err).NotNil()
	gt.String(t, r.errOut).Contains("admin account")
	gt.Bool(t, b.called("GET /api/users")).False()
}

func TestUsersList(t *testing.T) {
	setup(t, token(t, model.RoleAdmin))
	b := newBackend(t, map[string]any{"GET /api/users": adaPage})

	r := run(t, b, "", "users", "ls", "--role", "client")
	gt.NoError(t, r.err).Required()
	gt.String(t, r.out).Contains("Ada Lovelace")
	gt.String(t, r.out).Contains("Page 1 of 1")
}

func TestUsersList_BadRole(t *testing.T) {
	setup(t, token(t, model.RoleAdmin))
	b := newBackend(t, map[string]any{"GET /api/users": adaPage})

	r := run(t, b, "", "users", "ls", "--role", "owner")
	gt.Value(t, cli.ExitCode(r.err)).Equal(2)
}

func TestUsersToggle(t *testing.T) {
	setup(t, token(t, model.RoleAdmin))
	b := newBackend(t, map[string]any{
		"GET /api/users":                    adaPage,
		"PATCH /api/users/u1/toggle-status": map[string]any{"_id": "u1", "name": "Ada Lovelace", "isActive": false},
	})

	r := run(t, b, "", "users", "toggle", "ada@example.com")
	gt.NoError(t, r.err).Required()
	gt.String(t, r.out).Contains("Ada Lovelace deactivated.")
}

func TestUsersToggle_UnknownEmail(t *testing.T) {
	setup(t, token(t, model.RoleAdmin))
	b := newBackend(t, map[string]any{"GET /api/users": adaPage})

	r := run(t, b, "", "users", "toggle", "nobody@example.com")
	gt.Error(t, r.err).Is(cli.ErrUserNotFound)
}

func TestUsersDelete_Declined(t *testing.T) {
	setup(t, token(t, model.RoleAdmin))
	b := newBackend(t, map[string]any{"GET /api/users": adaPage, "DELETE /api/users/u1": nil})

	r := run(t, b, "n\n", "users", "delete", "ada@example.com")
	gt.Error(t, r.err).Is(usermgmt.ErrNotConfirmed)
	gt.Bool(t, b.called("DELETE /api/users/u1")).False()
}

func TestUsersDelete_Confirmed(t *testing.T) {
	setup(t, token(t, model.RoleAdmin))
	b := newBackend(t, map[string]any{"GET /api/users": adaPage, "DELETE /api/users/u1": nil})

	r := run(t, b, "y\n", "users", "delete", "ada@example.com")
	gt.NoError(t, r.err).Required()
	gt.Bool(t, b.called("DELETE /api/users/u1")).True()
	gt.String(t, r.out).Contains("User deleted.")
}

func TestUsersUpdate_KeepsUnsetFields(t *testing.T) {
	setup(t, token(t, model.RoleAdmin))
	b := newBackend(t, map[string]any{"GET /api/users": adaPage, "PUT /api/users/u1": map[string]any{"_id": "u1"}})

	r := run(t, b, "", "users", "update", "--role", "admin", "ada@example.com")
	gt.NoError(t, r.err).Required()

	var body map[string]any
	gt.NoError(t, json.Unmarshal(b.bodies["PUT /api/users/u1"], &body)).Required()
	gt.Value(t, body["name"]).Equal("Ada Lovelace")
	gt.Value(t, body["role"]).Equal("admin")
	_, hasPassword := body["password"]
	gt.Bool(t, hasPassword).False()
}

func TestUsersNotify_BadData(t *testing.T) {
	setup(t, token(t, model.RoleAdmin))
	r := run(t, nil, "", "users", "notify", "--title", "Hi", "--body", "Yo", "--data", "novalue", "ada@example.com")
	gt.Value(t, cli.ExitCode(r.err)).Equal(2)
}

func TestRequestUpdate(t *testing.T) {
	setup(t, token(t, model.RoleClient))
	b := newBackend(t, map[string]any{"POST /api/notifications/request": map[string]any{"_id": "r1"}})

	r := run(t, b, "", "request", "update", "--project", "p1", "--urgent", "any", "news?")
	gt.NoError(t, r.err).Required()
	gt.String(t, r.out).Contains("Update request sent")

	var payload model.RequestPayload
	gt.NoError(t, json.Unmarshal(b.bodies["POST /api/notifications/request"], &payload)).Required()
	gt.Value(t, payload.Message).Equal("📋 any news?")
	gt.Value(t, payload.RelatedProject).Equal("p1")
	gt.Value(t, payload.Priority).Equal(model.PriorityHigh)
}

func TestRequestMeeting_RequiresMessage(t *testing.T) {
	setup(t, token(t, model.RoleClient))
	b := newBackend(t, map[string]any{"POST /api/notifications/request": map[string]any{"_id": "r1"}})

	r := run(t, b, "", "request", "meeting")
	gt.Value(t, cli.ExitCode(r.err)).Equal(2)
	gt.Bool(t, b.called("POST /api/notifications/request")).False()
}

func TestRequestMeeting_FailureShowsBackendMessage(t *testing.T) {
	setup(t, token(t, model.RoleClient))
	b := newBackend(t, map[string]any{})

	r := run(t, b, "", "request", "meeting", "kickoff")
	gt.Value(t, r.err).NotNil()
	gt.String(t, r.errOut).Contains("no route POST /api/notifications/request")
}
