package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Makepad-fr/portal/internal/api"
	"github.com/Makepad-fr/portal/internal/auth"
	"github.com/Makepad-fr/portal/internal/dashboard"
	"github.com/Makepad-fr/portal/internal/feed"
	"github.com/Makepad-fr/portal/internal/model"
	"github.com/Makepad-fr/portal/internal/querycache"
	"github.com/Makepad-fr/portal/internal/usermgmt"
)

const barWidth = 20

func RoleBadge(r model.Role) string {
	t := Current()
	label := "[" + usermgmt.RoleBadge(r) + "]"
	if r == model.RoleAdmin {
		return t.Accent.Render(label)
	}
	return t.Muted.Render(label)
}

func StatusBadge(active bool) string {
	t := Current()
	if active {
		return t.Success.Render(t.SymActive + " " + usermgmt.StatusBadge(true))
	}
	return t.Muted.Render(t.SymInactive + " " + usermgmt.StatusBadge(false))
}

func ProjectStatus(s model.ProjectStatus) string {
	t := Current()
	switch s {
	case model.StatusCompleted:
		return t.Success.Render(s.Label())
	case model.StatusOnHold, model.StatusCancelled:
		return t.Warning.Render(s.Label())
	case model.StatusInProgress, model.StatusReview:
		return t.Accent.Render(s.Label())
	}
	return t.Muted.Render(s.Label())
}

// Overview renders the stat cards of either dashboard variant.
func Overview(v *dashboard.View) string {
	t := Current()
	if !v.HasOverview {
		return Panel("Overview", []string{t.Muted.Render(unavailable(v, statsResource(v.Variant)))})
	}
	o := v.Overview
	var lines []string
	if v.Variant == auth.VariantAdmin {
		lines = []string{
			fmt.Sprintf("Users      %d total, %d active", o.TotalUsers, o.ActiveUsers),
			fmt.Sprintf("Roles      %d clients, %d admins", o.TotalClients, o.TotalAdmins),
			fmt.Sprintf("Projects   %d total, %d active, %d completed", o.TotalProjects, o.ActiveProjects, o.CompletedProjects),
		}
	} else {
		lines = []string{
			fmt.Sprintf("Projects   %d total, %d active, %d completed", o.TotalProjects, o.ActiveProjects, o.CompletedProjects),
			fmt.Sprintf("Unread     %d notifications", max(o.UnreadNotifications, v.UnreadCount)),
		}
	}
	lines = append(lines, "Progress   "+ProgressBar(o.AverageProgressPercent(), barWidth))
	return Panel("Overview", lines)
}

func statsResource(v auth.Variant) querycache.Resource {
	if v == auth.VariantAdmin {
		return querycache.ResourceAdminStats
	}
	return querycache.ResourceDashboardStats
}

func unavailable(v *dashboard.View, res querycache.Resource) string {
	if err := v.Err(res); err != nil {
		return api.UserMessage(err, "") + " (press r to retry)"
	}
	return "No data yet."
}

// Projects renders the recent projects panel of the client dashboard.
func Projects(v *dashboard.View) string {
	t := Current()
	if len(v.Projects) == 0 {
		msg := "No projects yet."
		if v.Err(querycache.ResourceProjects) != nil {
			msg = unavailable(v, querycache.ResourceProjects)
		}
		return Panel("Recent projects", []string{t.Muted.Render(msg)})
	}
	lines := make([]string, 0, len(v.Projects))
	for _, p := range v.Projects {
		lines = append(lines, fmt.Sprintf("%-28s %-12s %s",
			Truncate(p.Title, 28), ProjectStatus(p.Status), ProgressBar(p.Progress, 10)))
	}
	return Panel("Recent projects", lines)
}

// FeedLine renders one activity row. Relative times are computed here, at
// render time.
func FeedLine(item model.FeedItem, now time.Time) string {
	t := Current()
	var icon string
	switch item.Kind {
	case model.FeedNotification:
		icon = t.Accent.Render("●")
	case model.FeedProjectNote:
		icon = t.Success.Render("✎")
	case model.FeedDeadlineAlert:
		icon = t.Warning.Render("⚑")
	}
	text := item.Title
	if item.Kind == model.FeedProjectNote {
		text = item.Title + ": " + item.Excerpt
		if item.Author != "" {
			text += " (" + item.Author + ")"
		}
	} else if item.Kind == model.FeedNotification && item.Excerpt != "" {
		text = item.Title + ": " + item.Excerpt
	}
	return fmt.Sprintf("%s %s  %s", icon, Truncate(text, 56), t.Muted.Render(feed.Label(item, now)))
}

func Feed(items []model.FeedItem, now time.Time) string {
	if len(items) == 0 {
		return Panel("Recent activity", []string{Current().Muted.Render("No recent activity.")})
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, FeedLine(it, now))
	}
	return Panel("Recent activity", lines)
}

// Dashboard renders the whole dashboard as static text.
func Dashboard(v *dashboard.View, now time.Time) string {
	t := Current()
	name := v.Session.Name
	if name == "" {
		name = v.Session.Email
	}
	header := t.Title.Render("Welcome back, "+name) + "  " + RoleBadge(v.Session.Role)

	parts := []string{header, Overview(v)}
	if v.Variant == auth.VariantClient {
		parts = append(parts, Projects(v), Feed(v.Feed(now), now))
	}
	if v.Partial() {
		parts = append(parts, t.Warning.Render(fmt.Sprintf("%d of %d sections could not be loaded.", len(v.Errors), len(v.Requested))))
	}
	return strings.Join(parts, "\n")
}

// UserRow renders one row of the admin user list.
func UserRow(u model.User, toggling bool) string {
	t := Current()
	status := StatusBadge(u.IsActive)
	if toggling {
		status = t.Muted.Render("… updating")
	}
	company := u.Company
	if company == "" {
		company = "-"
	}
	return fmt.Sprintf("%-3s %-22s %-28s %-9s %-16s %s",
		usermgmt.Initials(u.Name),
		Truncate(u.Name, 22),
		Truncate(u.Email, 28),
		RoleBadge(u.Role),
		Truncate(company, 16),
		status)
}

// UserTable renders the user list with its pager line.
func UserTable(s usermgmt.State) string {
	t := Current()
	var lines []string
	switch {
	case !s.Loaded && s.LoadError != "":
		lines = append(lines, t.Error.Render(s.LoadError))
	case !s.Loaded:
		lines = append(lines, t.Muted.Render("Loading users…"))
	case len(s.Users) == 0:
		lines = append(lines, t.Muted.Render("No users match."))
	default:
		for _, u := range s.Users {
			lines = append(lines, UserRow(u, s.Toggling[u.ID]))
		}
	}
	lines = append(lines, "", Pager(s))
	return Panel("Users", lines)
}

func Pager(s usermgmt.State) string {
	filter := "all roles"
	if s.Query.RoleFilter != "" {
		filter = usermgmt.RoleBadge(s.Query.RoleFilter) + "s"
	}
	search := ""
	if s.Query.Search != "" {
		search = fmt.Sprintf(", search %q", s.Query.Search)
	}
	return Current().Muted.Render(fmt.Sprintf("Page %d of %d, %d users, %s%s",
		s.Query.Page, s.Pages(), s.Pagination.Total, filter, search))
}
