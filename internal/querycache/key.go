package querycache

import (
	"strconv"
	"strings"

	"github.com/Makepad-fr/portal/internal/model"
)

// Resource names a backend resource family.
type Resource string

const (
	ResourceAdminStats     Resource = "admin-stats"
	ResourceDashboardStats Resource = "project-stats/dashboard"
	ResourceProjects       Resource = "projects"
	ResourceNotifications  Resource = "notifications"
	ResourceUsers          Resource = "users"
)

// Key identifies one cached query. Zero fields are simply not part of the
// query.
type Key struct {
	Resource   Resource
	Role       model.Role
	Page       int
	Limit      int
	Search     string
	RoleFilter model.Role
}

// String is the canonical form used for in-flight de-duplication. Each field
// is length-prefixed so values containing separators cannot collide.
func (k Key) String() string {
	var b strings.Builder
	for _, part := range []string{
		string(k.Resource),
		string(k.Role),
		strconv.Itoa(k.Page),
		strconv.Itoa(k.Limit),
		k.Search,
		string(k.RoleFilter),
	} {
		b.WriteString(strconv.Itoa(len(part)))
		b.WriteByte(':')
		b.WriteString(part)
		b.WriteByte('|')
	}
	return b.String()
}
