package usermgmt

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Makepad-fr/portal/internal/model"
)

func RoleBadge(r model.Role) string {
	switch r {
	case model.RoleAdmin:
		return "Admin"
	case model.RoleClient:
		return "Client"
	}
	return "Unknown"
}

func StatusBadge(active bool) string {
	if active {
		return "Active"
	}
	return "Inactive"
}

// Initials returns up to two upper-case initials of name, "?" when empty.
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
		if utf8.RuneCountInString(b.String()) == 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}
