package config

import (
	"github.com/urfave/cli/v3"
)

const (
	DefaultTheme    = "dark"
	DefaultPageSize = 10
)

// UI holds presentation settings.
type UI struct {
	theme    string
	pageSize int
}

func (x *UI) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "theme",
			Usage:       "Color theme (dark, light, mono)",
			Category:    "UI",
			Sources:     cli.EnvVars("PORTAL_THEME"),
			Destination: &x.theme,
		},
		&cli.IntFlag{
			Name:        "page-size",
			Usage:       "Rows per page in the user list (default 10)",
			Category:    "UI",
			Sources:     cli.EnvVars("PORTAL_PAGE_SIZE"),
			Destination: &x.pageSize,
		},
	}
}

func (x *UI) Theme(f *File) string {
	if x.theme != "" {
		return x.theme
	}
	if f != nil && f.UI.Theme != "" {
		return f.UI.Theme
	}
	return DefaultTheme
}

func (x *UI) PageSize(f *File) int {
	if x.pageSize > 0 {
		return x.pageSize
	}
	if f != nil && f.UI.PageSize > 0 {
		return f.UI.PageSize
	}
	return DefaultPageSize
}
