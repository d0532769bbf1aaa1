package ui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles the styles and symbols every renderer pulls from.
type Theme struct {
	Name string

	Title    lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Selected lipgloss.Style
	Help     lipgloss.Style
	Border   lipgloss.Border
	BorderFg lipgloss.TerminalColor

	BarFull, BarEmpty string
	SymOK, SymFail    string
	SymActive         string
	SymInactive       string
}

var (
	mu      sync.RWMutex
	current = themeFor("dark")
)

// SetTheme switches the theme: dark (default), light or mono.
func SetTheme(name string) {
	mu.Lock()
	defer mu.Unlock()
	current = themeFor(name)
}

func Current() Theme {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func themeFor(name string) Theme {
	plain := lipgloss.NewStyle()
	switch strings.ToLower(name) {
	case "mono":
		return Theme{
			Name:     "mono",
			Title:    plain.Bold(true),
			Muted:    plain,
			Accent:   plain,
			Success:  plain,
			Warning:  plain,
			Error:    plain.Bold(true),
			Selected: plain.Reverse(true),
			Help:     plain,
			Border:   lipgloss.NormalBorder(),
			BorderFg: lipgloss.NoColor{},
			BarFull:  "#", BarEmpty: "-",
			SymOK: "ok", SymFail: "error",
			SymActive: "[on]", SymInactive: "[off]",
		}
	case "light":
		return Theme{
			Name:     "light",
			Title:    plain.Bold(true).Foreground(lipgloss.Color("54")),
			Muted:    plain.Foreground(lipgloss.Color("243")),
			Accent:   plain.Foreground(lipgloss.Color("25")),
			Success:  plain.Foreground(lipgloss.Color("28")),
			Warning:  plain.Foreground(lipgloss.Color("130")),
			Error:    plain.Foreground(lipgloss.Color("160")).Bold(true),
			Selected: plain.Bold(true).Reverse(true),
			Help:     plain.Foreground(lipgloss.Color("245")),
			Border:   lipgloss.RoundedBorder(),
			BorderFg: lipgloss.Color("250"),
			BarFull:  "█", BarEmpty: "░",
			SymOK: "✔", SymFail: "✖",
			SymActive: "●", SymInactive: "○",
		}
	default:
		return Theme{
			Name:     "dark",
			Title:    plain.Bold(true),
			Muted:    plain.Faint(true),
			Accent:   plain.Foreground(lipgloss.Color("12")),
			Success:  plain.Foreground(lipgloss.Color("42")),
			Warning:  plain.Foreground(lipgloss.Color("214")),
			Error:    plain.Foreground(lipgloss.Color("9")).Bold(true),
			Selected: plain.Bold(true).Reverse(true),
			Help:     plain.Faint(true),
			Border:   lipgloss.RoundedBorder(),
			BorderFg: lipgloss.Color("8"),
			BarFull:  "█", BarEmpty: "░",
			SymOK: "✔", SymFail: "✖",
			SymActive: "●", SymInactive: "○",
		}
	}
}
