package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/portal/internal/ui"
)

// field is one form row: a text input, or a checkbox toggled with space.
type field struct {
	key      string
	label    string
	input    textinput.Model
	checkbox bool
	checked  bool
}

// form is the modal used for requests, user edits, notifications and
// confirmations. A form without fields is a plain confirmation.
type form struct {
	title  string
	hint   string
	fields []field
	focus  int
	err    string
	busy   bool
}

type formResult int

const (
	formEditing formResult = iota
	formSubmitted
	formCancelled
)

func newForm(title string) *form {
	return &form{title: title}
}

func (f *form) text(key, label, value, placeholder string) *form {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = placeholder
	ti.CharLimit = 500
	ti.SetValue(value)
	ti.CursorEnd()
	f.fields = append(f.fields, field{key: key, label: label, input: ti})
	f.refocus()
	return f
}

func (f *form) secret(key, label, placeholder string) *form {
	f.text(key, label, "", placeholder)
	last := &f.fields[len(f.fields)-1]
	last.input.EchoMode = textinput.EchoPassword
	last.input.EchoCharacter = '•'
	return f
}

func (f *form) checkbox(key, label string, checked bool) *form {
	f.fields = append(f.fields, field{key: key, label: label, checkbox: true, checked: checked})
	f.refocus()
	return f
}

func (f *form) withHint(hint string) *form {
	f.hint = hint
	return f
}

func (f *form) value(key string) string {
	for _, fl := range f.fields {
		if fl.key == key {
			return fl.input.Value()
		}
	}
	return ""
}

func (f *form) checked(key string) bool {
	for _, fl := range f.fields {
		if fl.key == key {
			return fl.checked
		}
	}
	return false
}

func (f *form) refocus() {
	for i := range f.fields {
		if i == f.focus && !f.fields[i].checkbox {
			f.fields[i].input.Focus()
		} else {
			f.fields[i].input.Blur()
		}
	}
}

func (f *form) move(delta int) {
	if len(f.fields) == 0 {
		return
	}
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	f.refocus()
}

// update handles one message. Enter submits, esc cancels, tab moves focus.
func (f *form) update(msg tea.Msg) (formResult, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			return formCancelled, nil
		case "enter":
			if f.busy {
				return formEditing, nil
			}
			return formSubmitted, nil
		case "tab", "down":
			f.move(1)
			return formEditing, nil
		case "shift+tab", "up":
			f.move(-1)
			return formEditing, nil
		case " ":
			if len(f.fields) > 0 && f.fields[f.focus].checkbox {
				f.fields[f.focus].checked = !f.fields[f.focus].checked
				return formEditing, nil
			}
		}
	}
	if len(f.fields) == 0 || f.fields[f.focus].checkbox {
		return formEditing, nil
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return formEditing, cmd
}

func (f *form) view(width int) string {
	t := ui.Current()
	lines := []string{}
	if f.hint != "" {
		lines = append(lines, t.Muted.Render(f.hint), "")
	}
	for i, fl := range f.fields {
		label := fl.label
		if i == f.focus {
			label = t.Accent.Render(label)
		}
		if fl.checkbox {
			box := "[ ]"
			if fl.checked {
				box = "[x]"
			}
			lines = append(lines, box+" "+label)
			continue
		}
		fl.input.Width = max(width-8, 20)
		lines = append(lines, label, fl.input.View())
	}
	if f.busy {
		lines = append(lines, "", t.Muted.Render("Sending…"))
	}
	if f.err != "" {
		lines = append(lines, "", t.Error.Render(f.err))
	}
	help := "enter submit • esc cancel"
	if len(f.fields) > 1 {
		help = "tab next • " + help
	}
	lines = append(lines, "", t.Help.Render(help))
	return ui.Panel(f.title, []string{strings.Join(lines, "\n")})
}
