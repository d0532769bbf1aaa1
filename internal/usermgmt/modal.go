package usermgmt

import "github.com/Makepad-fr/portal/internal/model"

// ModalState is the single modal the user list can show. Exactly one is
// active at a time.
type ModalState interface {
	modal()
}

type ModalNone struct{}

type ModalCreating struct{}

type ModalEditing struct{ User model.User }

// ModalDeleting is the explicit confirmation step before a delete fires.
type ModalDeleting struct{ User model.User }

type ModalNotifying struct{ User model.User }

func (ModalNone) modal()      {}
func (ModalCreating) modal()  {}
func (ModalEditing) modal()   {}
func (ModalDeleting) modal()  {}
func (ModalNotifying) modal() {}

// ModalName is used for logging and for the TUI title bar.
func ModalName(m ModalState) string {
	switch m.(type) {
	case ModalCreating:
		return "create-admin"
	case ModalEditing:
		return "edit"
	case ModalDeleting:
		return "delete"
	case ModalNotifying:
		return "notify"
	default:
		return "none"
	}
}
