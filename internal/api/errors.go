package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrInvalidBaseURL = goerr.New("invalid base URL")
	ErrMissingID      = goerr.New("resource id is required")
)

// GenericFailureMessage is shown when the backend failure carries no message.
const GenericFailureMessage = "Something went wrong. Please try again."

// Error is a failed call: either the backend answered with a failure envelope
// (Status > 0) or the request never completed (Status == 0, Err set).
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Method, e.Path)
	if e.Status > 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+e.Fields[k])
		}
		b.WriteString(" (" + strings.Join(parts, ", ") + ")")
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// IsValidation reports whether the backend returned field-level errors.
func (e *Error) IsValidation() bool { return len(e.Fields) > 0 }

// IsNetwork reports whether the request failed before a response arrived.
func (e *Error) IsNetwork() bool { return e.Status == 0 }

// UserMessage picks the message to show for err: the backend message when one
// is present, otherwise fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	if fallback == "" {
		return GenericFailureMessage
	}
	return fallback
}

// FieldErrors returns field-level errors carried by err, if any.
func FieldErrors(err error) map[string]string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Fields
	}
	return nil
}
