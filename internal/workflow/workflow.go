// Package workflow drives the client request flows (project update and
// meeting requests) from form capture through the create-request mutation.
package workflow

import (
	"context"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Makepad-fr/portal/internal/api"
	"github.com/Makepad-fr/portal/internal/logging"
	"github.com/Makepad-fr/portal/internal/model"
)

var (
	ErrSubmissionInFlight = goerr.New("a request is already being submitted")
	ErrMessageRequired    = goerr.New("message is required")
)

// Kind names a request workflow.
type Kind string

const (
	KindUpdate  Kind = "update-request"
	KindMeeting Kind = "meeting-request"
)

const (
	updateMarker  = "📋 "
	meetingMarker = "📅 "

	DefaultUpdateMessage  = "Project update requested"
	DefaultMeetingMessage = "Meeting requested"

	updateTitle       = "Project Update Request"
	meetingTitle      = "Meeting Request"
	updateActionText  = "Review request"
	meetingActionText = "Schedule meeting"

	updateNotice        = "Update request sent. The team will get back to you shortly."
	meetingNotice       = "Meeting request sent. A confirmation email is on its way."
	meetingNoticeNoMail = "Meeting request sent. The team will contact you to schedule it."

	updateFailure  = "Could not send the update request. Please try again."
	meetingFailure = "Could not send the meeting request. Please try again."
)

// UpdateForm is the input of a project update request.
type UpdateForm struct {
	Message   string
	Urgent    bool
	ProjectID string
}

// Validate accepts any update form; an empty message falls back to a default.
func (f UpdateForm) Validate() error { return nil }

// MeetingForm is the input of a meeting request.
type MeetingForm struct {
	Message   string
	Email     string
	ProjectID string
}

func (f MeetingForm) Validate() error {
	if strings.TrimSpace(f.Message) == "" {
		return goerr.Wrap(ErrMessageRequired, "invalid meeting request", goerr.V("field", "message"))
	}
	return nil
}

func message(marker, text, fallback string) string {
	if strings.TrimSpace(text) == "" {
		return fallback
	}
	return marker + text
}

// BuildUpdatePayload turns an update form into the create-request body.
func BuildUpdatePayload(f UpdateForm) model.RequestPayload {
	priority := model.PriorityMedium
	if f.Urgent {
		priority = model.PriorityHigh
	}
	return model.RequestPayload{
		Title:          updateTitle,
		Message:        message(updateMarker, f.Message, DefaultUpdateMessage),
		Type:           model.RequestProjectUpdate,
		Priority:       priority,
		RelatedProject: f.ProjectID,
		ActionText:     updateActionText,
	}
}

// BuildMeetingPayload turns a meeting form into the create-request body.
// Meetings are never urgent.
func BuildMeetingPayload(f MeetingForm) model.RequestPayload {
	return model.RequestPayload{
		Title:          meetingTitle,
		Message:        message(meetingMarker, f.Message, DefaultMeetingMessage),
		Type:           model.RequestMeeting,
		Priority:       model.PriorityMedium,
		RelatedProject: f.ProjectID,
		ActionText:     meetingActionText,
		Email:          f.Email,
	}
}

// Backend records request notifications.
type Backend interface {
	CreateRequest(ctx context.Context, payload model.RequestPayload) (*model.RequestReceipt, error)
}

// Phase is the submission state of a workflow.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
)

// State is a snapshot of one workflow, safe to render.
type State struct {
	Kind      Kind
	Open      bool
	Phase     Phase
	ProjectID string
	Update    UpdateForm
	Meeting   MeetingForm
	LastError string
	Notice    string
}

// Controller owns one workflow. Success invalidates nothing in the query
// cache: a request creates a notification record and leaves dashboard data
// untouched.
type Controller struct {
	backend Backend

	mu    sync.Mutex
	state State
}

func NewUpdate(backend Backend) *Controller {
	return &Controller{backend: backend, state: State{Kind: KindUpdate}}
}

func NewMeeting(backend Backend) *Controller {
	return &Controller{backend: backend, state: State{Kind: KindMeeting}}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Open shows the form, optionally with a preselected project. The form keeps
// whatever input a previous failed attempt left in it.
func (c *Controller) Open(projectID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Open = true
	c.state.Notice = ""
	c.state.LastError = ""
	if projectID != "" {
		c.state.ProjectID = projectID
	}
}

func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Open = false
	c.state.ProjectID = ""
}

// SubmitUpdate sends a project update request. Without a project in the form
// the one preselected by Open is used.
func (c *Controller) SubmitUpdate(ctx context.Context, f UpdateForm) error {
	if c.state.Kind != KindUpdate {
		return goerr.New("not an update workflow", goerr.V("kind", c.state.Kind))
	}
	return c.submit(ctx, f.ProjectID, func(s *State) { s.Update = f }, f.Validate, func(projectID string) model.RequestPayload {
		f.ProjectID = projectID
		return BuildUpdatePayload(f)
	})
}

// SubmitMeeting sends a meeting request. An empty message is rejected
// without calling the backend.
func (c *Controller) SubmitMeeting(ctx context.Context, f MeetingForm) error {
	if c.state.Kind != KindMeeting {
		return goerr.New("not a meeting workflow", goerr.V("kind", c.state.Kind))
	}
	return c.submit(ctx, f.ProjectID, func(s *State) { s.Meeting = f }, f.Validate, func(projectID string) model.RequestPayload {
		f.ProjectID = projectID
		return BuildMeetingPayload(f)
	})
}

func (c *Controller) submit(ctx context.Context, projectID string, keep func(*State), validate func() error, build func(projectID string) model.RequestPayload) error {
	c.mu.Lock()
	if c.state.Phase == PhaseSubmitting {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	keep(&c.state)
	if projectID != "" {
		c.state.ProjectID = projectID
	}
	if err := validate(); err != nil {
		c.state.LastError = "Please enter a message."
		c.mu.Unlock()
		return err
	}
	c.state.Open = true
	c.state.Phase = PhaseSubmitting
	c.state.LastError = ""
	c.state.Notice = ""
	payload := build(c.state.ProjectID)
	c.mu.Unlock()

	receipt, err := c.backend.CreateRequest(ctx, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Phase = PhaseIdle
	if err != nil {
		c.state.LastError = api.UserMessage(err, c.failureMessage())
		logging.From(ctx).Error("request submission failed",
			"kind", string(c.state.Kind),
			"priority", string(payload.Priority),
			"error", err.Error())
		return goerr.Wrap(err, "submit request", goerr.V("kind", c.state.Kind))
	}

	c.state.Open = false
	c.state.ProjectID = ""
	c.state.Update = UpdateForm{}
	c.state.Meeting = MeetingForm{}
	c.state.Notice = c.successNotice(receipt)
	logging.From(ctx).Info("request submitted", "kind", string(c.state.Kind), "priority", string(payload.Priority))
	return nil
}

func (c *Controller) failureMessage() string {
	if c.state.Kind == KindMeeting {
		return meetingFailure
	}
	return updateFailure
}

func (c *Controller) successNotice(r *model.RequestReceipt) string {
	if c.state.Kind == KindUpdate {
		return updateNotice
	}
	if r != nil && r.EmailSent {
		return meetingNotice
	}
	return meetingNoticeNoMail
}
