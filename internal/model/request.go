package model

type RequestType string

const (
	RequestProjectUpdate RequestType = "project_update"
	RequestMeeting       RequestType = "meeting"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// RequestPayload is the body of a "request" notification record. It is built
// fresh for every submission.
type RequestPayload struct {
	Title          string      `json:"title"`
	Message        string      `json:"message"`
	Type           RequestType `json:"type"`
	Priority       Priority    `json:"priority"`
	RelatedProject string      `json:"relatedProject,omitempty"`
	ActionText     string      `json:"actionText"`
	Email          string      `json:"email,omitempty"`
}

// RequestReceipt is what the backend reports after recording a request.
type RequestReceipt struct {
	ID        string `json:"_id"`
	EmailSent bool   `json:"emailSent"`
}
