package model

import "time"

type FeedKind string

const (
	FeedNotification  FeedKind = "notification"
	FeedProjectNote   FeedKind = "project-note"
	FeedDeadlineAlert FeedKind = "deadline-alert"
)

// FeedItem is one row of the client activity panel. It is derived on every
// render and never persisted. DueInDays is set only for deadline alerts;
// OccurredAt is zero for them.
type FeedItem struct {
	Kind       FeedKind
	SourceID   string
	Title      string
	Excerpt    string
	Author     string
	OccurredAt time.Time
	DueInDays  int
	Rank       int
}
