package model

import "time"

type ProjectStatus string

const (
	StatusPlanning   ProjectStatus = "planning"
	StatusInProgress ProjectStatus = "in-progress"
	StatusReview     ProjectStatus = "review"
	StatusCompleted  ProjectStatus = "completed"
	StatusOnHold     ProjectStatus = "on-hold"
	StatusCancelled  ProjectStatus = "cancelled"
)

// Label returns a human readable status ("in-progress" -> "In Progress").
func (s ProjectStatus) Label() string {
	switch s {
	case StatusPlanning:
		return "Planning"
	case StatusInProgress:
		return "In Progress"
	case StatusReview:
		return "Review"
	case StatusCompleted:
		return "Completed"
	case StatusOnHold:
		return "On Hold"
	case StatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

type Author struct {
	Name string `json:"name"`
}

// Note is a project note entry. Only public notes show up in the activity feed.
type Note struct {
	Author    Author    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	IsPrivate bool      `json:"isPrivate"`
}

// Project is a fetched project summary; never mutated by the dashboard.
type Project struct {
	ID       string        `json:"_id"`
	Title    string        `json:"title"`
	Status   ProjectStatus `json:"status"`
	Progress int           `json:"progress"`
	Deadline time.Time     `json:"deadline"`
	Notes    []Note        `json:"notes"`
}

// LatestPublicNote returns the most recent non-private note, if any.
// Ties on CreatedAt keep the later entry in the notes sequence.
func (p Project) LatestPublicNote() (Note, bool) {
	var (
		latest Note
		found  bool
	)
	for _, n := range p.Notes {
		if n.IsPrivate {
			continue
		}
		if !found || !n.CreatedAt.Before(latest.CreatedAt) {
			latest = n
			found = true
		}
	}
	return latest, found
}

// Pagination mirrors the pagination block of list responses.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}
