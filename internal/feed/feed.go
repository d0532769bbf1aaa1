// Package feed builds the client activity feed from project and notification
// snapshots. Everything here is a pure function of its inputs.
package feed

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Makepad-fr/portal/internal/model"
)

const (
	MaxNotifications   = 2
	MaxNotes           = 3
	MaxDeadlines       = 2
	DeadlineWindowDays = 7
)

const day = 24 * time.Hour

// Synthesize merges notifications, project notes and deadline alerts into one
// feed: notifications first, then notes, then alerts, each capped, with no
// re-sorting across sources.
//
// With no projects the feed is empty even if notifications exist. This keeps
// the behaviour of the web dashboard, where the whole activity panel sits
// behind a "has projects" check; it is likely an accidental coupling.
func Synthesize(projects []model.Project, notifications []model.Notification, now time.Time) []model.FeedItem {
	if len(projects) == 0 {
		return nil
	}

	items := make([]model.FeedItem, 0, MaxNotifications+MaxNotes+MaxDeadlines)
	items = append(items, notificationItems(notifications)...)
	items = append(items, noteItems(projects)...)
	items = append(items, deadlineItems(projects, now)...)
	for i := range items {
		items[i].Rank = i
	}
	return items
}

func notificationItems(notifications []model.Notification) []model.FeedItem {
	sorted := append([]model.Notification(nil), notifications...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > MaxNotifications {
		sorted = sorted[:MaxNotifications]
	}

	out := make([]model.FeedItem, 0, len(sorted))
	for _, n := range sorted {
		out = append(out, model.FeedItem{
			Kind:       model.FeedNotification,
			SourceID:   n.ID,
			Title:      n.Title,
			Excerpt:    n.Message,
			OccurredAt: n.CreatedAt,
		})
	}
	return out
}

// noteItems takes at most one note per project, the latest public one.
func noteItems(projects []model.Project) []model.FeedItem {
	out := make([]model.FeedItem, 0, MaxNotes)
	for _, p := range projects {
		if len(out) == MaxNotes {
			break
		}
		note, ok := p.LatestPublicNote()
		if !ok {
			continue
		}
		out = append(out, model.FeedItem{
			Kind:       model.FeedProjectNote,
			SourceID:   p.ID,
			Title:      p.Title,
			Excerpt:    note.Content,
			Author:     note.Author.Name,
			OccurredAt: note.CreatedAt,
		})
	}
	return out
}

func deadlineItems(projects []model.Project, now time.Time) []model.FeedItem {
	out := make([]model.FeedItem, 0, MaxDeadlines)
	for _, p := range projects {
		if len(out) == MaxDeadlines {
			break
		}
		if p.Deadline.IsZero() {
			continue
		}
		days := DaysUntil(p.Deadline, now)
		if days <= 0 || days > DeadlineWindowDays {
			continue
		}
		out = append(out, model.FeedItem{
			Kind:      model.FeedDeadlineAlert,
			SourceID:  p.ID,
			Title:     p.Title,
			Excerpt:   DueLabel(days),
			DueInDays: days,
		})
	}
	return out
}

// DaysUntil is ceil((deadline - now) / 1 day).
func DaysUntil(deadline, now time.Time) int {
	return int(math.Ceil(float64(deadline.Sub(now)) / float64(day)))
}

func DueLabel(days int) string {
	if days == 1 {
		return "Due in 1 day"
	}
	return fmt.Sprintf("Due in %d days", days)
}

// RelativeTime renders how long ago t was. It depends on now and must be
// computed at render time. Times ahead of now, from clock skew, read "0h ago".
func RelativeTime(t, now time.Time) string {
	hours := max(0, int(math.Floor(now.Sub(t).Hours())))
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}
	return fmt.Sprintf("%dd ago", hours/24)
}

// Label is the right-hand side of a feed row: an age for events, a due
// date for deadline alerts.
func Label(item model.FeedItem, now time.Time) string {
	if item.Kind == model.FeedDeadlineAlert {
		return DueLabel(item.DueInDays)
	}
	return RelativeTime(item.OccurredAt, now)
}
