package feed_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/Makepad-fr/portal/internal/feed"
	"github.com/Makepad-fr/portal/internal/model"
)

var now = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

func daysFromNow(d int) time.Time { return now.Add(time.Duration(d) * 24 * time.Hour) }

func project(id string, deadlineDays int, notes ...model.Note) model.Project {
	return model.Project{
		ID:       id,
		Title:    "Project " + id,
		Status:   model.StatusInProgress,
		Deadline: daysFromNow(deadlineDays),
		Notes:    notes,
	}
}

func note(content string, hoursAgo int, private bool) model.Note {
	return model.Note{
		Author:    model.Author{Name: "Dana"},
		Content:   content,
		CreatedAt: now.Add(-time.Duration(hoursAgo) * time.Hour),
		IsPrivate: private,
	}
}

func kinds(items []model.FeedItem, kind model.FeedKind) []model.FeedItem {
	var out []model.FeedItem
	for _, it := range items {
		if it.Kind == kind {
			out = append(out, it)
		}
	}
	return out
}

func TestSynthesize_NewestTwoNotifications(t *testing.T) {
	notifications := []model.Notification{
		{ID: "n1", Title: "old", Message: "m1", CreatedAt: now.Add(-5 * time.Hour)},
		{ID: "n2", Title: "newest", Message: "m2", CreatedAt: now.Add(-1 * time.Hour)},
		{ID: "n3", Title: "middle", Message: "m3", CreatedAt: now.Add(-3 * time.Hour)},
		{ID: "n4", Title: "oldest", Message: "m4", CreatedAt: now.Add(-9 * time.Hour)},
	}

	items := kinds(feed.Synthesize([]model.Project{project("p", 30)}, notifications, now), model.FeedNotification)
	gt.Array(t, items).Length(2)
	gt.Value(t, items[0].SourceID).Equal("n2")
	gt.Value(t, items[1].SourceID).Equal("n3")
	gt.Value(t, items[0].Excerpt).Equal("m2")
	gt.Value(t, items[0].DueInDays).Equal(0)
}

func TestSynthesize_OneNotePerProjectCappedAtThree(t *testing.T) {
	projects := []model.Project{
		project("a", 30, note("a-old", 10, false), note("a-new", 2, false), note("a-secret", 1, true)),
		project("b", 30, note("b-only-private", 1, true)),
		project("c", 30, note("c1", 4, false), note("c2", 6, false)),
		project("d", 30, note("d1", 1, false)),
		project("e", 30, note("e1", 1, false)),
	}

	items := kinds(feed.Synthesize(projects, nil, now), model.FeedProjectNote)
	gt.Array(t, items).Length(3)
	gt.Value(t, items[0].Excerpt).Equal("a-new")
	gt.Value(t, items[1].Excerpt).Equal("c1")
	gt.Value(t, items[2].Excerpt).Equal("d1")
	gt.Value(t, items[0].Author).Equal("Dana")

	seen := map[string]bool{}
	for _, it := range items {
		gt.Bool(t, seen[it.SourceID]).False()
		seen[it.SourceID] = true
	}
}

func TestSynthesize_DeadlineWindow(t *testing.T) {
	projects := []model.Project{
		project("plus3", 3),
		project("plus10", 10),
		project("minus1", -1),
		project("plus7", 7),
		project("plus6", 6),
	}

	items := kinds(feed.Synthesize(projects, nil, now), model.FeedDeadlineAlert)
	gt.Array(t, items).Length(2)
	gt.Value(t, items[0].SourceID).Equal("plus3")
	gt.Value(t, items[0].DueInDays).Equal(3)
	gt.Value(t, items[1].SourceID).Equal("plus7")
	gt.Value(t, items[1].DueInDays).Equal(7)
}

func TestSynthesize_PrecedenceAndRank(t *testing.T) {
	projects := []model.Project{project("a", 2, note("hello", 1, false))}
	notifications := []model.Notification{{ID: "n1", CreatedAt: now.Add(-time.Hour)}}

	items := feed.Synthesize(projects, notifications, now)
	gt.Array(t, items).Length(3)
	gt.Value(t, items[0].Kind).Equal(model.FeedNotification)
	gt.Value(t, items[1].Kind).Equal(model.FeedProjectNote)
	gt.Value(t, items[2].Kind).Equal(model.FeedDeadlineAlert)
	for i, it := range items {
		gt.Value(t, it.Rank).Equal(i)
	}
}

func TestSynthesize_GlobalCap(t *testing.T) {
	var projects []model.Project
	var notifications []model.Notification
	for i := 0; i < 10; i++ {
		projects = append(projects, project(fmt.Sprint(i), 1, note("n", i+1, false)))
		notifications = append(notifications, model.Notification{ID: fmt.Sprint(i), CreatedAt: now.Add(-time.Duration(i) * time.Hour)})
	}

	items := feed.Synthesize(projects, notifications, now)
	gt.Array(t, items).Length(feed.MaxNotifications + feed.MaxNotes + feed.MaxDeadlines)
}

func TestSynthesize_NoProjectsMeansEmptyFeed(t *testing.T) {
	notifications := []model.Notification{{ID: "n1", CreatedAt: now}}
	gt.Array(t, feed.Synthesize(nil, notifications, now)).Length(0)
}

func TestSynthesize_DoesNotMutateInput(t *testing.T) {
	notifications := []model.Notification{
		{ID: "old", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "new", CreatedAt: now.Add(-time.Hour)},
	}
	feed.Synthesize([]model.Project{project("a", 30)}, notifications, now)
	gt.Value(t, notifications[0].ID).Equal("old")
}

func TestDaysUntil(t *testing.T) {
	tests := []struct {
		name     string
		deadline time.Time
		want     int
	}{
		{"exactly one day", now.Add(24 * time.Hour), 1},
		{"a bit over a day rounds up", now.Add(25 * time.Hour), 2},
		{"one hour", now.Add(time.Hour), 1},
		{"now", now, 0},
		{"past", now.Add(-30 * time.Hour), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, feed.DaysUntil(tt.deadline, now)).Equal(tt.want)
		})
	}
}

func TestRelativeTime(t *testing.T) {
	gt.Value(t, feed.RelativeTime(now.Add(-30*time.Minute), now)).Equal("0h ago")
	gt.Value(t, feed.RelativeTime(now.Add(-23*time.Hour-59*time.Minute), now)).Equal("23h ago")
	gt.Value(t, feed.RelativeTime(now.Add(-24*time.Hour), now)).Equal("1d ago")
	gt.Value(t, feed.RelativeTime(now.Add(-71*time.Hour), now)).Equal("2d ago")

	gt.Value(t, feed.RelativeTime(now.Add(10*time.Minute), now)).Equal("0h ago")
	gt.Value(t, feed.RelativeTime(now.Add(3*time.Hour), now)).Equal("0h ago")
}

func TestLabel(t *testing.T) {
	alert := model.FeedItem{Kind: model.FeedDeadlineAlert, DueInDays: 1}
	gt.Value(t, feed.Label(alert, now)).Equal("Due in 1 day")

	event := model.FeedItem{Kind: model.FeedNotification, OccurredAt: now.Add(-3 * time.Hour)}
	gt.Value(t, feed.Label(event, now)).Equal("3h ago")
	gt.Value(t, feed.Label(event, now.Add(48*time.Hour))).Equal("2d ago")
}
