package model

import "math"

// Overview is the normalized stats block for both dashboard variants.
// Admin stats populate the user counters, client stats the project counters.
type Overview struct {
	TotalProjects       int     `json:"totalProjects"`
	ActiveProjects      int     `json:"activeProjects"`
	CompletedProjects   int     `json:"completedProjects"`
	PendingProjects     int     `json:"pendingProjects"`
	AverageProgress     float64 `json:"averageProgress"`
	TotalUsers          int     `json:"totalUsers"`
	ActiveUsers         int     `json:"activeUsers"`
	TotalClients        int     `json:"totalClients"`
	TotalAdmins         int     `json:"totalAdmins"`
	UnreadNotifications int     `json:"unreadNotifications"`
}

// AverageProgressPercent rounds the average progress for display.
// The stored value stays unrounded.
func (o Overview) AverageProgressPercent() int {
	return int(math.Round(o.AverageProgress))
}
