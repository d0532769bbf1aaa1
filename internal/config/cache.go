package config

import (
	"time"

	"github.com/urfave/cli/v3"

	"github.com/Makepad-fr/portal/internal/querycache"
)

// Cache holds the query cache windows.
type Cache struct {
	stale  time.Duration
	retain time.Duration
}

func (x *Cache) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        "cache-stale",
			Usage:       "How long a fetched result is served without refetching (default 30s)",
			Category:    "Cache",
			Sources:     cli.EnvVars("PORTAL_CACHE_STALE"),
			Destination: &x.stale,
		},
		&cli.DurationFlag{
			Name:        "cache-retain",
			Usage:       "How long an unused result is kept (default 5m)",
			Category:    "Cache",
			Sources:     cli.EnvVars("PORTAL_CACHE_RETAIN"),
			Destination: &x.retain,
		},
	}
}

// Windows resolves the stale and retain windows. Zero values mean the cache
// defaults.
func (x *Cache) Windows(f *File) (stale, retain time.Duration) {
	stale, retain = x.stale, x.retain
	if f != nil {
		if stale <= 0 {
			stale = f.Cache.Stale.Std()
		}
		if retain <= 0 {
			retain = f.Cache.Retain.Std()
		}
	}
	return stale, retain
}

func (x *Cache) Configure(f *File) *querycache.Cache {
	stale, retain := x.Windows(f)
	return querycache.New(querycache.WithWindows(stale, retain))
}
