package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/Makepad-fr/portal/internal/api"
)

const (
	DefaultBaseURL = "http://localhost:5000/api"
	DefaultTimeout = 15 * time.Second
)

// Client holds the backend connection settings.
type Client struct {
	baseURL string
	timeout time.Duration
}

func (x *Client) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Base URL of the portal REST API (default " + DefaultBaseURL + ")",
			Category:    "API",
			Sources:     cli.EnvVars("PORTAL_BASE_URL"),
			Destination: &x.baseURL,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "Timeout of a single API call",
			Category:    "API",
			Sources:     cli.EnvVars("PORTAL_TIMEOUT"),
			Destination: &x.timeout,
		},
	}
}

// BaseURL resolves flag, then file, then the built-in default.
func (x *Client) BaseURL(f *File) string {
	if x.baseURL != "" {
		return x.baseURL
	}
	if f != nil && f.API.BaseURL != "" {
		return f.API.BaseURL
	}
	return DefaultBaseURL
}

func (x *Client) Timeout(f *File) time.Duration {
	if x.timeout > 0 {
		return x.timeout
	}
	if f != nil && f.API.Timeout > 0 {
		return f.API.Timeout.Std()
	}
	return DefaultTimeout
}

func (x *Client) LogAttrs(f *File) []slog.Attr {
	return []slog.Attr{
		slog.String("base_url", x.BaseURL(f)),
		slog.Duration("timeout", x.Timeout(f)),
	}
}

// Configure creates the REST client. token may be empty for unauthenticated
// commands.
func (x *Client) Configure(f *File, token string) (*api.Client, error) {
	client, err := api.New(x.BaseURL(f), api.WithTimeout(x.Timeout(f)), api.WithToken(token))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create API client")
	}
	return client, nil
}
