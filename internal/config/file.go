package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// File is the optional TOML configuration. Its values are used when the
// matching flag or environment variable is not given.
//
//	[api]
//	base_url = "https://portal.example.com/api"
//	timeout = "10s"
//
//	[cache]
//	stale = "30s"
//	retain = "5m"
//
//	[ui]
//	theme = "dark"
//	page_size = 10
//
//	[log]
//	level = "info"
//	format = "text"
//	output = "~/.portal/portal.log"
type File struct {
	API   FileAPI   `toml:"api"`
	Cache FileCache `toml:"cache"`
	UI    FileUI    `toml:"ui"`
	Log   FileLog   `toml:"log"`
}

type FileAPI struct {
	BaseURL string   `toml:"base_url"`
	Timeout Duration `toml:"timeout"`
}

type FileCache struct {
	Stale  Duration `toml:"stale"`
	Retain Duration `toml:"retain"`
}

type FileUI struct {
	Theme    string `toml:"theme"`
	PageSize int    `toml:"page_size"`
}

type FileLog struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// Duration reads TOML strings such as "30s" or "5m".
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return goerr.Wrap(ErrInvalidConfig, "invalid duration", goerr.V("value", string(b)))
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Source locates the configuration file.
type Source struct {
	path string
}

func (s *Source) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to a TOML configuration file (default ~/.portal/config.toml when present)",
			Sources:     cli.EnvVars("PORTAL_CONFIG"),
			Destination: &s.path,
		},
	}
}

// Configure loads the file. Without --config a missing default file is not
// an error and yields an empty File.
func (s *Source) Configure() (*File, error) {
	if s.path != "" {
		return LoadFile(s.path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return &File{}, nil
	}
	f, err := LoadFile(filepath.Join(home, ".portal", "config.toml"))
	if errors.Is(err, ErrConfigNotFound) {
		return &File{}, nil
	}
	return f, err
}

// LoadFile parses the TOML file at path.
func LoadFile(path string) (*File, error) {
	// #nosec G304 - path is provided by the user
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, goerr.Wrap(ErrConfigNotFound, "no config file", goerr.V("path", path))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}

	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML config", goerr.V("path", path))
	}
	if f.UI.PageSize < 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "ui.page_size must not be negative", goerr.V("path", path))
	}
	return &f, nil
}
