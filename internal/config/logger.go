package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/Makepad-fr/portal/internal/logging"
)

// Logger holds the logging flags.
type Logger struct {
	level  string
	format string
	output string
}

func (x *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Category:    "Logging",
			Sources:     cli.EnvVars("PORTAL_LOG_LEVEL"),
			Destination: &x.level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (text, json)",
			Category:    "Logging",
			Sources:     cli.EnvVars("PORTAL_LOG_FORMAT"),
			Destination: &x.format,
		},
		&cli.StringFlag{
			Name:        "log-output",
			Usage:       "Log destination: stderr, stdout or a file path",
			Category:    "Logging",
			Sources:     cli.EnvVars("PORTAL_LOG_OUTPUT"),
			Destination: &x.output,
		},
	}
}

func (x *Logger) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("level", x.level),
		slog.String("format", x.format),
		slog.String("output", x.output),
	)
}

func pick(flag, file string) string {
	if flag != "" {
		return flag
	}
	return file
}

// Configure installs the default logger and returns a closer for the output.
// When interactive is set, logs that would go to the terminal are sent to
// ~/.portal/portal.log instead so they do not corrupt the screen.
func (x *Logger) Configure(f *File, interactive bool) (func(), error) {
	if f == nil {
		f = &File{}
	}
	x.level = pick(x.level, f.Log.Level)
	x.format = pick(x.format, f.Log.Format)
	x.output = pick(x.output, f.Log.Output)

	level, err := logging.ParseLevel(x.level)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure logger")
	}
	format, err := logging.ParseFormat(x.format)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure logger")
	}

	output := x.output
	if interactive && (output == "" || output == "-" || output == "stderr" || output == "stdout") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to resolve home directory")
		}
		output = filepath.Join(home, ".portal", "portal.log")
	}

	var w io.Writer
	closer := func() {}
	switch output {
	case "", "-", "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		path := expandHome(output)
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, goerr.Wrap(err, "failed to create log directory", goerr.V("path", path))
		}
		// #nosec G304 - log path is provided by the user
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open log file", goerr.V("path", path))
		}
		w = file
		closer = func() {
			if err := file.Close(); err != nil {
				logging.Default().Error("failed to close log file", "error", err.Error())
			}
		}
	}

	logging.SetDefault(logging.New(w, level, format))
	return closer, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
