package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/Makepad-fr/portal/internal/logging"
	"github.com/Makepad-fr/portal/internal/model"
)

func TestNew_RedactsSecrets(t *testing.T) {
	for _, format := range []logging.Format{logging.FormatJSON, logging.FormatText} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			logger := logging.New(&buf, slog.LevelDebug, format)

			pw := "hunter2"
			logger.Info("saving user",
				"input", model.UserInput{Name: "Ann", Password: &pw},
				"creds", struct{ Token string }{Token: "tok-123"},
			)
			gt.String(t, buf.String()).Contains("Ann")
			gt.Bool(t, strings.Contains(buf.String(), "hunter2")).False()
			gt.Bool(t, strings.Contains(buf.String(), "tok-123")).False()
		})
	}
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelWarn, logging.FormatJSON)
	logger.Info("quiet")
	gt.Value(t, buf.Len()).Equal(0)
	logger.Warn("loud")
	gt.String(t, buf.String()).Contains("loud")
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in   string
		want slog.Level
		err  bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "DEBUG", want: slog.LevelDebug},
		{in: "warning", want: slog.LevelWarn},
		{in: " error ", want: slog.LevelError},
		{in: "trace", err: true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := logging.ParseLevel(tc.in)
			if tc.err {
				gt.Value(t, err).NotNil()
				return
			}
			gt.NoError(t, err)
			gt.Value(t, got).Equal(tc.want)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := logging.ParseFormat("JSON")
	gt.NoError(t, err)
	gt.Value(t, f).Equal(logging.FormatJSON)

	f, err = logging.ParseFormat("")
	gt.NoError(t, err)
	gt.Value(t, f).Equal(logging.FormatText)

	_, err = logging.ParseFormat("xml")
	gt.Value(t, err).NotNil()
}

func TestFrom(t *testing.T) {
	gt.Value(t, logging.From(context.Background())).Equal(logging.Default())

	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelInfo, logging.FormatJSON)
	ctx := logging.With(context.Background(), logger)
	logging.From(ctx).Info("scoped")
	gt.String(t, buf.String()).Contains("scoped")
}
