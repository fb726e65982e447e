package logr

import (
	"bytes"
	"errors"
	"testing"

	"log/slog"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name string
		min  slog.Leveler
		log  func(logger logr.Logger)
		want string
	}{
		{
			"info",
			slog.LevelInfo,
			func(logger logr.Logger) {
				logger.Info("created student", "id", "s1")
			},
			"level=INFO msg=\"created student\" id=s1\n",
		},
		{
			"error",
			slog.LevelInfo,
			func(logger logr.Logger) {
				logger.Error(errors.New("connection refused"), "creating student", "id", "s1")
			},
			"level=ERROR msg=\"creating student\" error=\"connection refused\" id=s1\n",
		},
		{
			"debug",
			slog.LevelDebug,
			func(logger logr.Logger) {
				logger.V(1).Info("retrieved student", "id", "s1")
			},
			"level=DEBUG msg=\"retrieved student\" id=s1\n",
		},
		{
			"debug below minimum debug level",
			slog.Level(-5),
			func(logger logr.Logger) {
				logger.V(1).Info("retrieved student", "id", "s1")
			},
			"level=DEBUG msg=\"retrieved student\" id=s1\n",
		},
		{
			"verbosity enables matching v-level",
			toSlogLevel(9),
			func(logger logr.Logger) {
				logger.V(9).Info("retrieved student", "id", "s1")
			},
			"level=DEBUG-8 msg=\"retrieved student\" id=s1\n",
		},
		{
			"verbosity hides higher v-level",
			toSlogLevel(9),
			func(logger logr.Logger) {
				logger.V(10).Info("should not see this", "id", "s1")
			},
			"",
		},
		{
			"hide debug",
			slog.LevelInfo,
			func(logger logr.Logger) {
				logger.V(1).Info("should not see this", "id", "s1")
			},
			"",
		},
		{
			"with values",
			slog.LevelInfo,
			func(logger logr.Logger) {
				logger.WithValues("component", "store").Info("connected")
			},
			"level=INFO msg=connected component=store\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got bytes.Buffer
			logger := logr.New(newLogSink(slog.NewTextHandler(&got, newTestOptions(tt.min))))
			tt.log(logger)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"", "default", "text", "json"} {
		_, err := New(&Config{Format: format})
		require.NoError(t, err, format)
	}

	_, err := New(&Config{Format: "xml"})
	assert.EqualError(t, err, "unrecognised logging format: xml")
}

func TestToSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, toSlogLevel(0))
	assert.Equal(t, slog.LevelDebug, toSlogLevel(1))
	assert.Equal(t, slog.Level(-13), toSlogLevel(10))
}

func TestLevelFromV(t *testing.T) {
	for v := range 12 {
		assert.Equal(t, toSlogLevel(v), levelFromV(v), "v=%d", v)
	}
	assert.Equal(t, slog.LevelInfo, levelFromV(0))
	assert.Equal(t, slog.LevelDebug, levelFromV(1))
	assert.Equal(t, slog.Level(-5), levelFromV(2))
}

func newTestOptions(min slog.Leveler) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: min,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Remove time.
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	}
}
