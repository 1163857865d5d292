package shared

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  log.Level
	}{
		{name: "debug", input: "debug", want: log.DebugLevel},
		{name: "mixed case with spaces", input: "  WARN ", want: log.WarnLevel},
		{name: "unknown falls back to info", input: "verbose", want: log.InfoLevel},
		{name: "empty falls back to info", input: "", want: log.InfoLevel},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	require.NoError(t, err)
	b, err := GenerateState()
	require.NoError(t, err)

	assert.Len(t, a, 22, "16 random bytes encode to 22 base64url characters")
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "=")
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := WithLogger(NewLogger(&buf), "component", "test")
	SetLogLevel(logger, log.WarnLevel)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "component=test")
}

func TestBrowser(t *testing.T) {
	origRuntime, origStart := getRuntime, startCommand
	t.Cleanup(func() { getRuntime, startCommand = origRuntime, origStart })

	t.Run("opens url with platform command", func(t *testing.T) {
		var got []string
		getRuntime = func() string { return "linux" }
		startCommand = func(cmd *exec.Cmd) error {
			got = cmd.Args
			return nil
		}

		require.NoError(t, Browser{}.Navigate("http://127.0.0.1:3000/api/login"))
		assert.Equal(t, []string{"xdg-open", "http://127.0.0.1:3000/api/login"}, got)

		require.NoError(t, Browser{}.PlayURL(context.Background(), "https://p.scdn.co/mp3-preview/abc"))
		assert.Equal(t, "https://p.scdn.co/mp3-preview/abc", got[1])
	})

	t.Run("unsupported platform", func(t *testing.T) {
		getRuntime = func() string { return "plan9" }
		assert.ErrorContains(t, OpenBrowser("http://x"), "unsupported platform")
	})

	t.Run("start failure is wrapped", func(t *testing.T) {
		getRuntime = func() string { return "darwin" }
		startCommand = func(*exec.Cmd) error { return errors.New("boom") }
		assert.ErrorContains(t, OpenBrowser("http://x"), "failed to open browser")
	})
}
