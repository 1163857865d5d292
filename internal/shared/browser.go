package shared

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// startCommand launches cmd without waiting for it. Replaced in tests.
var startCommand = func(cmd *exec.Cmd) error { return cmd.Start() }

// OpenBrowser opens the default system browser to the specified URL.
//
// Supports macOS, Linux, and Windows platforms.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	rt := getRuntime()
	switch rt {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := startCommand(cmd); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}

// Browser hands URLs to the system browser.
//
// It serves as the login navigator and as the preview audio sink of the terminal player: a preview URL
// is an mp3 that every desktop browser plays inline.
type Browser struct{}

// Navigate opens url as a full navigation away from the terminal.
func (Browser) Navigate(url string) error {
	return OpenBrowser(url)
}

// PlayURL opens an audio URL for playback.
func (Browser) PlayURL(_ context.Context, url string) error {
	return OpenBrowser(url)
}
