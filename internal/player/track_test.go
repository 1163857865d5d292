package player

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/scanplay/internal/models"
	"github.com/desertthunder/scanplay/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScan(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr error
	}{
		{"share link with query", "https://open.spotify.com/track/xyz789?si=abc", "xyz789", nil},
		{"plain link", "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", "4uLU6hMCjMI75M1A2tKUQC", nil},
		{"without scheme", "open.spotify.com/track/xyz789", "xyz789", nil},
		{"fragment", "https://open.spotify.com/track/xyz789#top", "xyz789", nil},
		{"surrounding whitespace", "  https://open.spotify.com/track/xyz789\n", "xyz789", nil},
		{"trailing slash yields empty id", "https://open.spotify.com/track/", "", nil},
		{"track uri", "spotify:track:xyz789", "xyz789", nil},
		{"album link", "https://open.spotify.com/album/abc123", "", shared.ErrRejectedScan},
		{"playlist uri", "spotify:playlist:abc123", "", shared.ErrRejectedScan},
		{"arbitrary text", "hello world", "", shared.ErrRejectedScan},
		{"empty", "", "", shared.ErrRejectedScan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScan(tt.text)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidTrackID(t *testing.T) {
	assert.True(t, ValidTrackID("xyz789"))
	assert.True(t, ValidTrackID("4uLU6hMCjMI75M1A2tKUQC"))
	assert.False(t, ValidTrackID(""))
	assert.False(t, ValidTrackID("xyz-789"))
	assert.False(t, ValidTrackID("../me"))
	assert.False(t, ValidTrackID(strings.Repeat("a", 65)))
}

func TestHandleScan(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves the scanned track", func(t *testing.T) {
		h := newHarness(t, nil)
		h.ctrl.CaptureToken(ctx, landing(t, "AT1"))

		ref, err := h.ctrl.HandleScan(ctx, "https://open.spotify.com/track/xyz789?si=abc")
		require.NoError(t, err)
		assert.Equal(t, "xyz789", ref.ID)
		assert.Equal(t, []string{"xyz789"}, h.catalog.TrackCalls())

		snap := h.ctrl.Snapshot()
		assert.Equal(t, ref, snap.Track)
		assert.Equal(t, "Track loaded ✔", snap.Status)
		assert.Contains(t, h.Statuses(), "Loading track…")
	})

	t.Run("non-track text never reaches the catalog", func(t *testing.T) {
		for _, text := range []string{"https://open.spotify.com/album/abc", "not a link", "spotify:artist:abc", ""} {
			h := newHarness(t, nil)
			h.ctrl.CaptureToken(ctx, landing(t, "AT1"))

			_, err := h.ctrl.HandleScan(ctx, text)
			assert.ErrorIs(t, err, shared.ErrRejectedScan)
			assert.Empty(t, h.catalog.TrackCalls(), text)
			assert.Equal(t, "Please scan a Spotify TRACK QR code", h.ctrl.Snapshot().Status)
		}
	})

	t.Run("malformed id never reaches the catalog", func(t *testing.T) {
		h := newHarness(t, nil)
		h.ctrl.CaptureToken(ctx, landing(t, "AT1"))

		_, err := h.ctrl.HandleScan(ctx, "https://open.spotify.com/track/")
		assert.ErrorIs(t, err, shared.ErrLookup)
		assert.Empty(t, h.catalog.TrackCalls())
	})

	t.Run("requires a token", func(t *testing.T) {
		h := newHarness(t, nil)

		_, err := h.ctrl.HandleScan(ctx, "spotify:track:xyz789")
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
		assert.Empty(t, h.catalog.TrackCalls())
	})

	t.Run("lookup failure keeps the previous track and is not retried", func(t *testing.T) {
		h := newHarness(t, nil)
		h.ctrl.CaptureToken(ctx, landing(t, "AT1"))
		_, err := h.ctrl.HandleScan(ctx, "spotify:track:xyz789")
		require.NoError(t, err)

		_, err = h.ctrl.HandleScan(ctx, "spotify:track:missing")
		assert.ErrorIs(t, err, shared.ErrLookup)
		assert.Equal(t, []string{"xyz789", "missing"}, h.catalog.TrackCalls())

		snap := h.ctrl.Snapshot()
		assert.Equal(t, "xyz789", snap.Track.ID)
		assert.Equal(t, "Error loading track", snap.Status)
	})
}

func TestResolveTrackConcurrency(t *testing.T) {
	ctx := context.Background()

	blocked := func(t *testing.T) *harness {
		t.Helper()
		h := newHarness(t, nil)
		h.ctrl.CaptureToken(ctx, landing(t, "AT1"))
		h.catalog.block = make(chan struct{})
		h.catalog.entered = make(chan struct{}, 1)
		return h
	}

	t.Run("second scan while a lookup is in flight is busy", func(t *testing.T) {
		h := blocked(t)

		var wg sync.WaitGroup
		var firstErr error
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, firstErr = h.ctrl.HandleScan(ctx, "spotify:track:xyz789")
		}()
		<-h.catalog.entered

		assert.True(t, h.ctrl.Snapshot().LookupInFlight)
		_, err := h.ctrl.HandleScan(ctx, "spotify:track:xyz789")
		assert.ErrorIs(t, err, shared.ErrBusy)

		close(h.catalog.block)
		wg.Wait()
		require.NoError(t, firstErr)
		assert.Len(t, h.catalog.TrackCalls(), 1)
		assert.False(t, h.ctrl.Snapshot().LookupInFlight)
	})

	t.Run("result from a previous session is discarded", func(t *testing.T) {
		h := blocked(t)

		done := make(chan error, 1)
		go func() {
			_, err := h.ctrl.ResolveTrack(ctx, "xyz789")
			done <- err
		}()
		<-h.catalog.entered

		h.ctrl.CaptureToken(ctx, landing(t, "AT2"))
		close(h.catalog.block)

		select {
		case err := <-done:
			assert.ErrorIs(t, err, shared.ErrStaleResult)
		case <-time.After(5 * time.Second):
			t.Fatal("lookup did not return")
		}
		assert.Nil(t, h.ctrl.Snapshot().Track)
	})

	t.Run("a new session is not blocked by the previous session's lookup", func(t *testing.T) {
		h := blocked(t)

		stale := make(chan error, 1)
		go func() {
			_, err := h.ctrl.ResolveTrack(ctx, "xyz789")
			stale <- err
		}()
		<-h.catalog.entered

		h.ctrl.CaptureToken(ctx, landing(t, "AT2"))
		assert.False(t, h.ctrl.Snapshot().LookupInFlight)

		fresh := make(chan error, 1)
		go func() {
			_, err := h.ctrl.HandleScan(ctx, "https://open.spotify.com/track/xyz789")
			fresh <- err
		}()
		<-h.catalog.entered
		close(h.catalog.block)

		for _, tc := range []struct {
			ch   chan error
			want error
		}{{stale, shared.ErrStaleResult}, {fresh, nil}} {
			select {
			case err := <-tc.ch:
				if tc.want == nil {
					assert.NoError(t, err)
				} else {
					assert.ErrorIs(t, err, tc.want)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("lookup did not return")
			}
		}

		snap := h.ctrl.Snapshot()
		require.NotNil(t, snap.Track)
		assert.Equal(t, "xyz789", snap.Track.ID)
		assert.False(t, snap.LookupInFlight)
		assert.Len(t, h.catalog.TrackCalls(), 2)
	})
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("handles every scan until the source closes", func(t *testing.T) {
		h := newHarness(t, func(o *Options) {
			o.Scans = sliceSource{"not a track", "https://open.spotify.com/track/xyz789?si=1"}
		})
		h.ctrl.CaptureToken(ctx, landing(t, "AT1"))

		require.NoError(t, h.ctrl.Run(ctx))
		assert.Equal(t, []string{"xyz789"}, h.catalog.TrackCalls())
		assert.Equal(t, "xyz789", h.ctrl.Snapshot().Track.ID)
	})

	t.Run("landing links log in and resolved tracks reach OnTrack", func(t *testing.T) {
		var resolved []string
		h := newHarness(t, func(o *Options) {
			o.Scans = sliceSource{
				"spotify:track:xyz789",
				"http://127.0.0.1:3000/?access_token=AT1&expires_in=3600",
				"https://open.spotify.com/album/nope",
				"https://open.spotify.com/track/xyz789?si=1",
			}
			o.OnTrack = func(_ context.Context, track *models.TrackReference) {
				resolved = append(resolved, track.ID)
			}
		})

		require.NoError(t, h.ctrl.Run(ctx))
		assert.Equal(t, []string{"xyz789"}, resolved, "the scan before login is not resolved")
		assert.Equal(t, []string{"xyz789"}, h.catalog.TrackCalls())
		assert.Equal(t, []string{"AT1"}, h.catalog.ProfileCalls())
		assert.Equal(t, DeviceReady, h.ctrl.Snapshot().State)
	})

	t.Run("stops with the context", func(t *testing.T) {
		h := newHarness(t, func(o *Options) {
			o.Scans = LineSource{R: blockingReader{}}
		})
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, h.ctrl.Run(cctx), context.Canceled)
	})

	t.Run("without a scan source", func(t *testing.T) {
		h := newHarness(t, nil)
		assert.ErrorIs(t, h.ctrl.Run(ctx), shared.ErrServiceUnavailable)
	})
}

func TestLineSource(t *testing.T) {
	src := LineSource{R: strings.NewReader("spotify:track:a\n\n  spotify:track:b  \n")}

	var got []string
	for text := range src.Scans(context.Background()) {
		got = append(got, text)
	}
	assert.Equal(t, []string{"spotify:track:a", "spotify:track:b"}, got)
}

type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) {
	select {}
}
