package player

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/scanplay/internal/models"
	"github.com/desertthunder/scanplay/internal/shared"
)

const (
	trackPathMarker = "open.spotify.com/track"
	trackURIPrefix  = "spotify:track:"
	maxTrackIDLen   = 64
)

// ParseScan extracts the track id from decoded scan text.
//
// Text containing open.spotify.com/track yields its trailing path segment without the query. A
// spotify:track: URI yields the rest of the URI. Anything else is [shared.ErrRejectedScan].
func ParseScan(text string) (string, error) {
	text = strings.TrimSpace(text)

	switch {
	case strings.Contains(text, trackPathMarker):
		segment := text[strings.LastIndex(text, "/")+1:]
		if i := strings.IndexAny(segment, "?#"); i >= 0 {
			segment = segment[:i]
		}
		return segment, nil
	case strings.HasPrefix(text, trackURIPrefix):
		return strings.TrimPrefix(text, trackURIPrefix), nil
	}
	return "", shared.ErrRejectedScan
}

// ValidTrackID reports whether id is a non-empty base-62 string.
func ValidTrackID(id string) bool {
	if id == "" || len(id) > maxTrackIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}

// HandleScan processes one detection event from the scanner.
//
// Text that does not name a track is rejected without calling the catalog.
func (c *Controller) HandleScan(ctx context.Context, text string) (*models.TrackReference, error) {
	id, err := ParseScan(text)
	if err != nil {
		c.setStatus("Please scan a Spotify TRACK QR code")
		return nil, err
	}
	return c.ResolveTrack(ctx, id)
}

// ResolveTrack looks id up in the catalog and makes it the current track.
//
// Only one lookup runs per session; a second call while one is outstanding returns [shared.ErrBusy].
// A result that arrives after the session changed is dropped with [shared.ErrStaleResult]. Failures are
// not retried.
func (c *Controller) ResolveTrack(ctx context.Context, id string) (*models.TrackReference, error) {
	if !ValidTrackID(id) {
		c.setStatus("Error loading track")
		return nil, fmt.Errorf("%w: malformed track id %q", shared.ErrLookup, id)
	}

	c.mu.Lock()
	if c.token == "" {
		c.status = "Please log in first"
		c.mu.Unlock()
		c.notify()
		return nil, shared.ErrNotAuthenticated
	}
	if c.lookupInFlight {
		c.mu.Unlock()
		return nil, shared.ErrBusy
	}
	c.lookupInFlight = true
	c.scanSeq++
	seq, epoch, token := c.scanSeq, c.epoch, c.token
	c.status = "Loading track…"
	c.mu.Unlock()
	c.notify()

	ref, err := c.opts.Catalog.Track(ctx, token, id)

	c.mu.Lock()
	if c.scanSeq == seq {
		c.lookupInFlight = false
	}
	if c.epoch != epoch || c.scanSeq != seq {
		c.mu.Unlock()
		c.logger.Debug("discarding stale track lookup", "track_id", id)
		return nil, shared.ErrStaleResult
	}
	if err != nil {
		c.status = "Error loading track"
		c.mu.Unlock()
		c.notify()
		c.logger.Warn("track lookup failed", "track_id", id, "error", err)
		if !errors.Is(err, shared.ErrLookup) {
			err = fmt.Errorf("%w: %w", shared.ErrLookup, err)
		}
		return nil, err
	}
	c.track = ref
	c.status = "Track loaded ✔"
	c.mu.Unlock()
	c.notify()

	c.logger.Info("track loaded", "track_id", ref.ID, "track", ref.String())
	return ref, nil
}

// Run feeds detections from the configured [ScanSource] to the controller until ctx is done or the
// source closes. A landing link is captured as the session token and connects the streaming client;
// anything else goes through [Controller.HandleScan] and, once resolved, to [Options.OnTrack].
// Individual failures only update the status.
func (c *Controller) Run(ctx context.Context) error {
	if c.opts.Scans == nil {
		return shared.ErrServiceUnavailable
	}

	scans := c.opts.Scans.Scans(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case text, ok := <-scans:
			if !ok {
				return nil
			}
			c.handleDetection(ctx, text)
		}
	}
}

func (c *Controller) handleDetection(ctx context.Context, text string) {
	if IsLanding(text) {
		u, err := ParseLanding(text)
		if err != nil {
			c.logger.Warn("unreadable landing link", "error", err)
			return
		}
		if _, ok := c.CaptureToken(ctx, u); ok && c.opts.SDK != nil {
			if err := c.ConnectStreaming(ctx); err != nil {
				c.logger.Warn("no playback device yet", "error", err)
			}
		}
		return
	}

	track, err := c.HandleScan(ctx, text)
	if err != nil {
		c.logger.Debug("scan not handled", "error", err)
		return
	}
	if c.opts.OnTrack != nil {
		c.opts.OnTrack(ctx, track)
	}
}

// LineSource is a [ScanSource] reading one detection per line, as keyboard-wedge scanners emit them.
type LineSource struct {
	R io.Reader
}

func (s LineSource) Scans(ctx context.Context) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(s.R)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			select {
			case out <- line:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
