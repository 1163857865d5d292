package player

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/scanplay/internal/models"
	"github.com/desertthunder/scanplay/internal/shared"
)

// PlayFull plays the current track on the streaming device.
//
// It is refused with [shared.ErrPlaybackUnavailable] before any network call unless a track is loaded,
// the device is ready and the account is Premium. A rejected command is [shared.ErrPlayback] and is not
// retried.
func (c *Controller) PlayFull(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.track == nil:
		c.status = "Scan a track first!"
		c.mu.Unlock()
		c.notify()
		return fmt.Errorf("%w: no track loaded", shared.ErrPlaybackUnavailable)
	case c.state != DeviceReady:
		c.status = "Player is not ready yet"
		c.mu.Unlock()
		c.notify()
		return fmt.Errorf("%w: device not ready", shared.ErrPlaybackUnavailable)
	case c.tier != models.TierPremium:
		c.status = "Full tracks require Spotify Premium"
		c.mu.Unlock()
		c.notify()
		return fmt.Errorf("%w: tier is %s", shared.ErrPlaybackUnavailable, c.tier)
	case c.playInFlight:
		c.mu.Unlock()
		return shared.ErrBusy
	}
	c.playInFlight = true
	epoch, token, deviceID, track := c.epoch, c.token, c.deviceID, c.track
	c.mu.Unlock()
	c.notify()

	err := c.opts.Catalog.Play(ctx, token, deviceID, track.URI)

	c.mu.Lock()
	if c.epoch != epoch {
		// The command went out with the previous token. If it was accepted the device is playing anyway.
		if err == nil {
			c.status = "Playing 🎵 (started before the new login)"
		}
		c.mu.Unlock()
		c.notify()
		return shared.ErrStaleResult
	}
	c.playInFlight = false
	if err != nil {
		c.status = "Unable to play (Premium required?)"
		c.mu.Unlock()
		c.notify()
		c.logger.Warn("playback command rejected", "track_id", track.ID, "error", err)
		if !errors.Is(err, shared.ErrPlayback) {
			err = fmt.Errorf("%w: %w", shared.ErrPlayback, err)
		}
		return err
	}
	c.status = "Playing 🎵"
	c.mu.Unlock()
	c.notify()
	return nil
}

// PlayPreview plays the 30 second preview of the current track.
//
// A track without a preview fails with [shared.ErrPreviewUnavailable] and nothing is played.
func (c *Controller) PlayPreview(ctx context.Context) error {
	c.mu.Lock()
	track := c.track
	switch {
	case track == nil:
		c.status = "Scan a track first!"
		c.mu.Unlock()
		c.notify()
		return fmt.Errorf("%w: no track loaded", shared.ErrPreviewUnavailable)
	case !track.HasPreview():
		c.status = "No preview available for this track"
		c.mu.Unlock()
		c.notify()
		return shared.ErrPreviewUnavailable
	case c.opts.Audio == nil:
		c.mu.Unlock()
		return shared.ErrServiceUnavailable
	}
	c.mu.Unlock()

	if err := c.opts.Audio.PlayURL(ctx, track.PreviewURL); err != nil {
		c.setStatus("Unable to play preview")
		return fmt.Errorf("%w: %w", shared.ErrPlayback, err)
	}
	c.setStatus("Playing preview (30s)")
	return nil
}
