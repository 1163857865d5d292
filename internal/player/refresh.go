package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/scanplay/internal/models"
	"github.com/desertthunder/scanplay/internal/shared"
)

const (
	// RefreshMargin is how long before expiry the token is renewed.
	RefreshMargin   = 60 * time.Second
	minRefreshDelay = time.Second
)

// RefreshNow swaps in a fresh access token from the [Refresher].
//
// The session epoch does not change, so the tier stays resolved and the streaming client picks the
// token up through its callback. On failure the current token is kept. Without a current token the
// refreshed one starts a session the same way [Controller.CaptureToken] does.
func (c *Controller) RefreshNow(ctx context.Context) error {
	if c.opts.Refresher == nil {
		return shared.ErrServiceUnavailable
	}

	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()

	access, err := c.opts.Refresher.Refresh(ctx)
	if err != nil {
		c.setStatus("Session expired, please log in again")
		c.logger.Warn("token refresh failed", "error", err)
		return err
	}

	expiresIn := access.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return shared.ErrStaleResult
	}
	fresh := c.token == ""
	if fresh {
		epoch = c.nextEpochLocked()
		c.tier = models.TierUnknown
		if c.state < HasAccessToken {
			c.state = HasAccessToken
		}
		c.status = "Logged in"
	}
	c.token = access.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)
	c.mu.Unlock()

	c.logger.Info("access token refreshed", "expires_in", expiresIn)
	c.notify()

	if fresh {
		c.resolveTier(ctx, epoch, access.AccessToken)
	}
	return nil
}

// StartRefresh renews the token [RefreshMargin] before each expiry until ctx is done or a refresh fails.
func (c *Controller) StartRefresh(ctx context.Context) error {
	if c.opts.Refresher == nil {
		return fmt.Errorf("%w: no refresher configured", shared.ErrServiceUnavailable)
	}
	go c.refreshLoop(ctx)
	return nil
}

func (c *Controller) refreshLoop(ctx context.Context) {
	for {
		c.mu.Lock()
		expiresAt := c.expiresAt
		c.mu.Unlock()

		delay := time.Until(expiresAt) - RefreshMargin
		if expiresAt.IsZero() {
			delay = RefreshMargin
		}
		delay = max(delay, minRefreshDelay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if !c.hasToken() {
			continue
		}
		if err := c.RefreshNow(ctx); err != nil && !errors.Is(err, shared.ErrStaleResult) {
			return
		}
	}
}

func (c *Controller) hasToken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != ""
}
