package player

import (
	"context"
	"fmt"

	"github.com/desertthunder/scanplay/internal/shared"
)

// TokenFunc is the pull-based credential callback: the streaming client asks for the token whenever it
// needs one, so a rotated token is picked up without reconnecting.
type TokenFunc func(ctx context.Context) (string, error)

// ClientOptions configures one streaming client. The callbacks belong to the controller that built
// the client.
type ClientOptions struct {
	Name       string
	Token      TokenFunc
	OnReady    func(deviceID string)
	OnNotReady func(deviceID string)
}

// StreamingClient registers a playback device for the account.
type StreamingClient interface {
	Connect(ctx context.Context) error
	Disconnect()
}

// StreamingSDK loads the streaming runtime and builds clients.
type StreamingSDK interface {
	Load(ctx context.Context) error
	NewClient(opts ClientOptions) (StreamingClient, error)
}

// ConnectStreaming loads the SDK once, builds the controller's single streaming client and connects it.
//
// Calls made while a connection is underway, or after the client exists, return nil without doing
// anything. DeviceReady is reached when the client reports a device id.
func (c *Controller) ConnectStreaming(ctx context.Context) error {
	if c.opts.SDK == nil {
		return shared.ErrServiceUnavailable
	}

	c.mu.Lock()
	if c.token == "" {
		c.mu.Unlock()
		return shared.ErrNotAuthenticated
	}
	if c.sdkLoading || c.client != nil {
		c.mu.Unlock()
		return nil
	}
	c.sdkLoading = true
	c.state = StreamingClientConnecting
	c.status = "Connecting player…"
	loaded := c.sdkLoaded
	c.mu.Unlock()
	c.notify()

	if !loaded {
		if err := c.opts.SDK.Load(ctx); err != nil {
			c.connectFailed("Streaming player failed to load")
			return fmt.Errorf("%w: %w", shared.ErrSDKLoad, err)
		}
		c.mu.Lock()
		c.sdkLoaded = true
		c.mu.Unlock()
	}

	client, err := c.opts.SDK.NewClient(ClientOptions{
		Name:       c.opts.PlayerName,
		Token:      c.Token,
		OnReady:    c.onReady,
		OnNotReady: c.onNotReady,
	})
	if err != nil {
		c.connectFailed("Streaming player failed to start")
		return fmt.Errorf("%w: %w", shared.ErrSDKLoad, err)
	}

	if err := client.Connect(ctx); err != nil {
		client.Disconnect()
		c.connectFailed("No playback device available")
		return err
	}

	c.mu.Lock()
	c.client = client
	c.sdkLoading = false
	c.mu.Unlock()
	return nil
}

func (c *Controller) connectFailed(status string) {
	c.mu.Lock()
	c.sdkLoading = false
	if c.state == StreamingClientConnecting {
		c.state = HasAccessToken
	}
	c.status = status
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) onReady(deviceID string) {
	c.mu.Lock()
	c.deviceID = deviceID
	c.state = DeviceReady
	c.status = "Player ready ✔"
	c.mu.Unlock()

	c.logger.Info("playback device ready", "device_id", deviceID)
	c.notify()
}

func (c *Controller) onNotReady(deviceID string) {
	c.mu.Lock()
	if c.deviceID != deviceID {
		c.mu.Unlock()
		return
	}
	c.deviceID = ""
	c.state = StreamingClientConnecting
	c.status = "Player went offline"
	c.mu.Unlock()

	c.logger.Warn("playback device went offline", "device_id", deviceID)
	c.notify()
}
