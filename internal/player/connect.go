package player

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/scanplay/internal/models"
	"github.com/desertthunder/scanplay/internal/shared"
)

// DeviceLister lists the account's Spotify Connect devices.
type DeviceLister interface {
	Devices(ctx context.Context, token string) ([]models.Device, error)
}

// ConnectSDK is a [StreamingSDK] for terminals: instead of hosting a player in-process it adopts one of
// the account's Spotify Connect devices (desktop app, phone, speaker) as the playback device.
type ConnectSDK struct {
	Devices DeviceLister
	// Prefer picks a device by name, case-insensitively. Otherwise the active device wins, then the first.
	Prefer   string
	Attempts int
	Interval time.Duration
}

func (s *ConnectSDK) Load(context.Context) error {
	if s.Devices == nil {
		return fmt.Errorf("%w: no device lister", shared.ErrServiceUnavailable)
	}
	return nil
}

func (s *ConnectSDK) NewClient(opts ClientOptions) (StreamingClient, error) {
	if opts.Token == nil || opts.OnReady == nil {
		return nil, fmt.Errorf("%w: token and ready callbacks are required", shared.ErrMissingArgument)
	}
	return &connectClient{sdk: s, opts: opts}, nil
}

type connectClient struct {
	sdk  *ConnectSDK
	opts ClientOptions

	mu       sync.Mutex
	deviceID string
}

// Connect polls the device list until a device shows up or the attempts run out.
func (c *connectClient) Connect(ctx context.Context) error {
	attempts := max(c.sdk.Attempts, 1)
	interval := c.sdk.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	for i := range attempts {
		if i > 0 {
			timer := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		token, err := c.opts.Token(ctx)
		if err != nil {
			return err
		}
		devices, err := c.sdk.Devices.Devices(ctx, token)
		if err != nil {
			return err
		}
		if device, ok := pickDevice(devices, c.sdk.Prefer); ok {
			c.mu.Lock()
			c.deviceID = device.ID
			c.mu.Unlock()
			c.opts.OnReady(device.ID)
			return nil
		}
	}
	return fmt.Errorf("%w: open Spotify on a device and try again", shared.ErrNoDevice)
}

func (c *connectClient) Disconnect() {
	c.mu.Lock()
	id := c.deviceID
	c.deviceID = ""
	c.mu.Unlock()

	if id != "" && c.opts.OnNotReady != nil {
		c.opts.OnNotReady(id)
	}
}

func pickDevice(devices []models.Device, prefer string) (models.Device, bool) {
	if len(devices) == 0 {
		return models.Device{}, false
	}
	if prefer != "" {
		for _, d := range devices {
			if strings.EqualFold(d.Name, prefer) {
				return d, true
			}
		}
	}
	for _, d := range devices {
		if d.Active {
			return d, true
		}
	}
	return devices[0], true
}
