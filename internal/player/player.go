package player

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scanplay/internal/models"
	"github.com/desertthunder/scanplay/internal/shared"
)

// defaultExpiresIn applies when the landing URL carries no expires_in.
const defaultExpiresIn = 3600

// State is the position of the controller in the session lifecycle.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	HasAccessToken
	StreamingClientConnecting
	DeviceReady
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case HasAccessToken:
		return "has access token"
	case StreamingClientConnecting:
		return "connecting"
	case DeviceReady:
		return "device ready"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Catalog is the part of the Web API the controller calls.
type Catalog interface {
	Track(ctx context.Context, token, trackID string) (*models.TrackReference, error)
	Profile(ctx context.Context, token string) (*models.Profile, error)
	Play(ctx context.Context, token, deviceID, trackURI string) error
}

// Navigator performs a full navigation away from the player.
type Navigator interface {
	Navigate(url string) error
}

// AudioSink plays a preview asset.
type AudioSink interface {
	PlayURL(ctx context.Context, url string) error
}

// ScanSource delivers one decoded string per detection. The channel closes when the source is exhausted.
type ScanSource interface {
	Scans(ctx context.Context) <-chan string
}

// Refresher mints a new access token for the current session.
type Refresher interface {
	Refresh(ctx context.Context) (*models.AccessResponse, error)
}

// Snapshot is a copy of the controller's observable state.
type Snapshot struct {
	State          State
	Tier           models.Tier
	DeviceID       string
	Track          *models.TrackReference
	Status         string
	ExpiresAt      time.Time
	LookupInFlight bool
	PlayInFlight   bool
}

// CanPlayFull reports whether the full playback action is enabled.
func (s Snapshot) CanPlayFull() bool {
	return s.Track != nil && s.State == DeviceReady && s.Tier == models.TierPremium && !s.PlayInFlight
}

// Options configures a [Controller]. Catalog is required; the other capabilities are optional and the
// operations that need a missing one fail with [shared.ErrServiceUnavailable].
type Options struct {
	LoginURL   string
	PlayerName string

	Catalog   Catalog
	SDK       StreamingSDK
	Navigator Navigator
	Audio     AudioSink
	Scans     ScanSource
	Refresher Refresher

	// OnStatus receives a snapshot after every observable change. It is called without locks held.
	OnStatus func(Snapshot)
	// OnTrack receives every track [Controller.Run] resolves, after it became the current track.
	OnTrack func(context.Context, *models.TrackReference)
	Logger   *log.Logger
}

// Controller owns one page session: the access token, the streaming client and the loaded track.
//
// All methods are safe for concurrent use. Network calls run without the lock; each records the session
// epoch and scan sequence it started under and drops its result if either moved on.
type Controller struct {
	opts   Options
	logger *log.Logger

	mu        sync.Mutex
	state     State
	tier      models.Tier
	token     string
	expiresAt time.Time
	epoch     uint64
	scanSeq   uint64
	deviceID  string
	track     *models.TrackReference
	status    string

	lookupInFlight bool
	playInFlight   bool
	sdkLoading     bool
	sdkLoaded      bool
	client         StreamingClient
}

// New creates a Controller in the Unauthenticated state.
func New(opts Options) (*Controller, error) {
	if opts.Catalog == nil {
		return nil, shared.ErrMissingArgument
	}
	if opts.PlayerName == "" {
		opts.PlayerName = "QR Player"
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Controller{opts: opts, logger: opts.Logger}, nil
}

// Snapshot returns the current observable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:          c.state,
		Tier:           c.tier,
		DeviceID:       c.deviceID,
		Track:          c.track,
		Status:         c.status,
		ExpiresAt:      c.expiresAt,
		LookupInFlight: c.lookupInFlight,
		PlayInFlight:   c.playInFlight,
	}
}

// notify publishes the current snapshot. Callers must not hold the lock.
func (c *Controller) notify() {
	if c.opts.OnStatus == nil {
		return
	}
	c.opts.OnStatus(c.Snapshot())
}

// setStatus updates the status line and publishes it.
func (c *Controller) setStatus(msg string) {
	c.mu.Lock()
	c.status = msg
	c.mu.Unlock()
	c.notify()
}

// Token returns the current access token. It is the pull-based credential callback handed to the
// streaming client.
func (c *Controller) Token(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" {
		return "", shared.ErrNotAuthenticated
	}
	return c.token, nil
}

// Login navigates to the login endpoint.
//
// Unauthenticated moves to Authenticating. A session that already has a token stays usable until the
// next token is captured.
func (c *Controller) Login() error {
	if c.opts.Navigator == nil || c.opts.LoginURL == "" {
		return shared.ErrServiceUnavailable
	}

	c.mu.Lock()
	prev := c.state
	if c.state == Unauthenticated {
		c.state = Authenticating
	}
	c.status = "Redirecting to Spotify…"
	c.mu.Unlock()
	c.notify()

	if err := c.opts.Navigator.Navigate(c.opts.LoginURL); err != nil {
		c.mu.Lock()
		c.state = prev
		c.status = "Unable to open the login page"
		c.mu.Unlock()
		c.notify()
		return err
	}
	return nil
}

// CaptureToken reads access_token and expires_in from the landing URL and returns the URL with both
// removed. ok is false when the URL carries no token.
//
// A new token starts a new session epoch and resolves the subscription tier with one profile lookup.
// Capturing the token already held changes nothing.
func (c *Controller) CaptureToken(ctx context.Context, u *url.URL) (cleaned *url.URL, ok bool) {
	if u == nil {
		return nil, false
	}

	query := u.Query()
	token := query.Get("access_token")
	expiresIn, err := strconv.Atoi(query.Get("expires_in"))
	if err != nil || expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}

	stripped := *u
	query.Del("access_token")
	query.Del("expires_in")
	stripped.RawQuery = query.Encode()

	if token == "" {
		return &stripped, false
	}

	c.mu.Lock()
	if token == c.token {
		c.mu.Unlock()
		return &stripped, true
	}
	epoch := c.nextEpochLocked()
	c.token = token
	c.expiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)
	c.tier = models.TierUnknown
	if c.state < HasAccessToken {
		c.state = HasAccessToken
	}
	c.status = "Logged in"
	c.mu.Unlock()

	c.logger.Info("access token captured", "expires_in", expiresIn)
	c.notify()

	c.resolveTier(ctx, epoch, token)
	return &stripped, true
}

// nextEpochLocked starts a new session epoch. Calls still running under the old epoch no longer hold
// the in-flight flags; their results are dropped when they return.
func (c *Controller) nextEpochLocked() uint64 {
	c.epoch++
	c.lookupInFlight = false
	c.playInFlight = false
	return c.epoch
}

// IsLanding reports whether text carries an access token, as the landing URL after login does.
func IsLanding(text string) bool {
	return strings.Contains(text, "access_token=")
}

// ParseLanding accepts either the full landing URL or just its query string.
func ParseLanding(text string) (*url.URL, error) {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, "://") && !strings.HasPrefix(text, "?") {
		if i := strings.Index(text, "access_token="); i >= 0 {
			text = "?" + text[i:]
		}
	}
	u, err := url.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return u, nil
}

// resolveTier performs the single profile lookup of an epoch. Any failure degrades to free.
func (c *Controller) resolveTier(ctx context.Context, epoch uint64, token string) {
	tier := models.TierFree
	profile, err := c.opts.Catalog.Profile(ctx, token)
	if err != nil {
		c.logger.Warn("profile lookup failed, assuming free tier", "error", err)
	} else {
		tier = profile.Tier()
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return
	}
	c.tier = tier
	c.mu.Unlock()

	c.logger.Debug("tier resolved", "tier", tier)
	c.notify()
}

// Close disconnects the streaming client, if any.
func (c *Controller) Close() {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()

	if client != nil {
		client.Disconnect()
	}
}
