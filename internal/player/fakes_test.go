package player

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/desertthunder/scanplay/internal/models"
	"github.com/desertthunder/scanplay/internal/shared"
	"github.com/stretchr/testify/require"
)

type playArgs struct {
	token, deviceID, uri string
}

type fakeCatalog struct {
	mu           sync.Mutex
	tracks       map[string]*models.TrackReference
	product      string
	profileErr   error
	playErr      error
	trackCalls   []string
	profileCalls []string
	plays        []playArgs

	// block, when set, holds Track until a value is sent.
	block   chan struct{}
	entered chan struct{}
	// playBlock does the same for Play.
	playBlock   chan struct{}
	playEntered chan struct{}
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		tracks: map[string]*models.TrackReference{
			"xyz789": {
				ID:         "xyz789",
				Name:       "Song",
				Artists:    []string{"Artist A", "Artist B"},
				Album:      "Album",
				URI:        "spotify:track:xyz789",
				PreviewURL: "https://p.scdn.co/mp3-preview/xyz789",
			},
			"nopreview": {ID: "nopreview", Name: "Quiet", Artists: []string{"Artist C"}, URI: "spotify:track:nopreview"},
		},
		product: "premium",
	}
}

func (f *fakeCatalog) Track(ctx context.Context, token, id string) (*models.TrackReference, error) {
	f.mu.Lock()
	f.trackCalls = append(f.trackCalls, id)
	block, entered := f.block, f.entered
	ref, ok := f.tracks[id]
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if !ok {
		return nil, errors.New("status 404: Non existing id")
	}
	return ref, nil
}

func (f *fakeCatalog) Profile(ctx context.Context, token string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileCalls = append(f.profileCalls, token)
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return &models.Profile{ID: "user-1", Product: f.product}, nil
}

func (f *fakeCatalog) Play(ctx context.Context, token, deviceID, uri string) error {
	f.mu.Lock()
	f.plays = append(f.plays, playArgs{token, deviceID, uri})
	block, entered, err := f.playBlock, f.playEntered, f.playErr
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return err
}

func (f *fakeCatalog) TrackCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.trackCalls...)
}

func (f *fakeCatalog) ProfileCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.profileCalls...)
}

func (f *fakeCatalog) Plays() []playArgs {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]playArgs(nil), f.plays...)
}

type fakeClient struct {
	opts         ClientOptions
	deviceID     string
	connectErr   error
	disconnected bool
}

func (c *fakeClient) Connect(ctx context.Context) error {
	if c.connectErr != nil {
		return c.connectErr
	}
	if c.deviceID != "" {
		c.opts.OnReady(c.deviceID)
	}
	return nil
}

func (c *fakeClient) Disconnect() {
	c.disconnected = true
}

type fakeSDK struct {
	mu         sync.Mutex
	loads      int
	loadErr    error
	deviceID   string
	connectErr error
	clients    []*fakeClient
}

func (s *fakeSDK) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return s.loadErr
}

func (s *fakeSDK) NewClient(opts ClientOptions) (StreamingClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &fakeClient{opts: opts, deviceID: s.deviceID, connectErr: s.connectErr}
	s.clients = append(s.clients, c)
	return c, nil
}

type fakeNavigator struct {
	urls []string
	err  error
}

func (n *fakeNavigator) Navigate(url string) error {
	n.urls = append(n.urls, url)
	return n.err
}

type fakeAudio struct {
	urls []string
}

func (a *fakeAudio) PlayURL(ctx context.Context, url string) error {
	a.urls = append(a.urls, url)
	return nil
}

type fakeRefresher struct {
	mu     sync.Mutex
	calls  int
	access *models.AccessResponse
	err    error
}

func (r *fakeRefresher) Refresh(ctx context.Context) (*models.AccessResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.access, nil
}

func (r *fakeRefresher) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type sliceSource []string

func (s sliceSource) Scans(ctx context.Context) <-chan string {
	out := make(chan string, len(s))
	for _, text := range s {
		out <- text
	}
	close(out)
	return out
}

type harness struct {
	ctrl    *Controller
	catalog *fakeCatalog
	sdk     *fakeSDK
	nav     *fakeNavigator
	audio   *fakeAudio

	mu        sync.Mutex
	snapshots []Snapshot
}

func (h *harness) Statuses() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, s := range h.snapshots {
		out = append(out, s.Status)
	}
	return out
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()
	h := &harness{
		catalog: newFakeCatalog(),
		sdk:     &fakeSDK{deviceID: "device-1"},
		nav:     &fakeNavigator{},
		audio:   &fakeAudio{},
	}
	opts := Options{
		LoginURL:  "http://127.0.0.1:3000/api/login",
		Catalog:   h.catalog,
		SDK:       h.sdk,
		Navigator: h.nav,
		Audio:     h.audio,
		Logger:    shared.NewLogger(discard{}),
		OnStatus: func(s Snapshot) {
			h.mu.Lock()
			h.snapshots = append(h.snapshots, s)
			h.mu.Unlock()
		},
	}
	if mutate != nil {
		mutate(&opts)
	}

	ctrl, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)
	h.ctrl = ctrl
	return h
}

// ready captures a token and connects the streaming client.
func (h *harness) ready(t *testing.T, token string) {
	t.Helper()
	_, ok := h.ctrl.CaptureToken(context.Background(), landing(t, token))
	require.True(t, ok)
	require.NoError(t, h.ctrl.ConnectStreaming(context.Background()))
	require.Equal(t, DeviceReady, h.ctrl.Snapshot().State)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
