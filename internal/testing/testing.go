// package testing contains shared testing utilities
package testing

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// PlayCall records one playback command received by [FakeProvider].
type PlayCall struct {
	Token    string
	DeviceID string
	URIs     []string
}

// FakeProvider imitates the Spotify accounts service and Web API on a local [httptest.Server].
//
// Token endpoint: POST /api/token. Web API: /v1/me, /v1/tracks/{id}, /v1/me/player/play, /v1/me/player/devices.
type FakeProvider struct {
	Server *httptest.Server

	mu            sync.Mutex
	tokenStatus   int
	tokenBody     string
	tokenRequests []url.Values
	tracks        map[string]string
	product       string
	profileStatus int
	playStatus    int
	plays         []PlayCall
	devices       string
	calls         map[string]int
}

// NewFakeProvider starts a provider that is closed when the test ends.
func NewFakeProvider(t *testing.T) *FakeProvider {
	t.Helper()

	f := &FakeProvider{
		tokenStatus:   http.StatusOK,
		tokenBody:     `{"access_token":"AT1","refresh_token":"RT1","expires_in":3600,"scope":"streaming","token_type":"Bearer"}`,
		tracks:        map[string]string{},
		product:       "premium",
		profileStatus: http.StatusOK,
		playStatus:    http.StatusNoContent,
		devices:       `{"devices":[]}`,
		calls:         map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", f.handleToken)
	mux.HandleFunc("/v1/me", f.handleProfile)
	mux.HandleFunc("/v1/tracks/", f.handleTrack)
	mux.HandleFunc("/v1/me/player/play", f.handlePlay)
	mux.HandleFunc("/v1/me/player/devices", f.handleDevices)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeProvider) AuthURL() string  { return f.Server.URL + "/authorize" }
func (f *FakeProvider) TokenURL() string { return f.Server.URL + "/api/token" }
func (f *FakeProvider) APIURL() string   { return f.Server.URL + "/v1" }

// SetToken sets the status and raw body returned by the token endpoint.
func (f *FakeProvider) SetToken(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenStatus, f.tokenBody = status, body
}

// AddTrack registers a catalog entry. An empty previewURL is served as JSON null.
func (f *FakeProvider) AddTrack(id, name string, artists []string, previewURL string) {
	type artist struct {
		Name string `json:"name"`
	}
	type image struct {
		URL string `json:"url"`
	}
	payload := map[string]any{
		"id":   id,
		"name": name,
		"uri":  "spotify:track:" + id,
		"album": map[string]any{
			"name":   name + " (Album)",
			"images": []image{{URL: "https://i.scdn.co/image/" + id}},
		},
		"preview_url": nil,
	}
	var list []artist
	for _, a := range artists {
		list = append(list, artist{Name: a})
	}
	payload["artists"] = list
	if previewURL != "" {
		payload["preview_url"] = previewURL
	}

	data, _ := json.Marshal(payload)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracks[id] = string(data)
}

// SetProfile sets the product field and status of /v1/me.
func (f *FakeProvider) SetProfile(status int, product string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileStatus, f.product = status, product
}

// SetPlayStatus sets the status returned by the playback command.
func (f *FakeProvider) SetPlayStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playStatus = status
}

// SetDevices sets the raw device list body.
func (f *FakeProvider) SetDevices(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices = body
}

// Calls returns how many requests reached path.
func (f *FakeProvider) Calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

// TokenRequests returns the form bodies received by the token endpoint.
func (f *FakeProvider) TokenRequests() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.tokenRequests...)
}

// Plays returns the playback commands received.
func (f *FakeProvider) Plays() []PlayCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]PlayCall(nil), f.plays...)
}

func (f *FakeProvider) count(r *http.Request) {
	f.calls[r.URL.Path]++
}

func (f *FakeProvider) handleToken(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()

	f.mu.Lock()
	f.count(r)
	f.tokenRequests = append(f.tokenRequests, r.PostForm)
	status, body := f.tokenStatus, f.tokenBody
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (f *FakeProvider) handleProfile(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.count(r)
	status, product := f.profileStatus, f.product
	f.mu.Unlock()

	if status != http.StatusOK {
		http.Error(w, `{"error":{"status":401,"message":"The access token expired"}}`, status)
		return
	}
	writeJSON(w, map[string]string{"id": "user-1", "display_name": "Test User", "product": product})
}

func (f *FakeProvider) handleTrack(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/tracks/")

	f.mu.Lock()
	f.count(r)
	body, ok := f.tracks[id]
	f.mu.Unlock()

	if !ok {
		http.Error(w, `{"error":{"status":404,"message":"Non existing id"}}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func (f *FakeProvider) handlePlay(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URIs []string `json:"uris"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.count(r)
	f.plays = append(f.plays, PlayCall{
		Token:    strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "),
		DeviceID: r.URL.Query().Get("device_id"),
		URIs:     body.URIs,
	})
	status := f.playStatus
	f.mu.Unlock()

	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	http.Error(w, `{"error":{"status":403,"message":"Player command failed: Premium required"}}`, status)
}

func (f *FakeProvider) handleDevices(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.count(r)
	body := f.devices
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
