// package session keeps the refresh credential and the OAuth state in cookies
package session

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/scanplay/internal/shared"
)

const (
	// RefreshCookie holds the refresh credential. Page script can never read it.
	RefreshCookie = "spotify_refresh_token"
	// StateCookie holds the anti-forgery state between login and callback.
	StateCookie = "spotify_auth_state"

	RefreshMaxAge = 30 * 24 * time.Hour
	StateMaxAge   = 10 * time.Minute
)

// Store reads and writes the session cookies. It holds no per-user state.
type Store struct {
	secure bool
}

// NewStore creates a Store. Secure cookies are only issued when secure is set, so local http development works.
func NewStore(secure bool) *Store {
	return &Store{secure: secure}
}

// Secure reports whether issued cookies carry the Secure attribute.
func (s *Store) Secure() bool {
	return s.secure
}

// SaveRefresh writes the refresh cookie, replacing any existing one.
//
// MaxAge is fixed at 30 days regardless of the credential's real lifetime.
func (s *Store) SaveRefresh(w http.ResponseWriter, token string) {
	http.SetCookie(w, s.cookie(RefreshCookie, token, int(RefreshMaxAge.Seconds())))
}

// RefreshToken returns the stored refresh credential or [shared.ErrNoSession].
func (s *Store) RefreshToken(r *http.Request) (string, error) {
	c, err := r.Cookie(RefreshCookie)
	if err != nil || c.Value == "" {
		return "", shared.ErrNoSession
	}
	return c.Value, nil
}

// ClearRefresh expires the refresh cookie.
func (s *Store) ClearRefresh(w http.ResponseWriter) {
	http.SetCookie(w, s.expired(RefreshCookie))
}

// NewState generates a state token and stores it in the state cookie.
func (s *Store) NewState(w http.ResponseWriter) (string, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, s.cookie(StateCookie, state, int(StateMaxAge.Seconds())))
	return state, nil
}

// VerifyState compares got with the stored state and clears the state cookie either way.
func (s *Store) VerifyState(w http.ResponseWriter, r *http.Request, got string) error {
	c, err := r.Cookie(StateCookie)
	if err == nil {
		http.SetCookie(w, s.expired(StateCookie))
	}

	switch {
	case err != nil || c.Value == "":
		return fmt.Errorf("%w: no state cookie", shared.ErrInvalidState)
	case got == "":
		return fmt.Errorf("%w: no state in callback", shared.ErrInvalidState)
	case subtle.ConstantTimeCompare([]byte(c.Value), []byte(got)) != 1:
		return fmt.Errorf("%w: mismatch", shared.ErrInvalidState)
	}
	return nil
}

func (s *Store) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

func (s *Store) expired(name string) *http.Cookie {
	c := s.cookie(name, "", -1)
	c.Expires = time.Unix(0, 0).UTC()
	return c
}
