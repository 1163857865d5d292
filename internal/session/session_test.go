package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/scanplay/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestStore(t *testing.T) {
	t.Run("SaveRefresh", func(t *testing.T) {
		tests := []struct {
			name   string
			secure bool
		}{
			{"development", false},
			{"production", true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := httptest.NewRecorder()
				NewStore(tt.secure).SaveRefresh(rec, "RT1")

				c := findCookie(rec, RefreshCookie)
				require.NotNil(t, c)
				assert.Equal(t, "RT1", c.Value)
				assert.True(t, c.HttpOnly)
				assert.Equal(t, tt.secure, c.Secure)
				assert.Equal(t, "/", c.Path)
				assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
				assert.Equal(t, 30*24*60*60, c.MaxAge)
			})
		}
	})

	t.Run("RefreshToken", func(t *testing.T) {
		store := NewStore(false)

		t.Run("present", func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/refresh_token", nil)
			req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "RT1"})

			token, err := store.RefreshToken(req)
			require.NoError(t, err)
			assert.Equal(t, "RT1", token)
		})

		t.Run("absent", func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/refresh_token", nil)
			_, err := store.RefreshToken(req)
			assert.ErrorIs(t, err, shared.ErrNoSession)
		})

		t.Run("empty", func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/refresh_token", nil)
			req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: ""})
			_, err := store.RefreshToken(req)
			assert.ErrorIs(t, err, shared.ErrNoSession)
		})
	})

	t.Run("ClearRefresh", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewStore(false).ClearRefresh(rec)

		c := findCookie(rec, RefreshCookie)
		require.NotNil(t, c)
		assert.Empty(t, c.Value)
		assert.Less(t, c.MaxAge, 0)
	})

	t.Run("State", func(t *testing.T) {
		store := NewStore(false)

		issue := func(t *testing.T) string {
			t.Helper()
			rec := httptest.NewRecorder()
			state, err := store.NewState(rec)
			require.NoError(t, err)

			c := findCookie(rec, StateCookie)
			require.NotNil(t, c)
			assert.Equal(t, state, c.Value)
			assert.Equal(t, 600, c.MaxAge)
			return state
		}

		t.Run("matching state", func(t *testing.T) {
			state := issue(t)
			req := httptest.NewRequest(http.MethodGet, "/api/callback", nil)
			req.AddCookie(&http.Cookie{Name: StateCookie, Value: state})
			rec := httptest.NewRecorder()

			require.NoError(t, store.VerifyState(rec, req, state))
			c := findCookie(rec, StateCookie)
			require.NotNil(t, c, "state cookie is cleared after use")
			assert.Less(t, c.MaxAge, 0)
		})

		tests := []struct {
			name   string
			cookie string
			got    string
		}{
			{"mismatch", "expected", "forged"},
			{"missing from callback", "expected", ""},
			{"missing cookie", "", "forged"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req := httptest.NewRequest(http.MethodGet, "/api/callback", nil)
				if tt.cookie != "" {
					req.AddCookie(&http.Cookie{Name: StateCookie, Value: tt.cookie})
				}
				err := store.VerifyState(httptest.NewRecorder(), req, tt.got)
				assert.ErrorIs(t, err, shared.ErrInvalidState)
			})
		}

		t.Run("states are unique", func(t *testing.T) {
			assert.NotEqual(t, issue(t), issue(t))
		})
	})
}
