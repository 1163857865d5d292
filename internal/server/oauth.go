package server

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scanplay/internal/metrics"
	"github.com/desertthunder/scanplay/internal/services"
	"github.com/desertthunder/scanplay/internal/session"
	"github.com/go-chi/chi/v5"
)

// AuthHandlerConfig holds the dependencies of [AuthHandler].
type AuthHandlerConfig struct {
	Tokens  services.TokenService
	Store   *session.Store
	BaseURL string
	Metrics metrics.Recorder
	Logger  *log.Logger
	// Limit wraps every endpoint; nil disables rate limiting.
	Limit Middleware
}

// AuthHandler serves the OAuth2 authorization code flow and the refresh endpoint.
//
// It keeps no state between requests: the refresh token lives in the session cookie and the
// anti-forgery state in a short-lived cookie.
type AuthHandler struct {
	tokens  services.TokenService
	store   *session.Store
	baseURL string
	metrics metrics.Recorder
	logger  *log.Logger
	limit   Middleware
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Store == nil {
		cfg.Store = session.NewStore(false)
	}
	return &AuthHandler{
		tokens:  cfg.Tokens,
		store:   cfg.Store,
		baseURL: cfg.BaseURL,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		limit:   cfg.Limit,
	}
}

func (h *AuthHandler) Pattern() string {
	return "/api"
}

// Routes registers login, callback, refresh and logout.
func (h *AuthHandler) Routes(r chi.Router) {
	if h.limit != nil {
		r.Use(h.limit)
	}
	r.Get("/login", h.Login)
	r.Get("/callback", h.Callback)
	r.Get("/refresh_token", h.Refresh)
	r.Post("/refresh_token", h.Refresh)
	r.Post("/logout", h.Logout)
}

// Login starts the authorization flow.
//
// GET /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := h.store.NewState(w)
	if err != nil {
		h.logger.Error("failed to generate oauth state", "error", err)
		writeText(w, http.StatusInternalServerError, "internal server error")
		return
	}

	noStore(w)
	http.Redirect(w, r, h.tokens.AuthURL(state), http.StatusTemporaryRedirect)
}

// Callback exchanges the authorization code, stores the refresh token and hands the access token to the page.
//
// GET /api/callback?code=xxx&state=yyy
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	code := query.Get("code")
	if code == "" {
		h.metrics.RecordExchange(metrics.OutcomeRejected)
		if reason := query.Get("error"); reason != "" {
			h.logger.Warn("authorization denied", "error", reason, "request_id", RequestID(r.Context()))
			writeText(w, http.StatusBadRequest, "Authorization failed: "+reason)
			return
		}
		writeText(w, http.StatusBadRequest, "Missing code")
		return
	}

	if err := h.store.VerifyState(w, r, query.Get("state")); err != nil {
		h.metrics.RecordExchange(metrics.OutcomeRejected)
		h.logger.Warn("state verification failed", "error", err, "request_id", RequestID(r.Context()))
		writeText(w, http.StatusBadRequest, "Invalid state parameter")
		return
	}

	start := time.Now()
	pair, err := h.tokens.Exchange(r.Context(), code)
	h.metrics.RecordUpstreamLatency("exchange", time.Since(start))
	if err != nil {
		h.metrics.RecordExchange(metrics.OutcomeUpstream)
		h.logger.Error("token exchange failed", "error", err, "request_id", RequestID(r.Context()))
		writeText(w, http.StatusInternalServerError, "Failed to exchange token: "+upstreamText(err))
		return
	}

	if pair.RefreshToken != "" {
		h.store.SaveRefresh(w, pair.RefreshToken)
	}
	h.metrics.RecordExchange(metrics.OutcomeSuccess)
	h.logger.Info("authorization code exchanged", "scopes", pair.Scopes(), "request_id", RequestID(r.Context()))

	params := url.Values{}
	params.Set("access_token", pair.AccessToken)
	params.Set("expires_in", strconv.Itoa(pair.ExpiresIn))

	noStore(w)
	http.Redirect(w, r, h.baseURL+"/?"+params.Encode(), http.StatusTemporaryRedirect)
}

// Refresh mints a new access token from the session cookie.
//
// GET|POST /api/refresh_token
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, err := h.store.RefreshToken(r)
	if err != nil {
		h.metrics.RecordRefresh(metrics.OutcomeNoSession)
		writeJSONError(w, http.StatusUnauthorized, "No refresh token. Please login.")
		return
	}

	start := time.Now()
	pair, err := h.tokens.Refresh(r.Context(), refreshToken)
	h.metrics.RecordUpstreamLatency("refresh", time.Since(start))
	if err != nil {
		h.metrics.RecordRefresh(metrics.OutcomeUpstream)
		h.logger.Error("token refresh failed", "error", err, "request_id", RequestID(r.Context()))
		writeJSONError(w, http.StatusInternalServerError, "Failed to refresh token: "+upstreamText(err))
		return
	}

	if pair.RefreshToken != "" {
		h.store.SaveRefresh(w, pair.RefreshToken)
		h.metrics.RecordRotation()
	}
	h.metrics.RecordRefresh(metrics.OutcomeSuccess)

	writeJSON(w, http.StatusOK, pair.Access())
}

// Logout forgets the session.
//
// POST /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.store.ClearRefresh(w)
	noStore(w)
	w.WriteHeader(http.StatusNoContent)
}

// upstreamText returns the provider's own diagnostic text when there is one.
func upstreamText(err error) string {
	var upErr *services.UpstreamError
	if errors.As(err, &upErr) && upErr.Body != "" {
		return upErr.Body
	}
	return err.Error()
}
