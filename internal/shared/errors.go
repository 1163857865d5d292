package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Credential exchange errors
	ErrMissingGrant     = fmt.Errorf("missing authorization code")
	ErrInvalidState     = fmt.Errorf("invalid state parameter")
	ErrUpstreamExchange = fmt.Errorf("failed to exchange token")
	ErrUpstreamRefresh  = fmt.Errorf("failed to refresh token")
	ErrNoSession        = fmt.Errorf("no refresh token")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// Catalog and playback errors
	ErrAPIRequest          = fmt.Errorf("API request failed")
	ErrLookup              = fmt.Errorf("track lookup failed")
	ErrRejectedScan        = fmt.Errorf("scan is not a track link")
	ErrBusy                = fmt.Errorf("operation already in progress")
	ErrPlayback            = fmt.Errorf("playback command rejected")
	ErrPlaybackUnavailable = fmt.Errorf("full playback unavailable")
	ErrPreviewUnavailable  = fmt.Errorf("no preview available")
	ErrSDKLoad             = fmt.Errorf("streaming client failed to load")
	ErrNoDevice            = fmt.Errorf("no playback device available")
	ErrStaleResult         = fmt.Errorf("result superseded by a newer session")
	ErrServiceUnavailable  = fmt.Errorf("service unavailable")
	ErrInvalidInput        = fmt.Errorf("invalid input")
	ErrMissingArgument     = fmt.Errorf("missing required argument")
	ErrInvalidArgument     = fmt.Errorf("invalid argument")
)
