// Package services implements the clients that talk to Spotify on behalf of the server and the player.
//
// # Credential Exchanger
//
// [Exchanger] implements [TokenService] with [oauth2.Config]. Exchange sends grant_type=authorization_code,
// Refresh sends grant_type=refresh_token; both put the client credentials in the form body.
//
// Neither call is retried. A failure from the token endpoint surfaces as [UpstreamError], which keeps the
// provider's HTTP status and body text so the server can show them verbatim.
//
// # Catalog
//
// [SpotifyService] implements [Catalog]: track lookup, the profile used for tier gating, the playback
// command and the Connect device list. It holds no token; every call takes the access token of the
// session it serves.
//
// # Refresh Client
//
// [RefreshClient] is the page-side caller of the server's refresh endpoint. The session cookie lives in
// its cookie jar.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrMissingGrant] : empty authorization code
//   - [shared.ErrNoSession] : no refresh token available
//   - [shared.ErrUpstreamExchange], [shared.ErrUpstreamRefresh] : token endpoint rejected the request
//   - [shared.ErrLookup] : track not found or malformed
//   - [shared.ErrPlayback] : playback command rejected
package services
