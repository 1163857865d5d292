// Package server provides HTTP routing, middleware, and the OAuth endpoints of the credential exchanger.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [ChiRouter] implements it
// with chi. [Middleware] added first runs outermost.
//
// A [Handler] groups endpoints under a prefix. [AuthHandler] is mounted at /api so the redirect URI
// registered with Spotify is <base>/api/callback.
//
// # Endpoints
//
//	GET      /api/login          307 to the authorize URL, state stored in a cookie
//	GET      /api/callback       400 Missing code | 400 Invalid state parameter | 500 Failed to exchange token | 307 to <base>/?access_token&expires_in
//	GET|POST /api/refresh_token  401 {error} | 500 {error} | 200 {access_token, expires_in, scope, token_type}
//	POST     /api/logout         204, refresh cookie cleared
//	GET      /healthz, /metrics
//
// The access token only ever leaves the server in the callback redirect. The refresh token only ever
// leaves it in an httpOnly cookie. Neither is logged.
//
// # Middleware
//
// Request ids, panic recovery, request logging with status metrics, security headers, and a per-client
// token bucket on /api.
package server
