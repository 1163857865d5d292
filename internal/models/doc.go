// Package models defines the domain entities shared by the credential exchanger, the catalog client and the
// playback session controller.
//
// The package contains two categories of types:
//
// 1. Credentials: values produced by the identity provider's token endpoint
//   - [CredentialPair] : access/refresh token pair returned by an exchange or refresh
//   - [AccessResponse] : the page-facing subset of a refresh (never carries the refresh token)
//
// 2. Playback: values the controller holds for the lifetime of a page session
//   - [TrackReference] : a scanned track resolved against the catalog
//   - [Profile] : the account profile used to derive the [Tier]
//   - [Device] : the streaming endpoint registered for the user
//
// None of these types are persisted. Access tokens live only in memory and refresh tokens only in an
// httpOnly cookie.
package models
