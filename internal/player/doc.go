// Package player implements the playback session controller.
//
// A [Controller] owns one session: the access token, the streaming client and the current track. It
// moves through
//
//	Unauthenticated → Authenticating → HasAccessToken → StreamingClientConnecting → DeviceReady
//
// while the subscription tier moves from unknown to free or premium once per access token. A failed
// profile lookup resolves to free.
//
// # Capabilities
//
// Everything the controller touches outside itself is injected through [Options]: the [Catalog], the
// [StreamingSDK], a [Navigator] for login, an [AudioSink] for previews, a [ScanSource] for detections and
// an optional [Refresher]. The streaming client never holds a token; it pulls one through the
// controller's [TokenFunc].
//
// # Concurrency
//
// Only one track lookup and one playback command run at a time; a second trigger gets
// [shared.ErrBusy]. Results that arrive after a new token was captured are dropped.
package player
