// Package ui implements the interactive player terminal using bubbletea's Elm architecture.
//
// A single view shows the session: state, subscription tier, the ready device, the loaded track and the
// latest status line, above a text input fed by a keyboard-wedge QR scanner (or typed by hand).
//
// Submitted text containing access_token is treated as the login landing query and captured; anything
// else is treated as a scan. Resolved tracks are kept in a history list that can be replayed.
//
// The (view) [Model] receives controller snapshots through a channel, the same way long-running work
// reports progress, so status changes made by background refreshes show up without polling.
package ui
