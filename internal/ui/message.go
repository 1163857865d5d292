package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/scanplay/internal/models"
	"github.com/desertthunder/scanplay/internal/player"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSnapshot MsgKind = iota
	MsgScanResolved
	MsgActionDone
	MsgTokenCaptured
)

// Action names carried by [MsgActionDone].
const (
	actionLogin   = "login"
	actionConnect = "connect"
	actionFull    = "play"
	actionPreview = "preview"
)

type scanResult struct {
	track *models.TrackReference
	err   error
}

type actionResult struct {
	action string
	err    error
}

// snapshotMsg is the constructor for [MsgSnapshot]
func snapshotMsg(s player.Snapshot) Msg {
	return Msg{kind: MsgSnapshot, data: s}
}

// scanResolvedMsg is the constructor for [MsgScanResolved]
func scanResolvedMsg(track *models.TrackReference, err error) Msg {
	return Msg{kind: MsgScanResolved, data: scanResult{track, err}}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(action string, err error) Msg {
	return Msg{kind: MsgActionDone, data: actionResult{action, err}}
}

// tokenCapturedMsg is the constructor for [MsgTokenCaptured]
func tokenCapturedMsg(ok bool) Msg {
	return Msg{kind: MsgTokenCaptured, data: ok}
}
