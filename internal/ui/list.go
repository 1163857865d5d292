package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/scanplay/internal/models"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.TrackReference] to implement [list.Item].
type trackItem struct {
	track models.TrackReference
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return i.track.Name }
func (i trackItem) Description() string {
	desc := i.track.ArtistLine()
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	if !i.track.HasPreview() {
		desc += " • no preview"
	}
	return desc
}

// newHistory builds the empty scan history list.
func newHistory() list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 60, 12)
	l.Title = "Scanned"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	return l
}
