package ui

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/scanplay/internal/models"
	"github.com/desertthunder/scanplay/internal/player"
	"github.com/desertthunder/scanplay/internal/shared"
)

// Player is the part of [player.Controller] the TUI drives.
type Player interface {
	Snapshot() player.Snapshot
	Login() error
	CaptureToken(ctx context.Context, u *url.URL) (*url.URL, bool)
	ConnectStreaming(ctx context.Context) error
	HandleScan(ctx context.Context, text string) (*models.TrackReference, error)
	PlayFull(ctx context.Context) error
	PlayPreview(ctx context.Context) error
}

var _ Player = (*player.Controller)(nil)

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	player  Player
	updates <-chan player.Snapshot
	snap    player.Snapshot
	input   textinput.Model
	history list.Model
	width   int
	height  int
	err     error
	help    help.Model
	keys    keyMap
}

// Watch returns an OnStatus callback for [player.Options] and the channel the [Model] reads it from.
// When the buffer is full the oldest snapshot is dropped; only the latest one matters for rendering.
func Watch(buffer int) (func(player.Snapshot), <-chan player.Snapshot) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan player.Snapshot, buffer)
	return func(s player.Snapshot) {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}, ch
}

// NewModel creates a new TUI model. updates may be nil, in which case the view only refreshes after its own actions.
func NewModel(ctx context.Context, p Player, updates <-chan player.Snapshot) *Model {
	input := textinput.New()
	input.Placeholder = "Scan a Spotify track QR code or paste the landing link"
	input.CharLimit = 2048
	input.Focus()

	return &Model{
		ctx:     ctx,
		player:  p,
		updates: updates,
		snap:    p.Snapshot(),
		input:   input,
		history: newHistory(),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts listening for controller snapshots.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForSnapshot())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-4, 20)
		m.history.SetSize(max(msg.Width-4, 20), max(msg.Height-14, 4))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSnapshot:
		m.snap = msg.data.(player.Snapshot)
		return m, m.waitForSnapshot()

	case MsgScanResolved:
		res := msg.data.(scanResult)
		m.snap = m.player.Snapshot()
		m.err = displayErr(res.err)
		if res.track != nil {
			m.remember(*res.track)
		}
		return m, nil

	case MsgTokenCaptured:
		m.snap = m.player.Snapshot()
		if !msg.data.(bool) {
			m.err = fmt.Errorf("%w: no access_token in the pasted link", shared.ErrInvalidInput)
			return m, nil
		}
		m.err = nil
		return m, m.run(actionConnect, m.player.ConnectStreaming)

	case MsgActionDone:
		res := msg.data.(actionResult)
		m.snap = m.player.Snapshot()
		m.err = displayErr(res.err)
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.submit):
		return m, m.submit()
	case key.Matches(msg, m.keys.login):
		return m, m.run(actionLogin, func(context.Context) error { return m.player.Login() })
	case key.Matches(msg, m.keys.connect):
		return m, m.run(actionConnect, m.player.ConnectStreaming)
	case key.Matches(msg, m.keys.full):
		return m, m.run(actionFull, m.player.PlayFull)
	case key.Matches(msg, m.keys.preview):
		return m, m.run(actionPreview, m.player.PlayPreview)
	case key.Matches(msg, m.keys.up), key.Matches(msg, m.keys.down):
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit routes the input: a landing query is captured as a token, an empty input replays the selected
// history entry and anything else is a scan.
func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	m.input.Reset()

	if text == "" {
		item, ok := m.history.SelectedItem().(trackItem)
		if !ok {
			return nil
		}
		text = item.track.URI
	}

	if player.IsLanding(text) {
		return m.capture(text)
	}

	return func() tea.Msg {
		track, err := m.player.HandleScan(m.ctx, text)
		return scanResolvedMsg(track, err)
	}
}

func (m *Model) capture(text string) tea.Cmd {
	u, err := player.ParseLanding(text)
	if err != nil {
		m.err = err
		return nil
	}
	return func() tea.Msg {
		_, ok := m.player.CaptureToken(m.ctx, u)
		return tokenCapturedMsg(ok)
	}
}

func (m *Model) run(action string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg(action, fn(m.ctx))
	}
}

func (m *Model) waitForSnapshot() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	updates := m.updates
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return nil
		}
		return snapshotMsg(s)
	}
}

// remember moves a resolved track to the top of the history.
func (m *Model) remember(track models.TrackReference) {
	items := []list.Item{trackItem{track: track}}
	for _, it := range m.history.Items() {
		if ti, ok := it.(trackItem); ok && ti.track.ID == track.ID {
			continue
		}
		items = append(items, it)
	}
	m.history.SetItems(items)
	m.history.Select(0)
}

// displayErr hides errors whose outcome is already on the status line.
func displayErr(err error) error {
	switch {
	case err == nil,
		errors.Is(err, shared.ErrRejectedScan),
		errors.Is(err, shared.ErrPlaybackUnavailable),
		errors.Is(err, shared.ErrPreviewUnavailable),
		errors.Is(err, shared.ErrStaleResult),
		errors.Is(err, shared.ErrBusy):
		return nil
	default:
		return err
	}
}

// View renders the session panel, the input and the scan history.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("scanplay"))
	b.WriteString("\n")
	b.WriteString(m.renderSession())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if len(m.history.Items()) > 0 {
		b.WriteString(m.history.View())
		b.WriteString("\n\n")
	}

	b.WriteString(m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

func (m *Model) renderSession() string {
	row := func(label, value string) string {
		return styles.label.Render(label) + value + "\n"
	}

	device := "none"
	if m.snap.DeviceID != "" {
		device = styles.ok.Render(m.snap.DeviceID)
	}

	tier := m.snap.Tier.String()
	if m.snap.Tier == models.TierPremium {
		tier = styles.ok.Render(tier)
	}

	track := styles.help.Render("scan a track")
	if t := m.snap.Track; t != nil {
		track = t.String()
		if !t.HasPreview() {
			track += styles.help.Render(" (no preview)")
		}
	}

	return row("State", m.snap.State.String()) +
		row("Tier", tier) +
		row("Device", device) +
		row("Track", track)
}

func (m *Model) renderStatus() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}
	if m.snap.Status == "" {
		return ""
	}
	if m.snap.LookupInFlight || m.snap.PlayInFlight {
		return styles.warn.Render(m.snap.Status)
	}
	return m.snap.Status
}

// helpKeys only offers the actions that are currently enabled.
func (m *Model) helpKeys() []key.Binding {
	keys := []key.Binding{m.keys.submit}
	if m.snap.State == player.Unauthenticated {
		keys = append(keys, m.keys.login)
	}
	if m.snap.State == player.HasAccessToken {
		keys = append(keys, m.keys.connect)
	}
	if m.snap.CanPlayFull() {
		keys = append(keys, m.keys.full)
	}
	if m.snap.Track.HasPreview() {
		keys = append(keys, m.keys.preview)
	}
	return append(keys, m.keys.quit)
}
