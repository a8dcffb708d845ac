// Package tui implements the live view for streaming mode: a status bar,
// the classification table and key bindings to reset or quit.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/papapumpkin/parallax/internal/ingest"
	"github.com/papapumpkin/parallax/internal/ui"
)

// Source is the part of the ingestion service the live view drives.
type Source interface {
	Snapshot() ingest.View
	Reset(ctx context.Context) error
}

// MsgView carries a fresh View from the service.
type MsgView struct {
	View ingest.View
}

// MsgResetDone is sent when a reset requested from the keyboard finishes.
type MsgResetDone struct {
	Err error
}

// msgClosed is sent when the update channel closes.
type msgClosed struct{}

// Model is the root BubbleTea model.
type Model struct {
	Source    Source
	Updates   <-chan ingest.View
	Current   ingest.View
	Keys      KeyMap
	Width     int
	Height    int
	Resetting bool
	LastErr   error
}

// NewModel creates a model seeded with src's current View.
func NewModel(src Source, updates <-chan ingest.View) Model {
	return Model{
		Source:  src,
		Updates: updates,
		Current: src.Snapshot(),
		Keys:    DefaultKeyMap(),
	}
}

// Init starts listening for service updates.
func (m Model) Init() tea.Cmd {
	return waitForView(m.Updates)
}

func waitForView(ch <-chan ingest.View) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return msgClosed{}
		}
		return MsgView{View: v}
	}
}

func resetCmd(src Source) tea.Cmd {
	return func() tea.Msg {
		return MsgResetDone{Err: src.Reset(context.Background())}
	}
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.Keys.Reset):
			if m.Resetting {
				return m, nil
			}
			m.Resetting = true
			return m, resetCmd(m.Source)
		}

	case MsgView:
		m.Current = msg.View
		return m, waitForView(m.Updates)

	case MsgResetDone:
		m.Resetting = false
		m.LastErr = msg.Err
		m.Current = m.Source.Snapshot()

	case msgClosed:
		return m, tea.Quit
	}
	return m, nil
}

// View renders the full screen.
func (m Model) View() string {
	v := m.Current
	bar := StatusBar{
		Processed:     len(v.ProcessedFiles),
		ActiveFile:    v.ActiveFile,
		Phase:         v.Phase,
		PendingBodies: v.PendingBodies,
		Resetting:     m.Resetting,
		Width:         m.Width,
	}

	var body strings.Builder
	body.WriteString(ui.RenderTable(v.Table))
	body.WriteByte('\n')
	switch {
	case m.LastErr != nil:
		body.WriteString(styleError.Render(iconFailed + " reset failed: " + m.LastErr.Error()))
	case v.Status != nil:
		body.WriteString(styleError.Render(iconFailed + " " + v.Status.Error()))
	default:
		body.WriteString(styleOK.Render(iconOK + " up to date"))
	}

	footer := Footer{Width: m.Width, Bindings: FooterBindings(m.Keys)}
	return bar.View() + "\n" + styleBody.Render(body.String()) + "\n" + footer.View()
}
