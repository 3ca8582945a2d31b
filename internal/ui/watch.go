package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/wrtsync/internal/reconcile"
	"github.com/muurk/wrtsync/internal/syncer"
	"github.com/muurk/wrtsync/internal/wireless"
)

type watchKeyMap struct {
	ClearPlan key.Binding
	Quit      key.Binding
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ClearPlan, k.Quit}
}

func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// updateMsg carries one engine update into the program
type updateMsg syncer.Update

// streamClosedMsg is sent once the update channel is closed
type streamClosedMsg struct{}

// WatchModel is a live view of one router, fed by engine updates.
type WatchModel struct {
	Name     string
	Snapshot *wireless.Snapshot
	Plan     reconcile.Plan
	Updates  int
	Closed   bool

	updates <-chan syncer.Update
	spinner spinner.Model
	help    help.Model
	keys    watchKeyMap
	width   int
}

// NewWatchModel creates a watch view reading from updates.
func NewWatchModel(name string, updates <-chan syncer.Update) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = TitleStyle

	return WatchModel{
		Name:    name,
		updates: updates,
		spinner: s,
		help:    help.New(),
		keys: watchKeyMap{
			ClearPlan: key.NewBinding(
				key.WithKeys("c"),
				key.WithHelp("c", "clear changes"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "esc", "ctrl+c"),
				key.WithHelp("q", "quit"),
			),
		},
		width: GetTerminalWidth(),
	}
}

func waitForUpdate(ch <-chan syncer.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return updateMsg(u)
	}
}

// Init starts the spinner and the first channel read
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForUpdate(m.updates))
}

// Update handles messages and updates the model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.ClearPlan):
			m.Plan = reconcile.Plan{}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if m.width > MaxContentWidth {
			m.width = MaxContentWidth
		}
		return m, nil

	case updateMsg:
		m.Snapshot = msg.Snapshot
		m.Updates++
		// Refreshes re-send every element as an update; only keep plans
		// that add or remove something.
		if len(msg.Plan.ToAdd) > 0 || len(msg.Plan.ToRemove) > 0 {
			m.Plan = msg.Plan
		}
		return m, waitForUpdate(m.updates)

	case streamClosedMsg:
		m.Closed = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the model
func (m WatchModel) View() string {
	var b strings.Builder

	if m.Snapshot == nil {
		b.WriteString(m.spinner.View() + " Connecting to " + m.Name + "...\n")
	} else {
		b.WriteString(RenderSnapshot(m.Name, m.Snapshot, m.width))
		b.WriteString("\n")
		if plan := RenderPlan(m.Plan); plan != "" {
			b.WriteString(TitleStyle.Render("Last changes") + "\n")
			b.WriteString(plan + "\n")
		}
		b.WriteString(m.spinner.View() + SubtitleStyle.Render(" watching") + "\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// RunWatch runs the watch view until the user quits or updates closes.
func RunWatch(name string, updates <-chan syncer.Update) error {
	_, err := tea.NewProgram(NewWatchModel(name, updates)).Run()
	return err
}

// ChannelSink adapts a channel to a syncer.Sink. Updates are dropped
// when the channel is full.
type ChannelSink chan syncer.Update

// Publish implements syncer.Sink
func (c ChannelSink) Publish(_ context.Context, u syncer.Update) error {
	select {
	case c <- u:
	default:
	}
	return nil
}
