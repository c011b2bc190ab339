// Package tui provides the terminal UI for interactive rider location publishing.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"rider-publisher/src/publisher"
)

// maxHistory bounds the number of result lines kept on screen.
const maxHistory = 200

// SendResultMsg reports the outcome of one submitted line.
type SendResultMsg struct {
	Line      int
	Input     string
	Name      string
	Location  string
	Partition int32
	Err       error
}

type queuedLine struct {
	n    int
	line string
}

// Model is the bubbletea model for the interactive publisher.
// Submitted lines are queued and dispatched in order, at most
// pub.MaxInFlight() at a time.
type Model struct {
	ctx      context.Context
	pub      *publisher.Publisher
	input    textinput.Model
	history  []SendResultMsg
	styles   *StyleConfig
	width    int
	height   int
	lines    int
	queue    []queuedLine
	pending  int
	draining bool
	done     bool
}

// NewModel creates a model that publishes through pub. pub must already be connected.
func NewModel(ctx context.Context, pub *publisher.Publisher) Model {
	ti := textinput.New()
	ti.Prompt = publisher.Prompt
	ti.Placeholder = "name location"
	ti.CharLimit = 256
	ti.Focus()

	return Model{
		ctx:    ctx,
		pub:    pub,
		input:  ti,
		styles: DefaultStyles(),
		width:  80,
		height: 24,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-VisualWidth(publisher.Prompt)-2, 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d", "esc":
			// Queued and in-flight lines finish before quitting.
			m.draining = true
			return m.quitIfIdle()
		case "enter":
			if m.draining {
				return m, nil
			}
			line := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(line) == "" {
				return m, nil
			}
			m.lines++
			m.queue = append(m.queue, queuedLine{n: m.lines, line: line})
			return m.dispatch()
		}

	case SendResultMsg:
		m.pending--
		m.history = append(m.history, msg)
		if len(m.history) > maxHistory {
			m.history = m.history[len(m.history)-maxHistory:]
		}
		if m.draining && len(m.queue) == 0 {
			return m.quitIfIdle()
		}
		return m.dispatch()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// dispatch starts queued sends while fewer than MaxInFlight are pending.
func (m Model) dispatch() (Model, tea.Cmd) {
	var cmds []tea.Cmd
	for len(m.queue) > 0 && m.pending < m.pub.MaxInFlight() {
		next := m.queue[0]
		m.queue = m.queue[1:]
		m.pending++
		cmds = append(cmds, m.send(next.n, next.line))
	}
	switch len(cmds) {
	case 0:
		return m, nil
	case 1:
		return m, cmds[0]
	default:
		return m, tea.Batch(cmds...)
	}
}

func (m Model) quitIfIdle() (Model, tea.Cmd) {
	if m.pending > 0 || len(m.queue) > 0 {
		return m, nil
	}
	m.done = true
	return m, tea.Quit
}

// send publishes line off the UI goroutine and reports back with a SendResultMsg.
func (m Model) send(n int, line string) tea.Cmd {
	ctx, pub := m.ctx, m.pub
	return func() tea.Msg {
		event, partition, err := pub.SendLine(ctx, line)
		if err != nil {
			err = &publisher.LineError{Line: n, Input: line, Err: err}
		}
		return SendResultMsg{
			Line:      n,
			Input:     line,
			Name:      event.Name,
			Location:  event.Location,
			Partition: partition,
			Err:       err,
		}
	}
}

func (m Model) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	title := m.styles.TitleStyle().Render("rider-publisher")
	stats := m.pub.Stats()
	status := m.styles.HelpStyle().Render(fmt.Sprintf("%s · sent %d · failed %d · malformed %d · pending %d",
		m.pub.State(), stats.Sent, stats.Failed, stats.Malformed, m.pending+len(m.queue)))
	b.WriteString(title + status + "\n")

	visible := m.height - 6
	if visible < 1 {
		visible = 1
	}
	start := 0
	if len(m.history) > visible {
		start = len(m.history) - visible
	}

	var rows []string
	for _, entry := range m.history[start:] {
		rows = append(rows, TruncateStyled(m.renderEntry(entry), m.width-4))
	}
	if len(rows) == 0 {
		rows = append(rows, m.styles.HelpStyle().Render("type \"<name> <location>\" and press enter"))
	}
	b.WriteString(m.styles.HistoryStyle().Width(max(m.width-2, 20)).Render(strings.Join(rows, "\n")))
	b.WriteString("\n")

	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.draining {
		b.WriteString(m.styles.HelpStyle().Render("finishing pending sends..."))
	} else {
		b.WriteString(m.styles.HelpStyle().Render("enter: send • ctrl+d/esc: disconnect and quit"))
	}
	return b.String()
}

func (m Model) renderEntry(r SendResultMsg) string {
	if r.Err != nil {
		return fmt.Sprintf("%s %s", m.styles.ErrorStyle().Render("✗"), Sanitize(r.Err.Error()))
	}
	badge := m.styles.PartitionStyle(r.Partition).Render(fmt.Sprintf("[p%d]", r.Partition))
	return fmt.Sprintf("%s %s %s @ %s", m.styles.OKStyle().Render("✓"), badge,
		Truncate(Sanitize(r.Name), 32, true), Truncate(Sanitize(r.Location), 32, true))
}

// Start connects pub, runs the interactive UI until the operator quits and
// then disconnects. Disconnect waits for any send still in flight, e.g.
// when ctx is cancelled before the queue drained.
func Start(ctx context.Context, pub *publisher.Publisher) error {
	if err := pub.Connect(ctx); err != nil {
		return err
	}

	p := tea.NewProgram(NewModel(ctx, pub), tea.WithContext(ctx))
	_, runErr := p.Run()

	if err := pub.Disconnect(); err != nil {
		return err
	}
	if runErr != nil && ctx.Err() == nil {
		return fmt.Errorf("tui error: %w", runErr)
	}
	return nil
}
