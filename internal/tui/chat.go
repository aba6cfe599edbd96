// Package tui implements the terminal chat front-end.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ziadkadry99/esg-assistant/internal/assistant"
	"github.com/ziadkadry99/esg-assistant/internal/prompt"
)

// Conversation is the TUI-facing subset of an assistant session.
type Conversation interface {
	Ask(ctx context.Context, question string, onFragment func(string)) (*assistant.Answer, error)
	Clear()
}

// Streaming messages carry the turn they belong to so that events from a
// turn abandoned by /clear are dropped.
type fragmentMsg struct {
	turn int
	text string
}

type answerMsg struct {
	turn   int
	answer *assistant.Answer
	err    error
}

// closedMsg reports that the goroutine of a turn has returned.
type closedMsg struct{ turn int }

type entry struct {
	role    assistant.Role
	text    string
	sources []assistant.Source
	failed  bool
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	conv     Conversation
	labels   prompt.Labels
	greeting string
	examples []string
	next     int

	input    textinput.Model
	viewport viewport.Model
	entries  []entry
	pending  strings.Builder
	busy     bool
	turn     int
	events   chan tea.Msg
	cancel   context.CancelFunc
	status   string
	ready    bool
	width    int

	// A turn abandoned by /clear keeps the conversation busy until its
	// goroutine returns; input is refused until then.
	draining     <-chan tea.Msg
	drainingTurn int
}

// New creates a chat model. Tab cycles through examples.
func New(conv Conversation, labels prompt.Labels, greeting string, examples []string) *Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = labels.Placeholder
	ti.Focus()
	ti.CharLimit = 0
	m := &Model{
		conv:     conv,
		labels:   labels,
		greeting: greeting,
		examples: examples,
		input:    ti,
		viewport: viewport.New(0, 0),
		width:    80,
	}
	m.reset()
	return m
}

func (m *Model) reset() {
	m.entries = []entry{{role: assistant.RoleAssistant, text: m.greeting}}
	m.pending.Reset()
}

// Init starts the cursor blink.
func (m *Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and streaming events.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = max(20, msg.Width)
		_, fh := transcriptStyle.GetFrameSize()
		m.viewport.Width = m.width
		m.viewport.Height = max(3, msg.Height-fh-4)
		m.refresh()
		return m, nil

	case fragmentMsg:
		if msg.turn != m.turn || !m.busy {
			return m, m.keepDraining(msg.turn)
		}
		m.pending.WriteString(msg.text)
		m.refresh()
		return m, waitForEvent(m.turn, m.events)

	case answerMsg:
		if msg.turn != m.turn || !m.busy {
			return m, m.keepDraining(msg.turn)
		}
		m.finish(msg)
		return m, nil

	case closedMsg:
		if m.draining != nil && msg.turn == m.drainingTurn {
			m.draining = nil
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			m.stop()
			return m, tea.Quit
		case tea.KeyTab:
			if len(m.examples) > 0 && !m.busy {
				m.input.SetValue(m.examples[m.next%len(m.examples)])
				m.input.CursorEnd()
				m.next++
			}
			return m, nil
		case tea.KeyEnter:
			return m, m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}
	switch text {
	case "/quit", "/exit":
		m.stop()
		return tea.Quit
	case "/clear":
		if m.busy {
			m.draining = m.events
			m.drainingTurn = m.turn
		}
		m.stop()
		m.conv.Clear()
		m.reset()
		m.busy = false
		m.status = m.labels.Cleared
		m.input.Reset()
		m.refresh()
		return nil
	}
	if m.busy || m.draining != nil {
		m.status = assistant.UserMessage(assistant.ErrBusy)
		return nil
	}

	m.input.Reset()
	m.entries = append(m.entries, entry{role: assistant.RoleUser, text: text})
	m.pending.Reset()
	m.busy = true
	m.status = m.labels.Thinking
	m.refresh()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.turn++
	turn := m.turn
	events := make(chan tea.Msg)
	m.events = events
	conv := m.conv
	go func() {
		defer close(events)
		send := func(msg tea.Msg) {
			select {
			case events <- msg:
			case <-ctx.Done():
			}
		}
		ans, err := conv.Ask(ctx, text, func(f string) { send(fragmentMsg{turn: turn, text: f}) })
		send(answerMsg{turn: turn, answer: ans, err: err})
	}()
	return waitForEvent(turn, events)
}

func waitForEvent(turn int, events <-chan tea.Msg) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return closedMsg{turn: turn}
		}
		return msg
	}
}

// keepDraining keeps reading the events of the turn abandoned by /clear.
func (m *Model) keepDraining(turn int) tea.Cmd {
	if m.draining == nil || turn != m.drainingTurn {
		return nil
	}
	return waitForEvent(turn, m.draining)
}

func (m *Model) finish(msg answerMsg) {
	m.busy = false
	m.pending.Reset()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.events = nil
	if msg.err != nil {
		m.entries = append(m.entries, entry{role: assistant.RoleAssistant, text: assistant.UserMessage(msg.err), failed: true})
		m.status = m.labels.Failed
	} else {
		m.entries = append(m.entries, entry{role: assistant.RoleAssistant, text: msg.answer.Text, sources: msg.answer.Sources})
		m.status = fmt.Sprintf(m.labels.SourceCountFormat, len(msg.answer.Sources))
	}
	m.refresh()
}

func (m *Model) stop() {
	m.turn++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.events = nil
}

// Busy reports whether an answer is being produced.
func (m *Model) Busy() bool { return m.busy }

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// View renders the title, transcript, input line and status.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render(m.labels.Title)
	transcript := transcriptStyle.Render(m.viewport.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + m.input.View() + "\n" + status
}

func (m *Model) renderTranscript() string {
	wrap := lipgloss.NewStyle().Width(max(10, m.width-4))
	var sb strings.Builder
	for _, e := range m.entries {
		sb.WriteString(m.renderEntry(e, wrap))
		sb.WriteString("\n\n")
	}
	if m.busy {
		sb.WriteString(assistantStyle.Render(m.labels.Assistant + ": "))
		sb.WriteString(wrap.Render(m.pending.String()))
		sb.WriteString("▌")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m *Model) renderEntry(e entry, wrap lipgloss.Style) string {
	var sb strings.Builder
	switch {
	case e.role == assistant.RoleUser:
		sb.WriteString(userStyle.Render(m.labels.You + ": "))
	case e.failed:
		sb.WriteString(errorStyle.Render(m.labels.Assistant + ": "))
	default:
		sb.WriteString(assistantStyle.Render(m.labels.Assistant + ": "))
	}
	sb.WriteString(wrap.Render(e.text))
	for _, src := range e.sources {
		sb.WriteString("\n")
		sb.WriteString(sourceStyle.Render("  " + m.labels.Source(src.Document, src.Page)))
	}
	return sb.String()
}

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	sourceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
