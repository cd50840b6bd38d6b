package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/addrbook/internal/assistant"
)

// exchange is one command line and the assistant's reply.
type exchange struct {
	line   string
	reply  string
	failed bool
}

// Model is the Bubble Tea model for an interactive address book session.
type Model struct {
	a          *assistant.Assistant
	input      textinput.Model
	keys       keyMap
	help       help.Model
	transcript []exchange
	width      int
	height     int
	done       bool
}

// ModelOption configures optional Model behavior.
type ModelOption func(*Model)

// WithPrompt sets the text shown before the input field.
func WithPrompt(prompt string) ModelOption {
	return func(m *Model) {
		m.input.Prompt = promptStyle.Render(prompt)
	}
}

// NewModel creates a Model that sends each submitted line to a.
func NewModel(a *assistant.Assistant, opts ...ModelOption) Model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(DefaultPrompt)
	ti.Placeholder = "help"
	ti.Focus()

	m := Model{
		a:     a,
		input: ti,
		keys:  defaultKeyMap(),
		help:  help.New(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Clear):
			m.transcript = nil
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if line == "" {
		return m, nil
	}

	reply := m.a.Handle(line)
	m.transcript = append(m.transcript, exchange{
		line:   line,
		reply:  reply.Text,
		failed: reply.Err != nil,
	})
	if reply.Exit {
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

// View renders the transcript, the input line and the help bar.
func (m Model) View() string {
	var lines []string
	for _, ex := range m.transcript {
		lines = append(lines, echoStyle.Render("> "+ex.line))
		style := replyStyle
		if ex.failed {
			style = errorStyle
		}
		for _, l := range strings.Split(ex.reply, "\n") {
			lines = append(lines, style.Render(l))
		}
	}

	// Keep the tail visible: title, input and help take four rows.
	if m.height > 0 {
		if room := m.height - 4; room >= 0 && len(lines) > room {
			lines = lines[len(lines)-room:]
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(Welcome))
	b.WriteString("\n")
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	if m.done {
		return b.String()
	}
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
