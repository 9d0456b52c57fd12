// Package tui is the terminal rendition of the chat widget.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/meeting-agent/chatwidget/internal/model/chat"
	chatService "github.com/meeting-agent/chatwidget/internal/service/chat"
)

const eventBuffer = 256

type eventMsg chatService.Event

type subscriptionClosedMsg struct{}

// Model renders one chat client: transcript on top, composer at the bottom.
type Model struct {
	client     *chatService.Client
	sub        *chatService.Subscription
	backendURL string

	input    textinput.Model
	viewport viewport.Model
	renderer *glamour.TermRenderer

	messages  []chat.Message
	retrieval bool
	pending   int
	width     int
	height    int
	ready     bool
	quitting  bool
}

// New builds the model and subscribes it to client. Close releases the
// subscription once the program exits.
func New(client *chatService.Client, backendURL string) Model {
	sub := client.Subscribe(eventBuffer)

	ti := textinput.New()
	ti.Placeholder = "Ask about meetings..."
	ti.CharLimit = 2000
	ti.Prompt = "> "
	ti.SetValue(sub.Draft.Text)
	ti.Focus()

	return Model{
		client:     client,
		sub:        sub,
		backendURL: backendURL,
		input:      ti,
		messages:   sub.Messages,
		retrieval:  sub.Draft.UseRetrieval,
		width:      80,
		height:     24,
	}
}

// Close stops the transcript subscription.
func (m Model) Close() {
	m.sub.Close()
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.sub))
}

func waitForEvent(sub *chatService.Subscription) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub.Events
		if !ok {
			return subscriptionClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case eventMsg:
		m.applyEvent(chatService.Event(msg))
		return m, waitForEvent(m.sub)

	case subscriptionClosedMsg:
		// fell behind; resync from the client and listen again
		m.sub = m.client.Subscribe(eventBuffer)
		m.messages = m.sub.Messages
		m.refreshTranscript()
		return m, waitForEvent(m.sub)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "ctrl+r":
		m.client.SetRetrieval(!m.retrieval)
		m.retrieval = !m.retrieval
		return m, nil

	case "enter":
		m.client.SetText(m.input.Value())
		if _, ok := m.client.Submit(context.Background()); ok {
			m.pending++
		}
		return m, nil

	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.client.SetText(m.input.Value())
	return m, cmd
}

func (m *Model) applyEvent(ev chatService.Event) {
	switch ev.Type {
	case chatService.EventMessage:
		m.messages = append(m.messages, *ev.Message)
		if ev.Message.Role == chat.RoleAssistant && m.pending > 0 {
			m.pending--
		}
		m.refreshTranscript()
	case chatService.EventDraft:
		// Draft events trail the keystrokes that caused them. Only text that
		// is still the client's draft is applied, so a late echo of an
		// earlier keystroke cannot rewind the input.
		current := m.client.Draft()
		m.retrieval = current.UseRetrieval
		if ev.Draft.Text == current.Text && current.Text != m.input.Value() {
			m.input.SetValue(current.Text)
		}
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	// title, status bar and bordered input
	chrome := 1 + 1 + 3
	vpHeight := max(height-chrome, 1)

	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}
	m.input.Width = max(width-6, 10)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err == nil {
		m.renderer = renderer
	}
	m.refreshTranscript()
}

// refreshTranscript re-renders the log and scrolls to the newest message.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) renderHistory() string {
	var sb strings.Builder
	for _, msg := range m.messages {
		switch msg.Role {
		case chat.RoleUser:
			sb.WriteString(userRoleStyle.Render("user") + "\n")
			sb.WriteString(userTextStyle.Render(msg.Text))
			sb.WriteString("\n\n")
		default:
			sb.WriteString(assistantRoleStyle.Render("assistant") + "\n")
			sb.WriteString(m.safeRenderMarkdown(msg.Text))
			sb.WriteString("\n")
			if msg.Retrieved > 0 {
				sb.WriteString(helpStyle.Render(sourcesLabel(msg.Retrieved)) + "\n")
			}
		}
	}
	return sb.String()
}

// safeRenderMarkdown falls back to plain text if glamour fails or panics.
func (m Model) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()

	if m.renderer != nil && content != "" {
		rendered, err := m.renderer.Render(content)
		if err == nil {
			return strings.TrimRight(rendered, "\n")
		}
	}
	return content
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	title := titleStyle.Render("Meeting Agent")
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.viewport.View(),
		m.statusBar(),
		inputStyle.Width(max(m.width-2, 10)).Render(m.input.View()),
	)
}

func (m Model) statusBar() string {
	retrieval := "off"
	if m.retrieval {
		retrieval = "on"
	}
	status := fmt.Sprintf("retrieval: %s", retrieval)
	if m.backendURL != "" {
		status = m.backendURL + " | " + status
	}
	if m.pending > 0 {
		status += fmt.Sprintf(" | waiting for %d repl%s", m.pending, plural(m.pending, "y", "ies"))
	}
	help := helpStyle.Render("enter send · ctrl+r toggle retrieval · esc quit")
	return statusBarStyle.Render(status) + " " + help
}

func sourcesLabel(n int) string {
	return fmt.Sprintf("%d source%s", n, plural(n, "", "s"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Retrieval reports the retrieval flag as last shown.
func (m Model) Retrieval() bool {
	return m.retrieval
}

// Messages returns the transcript as rendered by the model.
func (m Model) Messages() []chat.Message {
	return m.messages
}
