package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"procintel/internal/articulation"
	"procintel/internal/core"
	"procintel/internal/logging"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(3, msg.Height-6)
		m.input.Width = max(10, msg.Width-6)
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.phase != PhaseIdle {
				return m, nil
			}
			return m.submit(strings.TrimSpace(m.input.Value()))
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case thoughtMsg:
		if msg.err != nil {
			return m.fail(msg.err), nil
		}
		t := msg.thought
		m.thought = &t
		m.append(RoleThinking, strings.Join(t.Thinking, "\n"))
		return m, tea.Tick(m.thinkingDelay, func(time.Time) tea.Msg { return thinkingDoneMsg{} })

	case thinkingDoneMsg:
		if m.thought == nil {
			return m, nil
		}
		m.phase = PhaseResponding
		m.refresh()
		return m, m.respond(*m.thought)

	case reportMsg:
		m.thought = nil
		if msg.err != nil {
			return m.fail(msg.err), nil
		}
		m.phase = PhaseIdle
		m.append(RoleAssistant, msg.body)
		if m.log != nil {
			if err := m.log.LogQuery(m.ctx, msg.query, msg.intent, msg.rule); err != nil {
				logging.Get(logging.CategoryChat).Warn("query log: %v", err)
			}
		}
		return m, nil

	case spinner.TickMsg:
		if m.phase == PhaseIdle {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submit handles a line typed by the user.
func (m Model) submit(line string) (tea.Model, tea.Cmd) {
	if line == "" {
		return m, nil
	}
	m.input.Reset()

	switch strings.ToLower(line) {
	case "/sair", "/quit", "/exit":
		return m, tea.Quit
	case "/limpar", "/clear":
		m.history = nil
		m.err = nil
		m.refresh()
		return m, nil
	case "/ajuda", "/help", "ajuda":
		m.append(RoleUser, line)
		m.append(RoleAssistant, articulation.Help().Body)
		return m, nil
	}

	m.append(RoleUser, line)
	m.phase = PhaseThinking
	m.query = line
	m.err = nil
	m.refresh()
	logging.Get(logging.CategoryChat).Debug("question: %q", line)
	return m, tea.Batch(m.spinner.Tick, m.think(line))
}

// think loads the snapshot and routes the question.
func (m Model) think(query string) tea.Cmd {
	engine, source, ctx := m.engine, m.source, m.ctx
	return func() tea.Msg {
		snap, err := source.LoadSnapshot(ctx)
		if err != nil {
			return thoughtMsg{query: query, err: fmt.Errorf("carregar registros: %w", err)}
		}
		return thoughtMsg{query: query, thought: engine.Think(query, snap)}
	}
}

// respond waits out the responding pause and composes the report.
func (m Model) respond(t core.Thought) tea.Cmd {
	engine, ctx, query := m.engine, m.ctx, m.query
	return tea.Tick(m.respondingDelay, func(time.Time) tea.Msg {
		report, err := engine.Respond(ctx, t)
		if err != nil {
			return reportMsg{query: query, err: err}
		}
		return reportMsg{
			query:  query,
			intent: t.Decision.Intent.String(),
			rule:   t.Decision.Rule,
			body:   report.Body,
		}
	})
}

func (m Model) fail(err error) Model {
	m.phase = PhaseIdle
	m.thought = nil
	m.err = err
	m.append(RoleError, err.Error())
	logging.Get(logging.CategoryChat).Error("%v", err)
	return m
}

func (m *Model) append(role Role, content string) {
	m.history = append(m.history, Message{Role: role, Content: content, Time: time.Now()})
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}
