// Package chat is the interactive terminal interface: questions go in, the
// engine's thinking trace is shown, then the composed report.
package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"procintel/internal/core"
	"procintel/internal/types"
	"procintel/internal/ux"
)

// Source supplies the records a question runs against.
type Source interface {
	LoadSnapshot(ctx context.Context) (types.Snapshot, error)
}

// QueryLog records answered questions. Optional.
type QueryLog interface {
	LogQuery(ctx context.Context, query, intent, rule string) error
}

// Config wires the chat to an engine.
type Config struct {
	Engine          *core.Engine
	Source          Source
	Log             QueryLog
	ThinkingDelay   time.Duration
	RespondingDelay time.Duration
	Renderer        *ux.Renderer
	Theme           ux.Theme
}

// Role identifies who produced a history entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleThinking  Role = "thinking"
	RoleAssistant Role = "assistant"
	RoleError     Role = "error"
)

// Message is one history entry.
type Message struct {
	Role    Role
	Content string
	Time    time.Time
}

// Phase is where the current question is.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseThinking
	PhaseResponding
)

func (p Phase) String() string {
	switch p {
	case PhaseThinking:
		return "Analisando..."
	case PhaseResponding:
		return "Preparando resposta..."
	default:
		return "Pronto"
	}
}

// Model is the bubbletea model for the chat.
type Model struct {
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   ux.Styles
	renderer *ux.Renderer

	engine          *core.Engine
	source          Source
	log             QueryLog
	ctx             context.Context
	thinkingDelay   time.Duration
	respondingDelay time.Duration

	history []Message
	phase   Phase
	thought *core.Thought
	query   string
	err     error

	width  int
	height int
	ready  bool
}

// thoughtMsg carries the routed question and its thinking trace.
type thoughtMsg struct {
	query   string
	thought core.Thought
	err     error
}

// thinkingDoneMsg ends the thinking pause.
type thinkingDoneMsg struct{}

// reportMsg carries the composed answer.
type reportMsg struct {
	query  string
	intent string
	rule   string
	body   string
	err    error
}

// NewModel creates the chat model.
func NewModel(ctx context.Context, cfg Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Pergunte sobre processos, responsáveis, pregões..."
	ti.Prompt = "› "
	ti.CharLimit = 500
	ti.Focus()

	styles := ux.NewStyles(cfg.Theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	renderer := cfg.Renderer
	if renderer == nil {
		renderer, _ = ux.NewRenderer(cfg.Theme, 0, false)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	return Model{
		input:           ti,
		viewport:        viewport.New(80, 20),
		spinner:         sp,
		styles:          styles,
		renderer:        renderer,
		engine:          cfg.Engine,
		source:          cfg.Source,
		log:             cfg.Log,
		ctx:             ctx,
		thinkingDelay:   cfg.ThinkingDelay,
		respondingDelay: cfg.RespondingDelay,
		history: []Message{{
			Role:    RoleAssistant,
			Content: welcome,
			Time:    time.Now(),
		}},
	}
}

const welcome = "Olá! Sou o assistente de processos. Pergunte sobre um processo pelo número SEI, " +
	"um responsável, atrasos, tendências, previsões, pregões ou um resumo geral. " +
	"Digite **/ajuda** para exemplos."

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// History returns a copy of the conversation.
func (m Model) History() []Message {
	return append([]Message(nil), m.history...)
}

// Phase returns the current question phase.
func (m Model) Phase() Phase {
	return m.phase
}

// Run starts the chat in the alternate screen and blocks until it exits.
func Run(ctx context.Context, cfg Config) error {
	p := tea.NewProgram(NewModel(ctx, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
