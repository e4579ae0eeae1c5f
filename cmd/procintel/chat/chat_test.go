package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procintel/internal/core"
	"procintel/internal/health"
	"procintel/internal/types"
	"procintel/internal/ux"
)

var now = time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC)

type staticSource types.Snapshot

func (s staticSource) LoadSnapshot(context.Context) (types.Snapshot, error) {
	return types.Snapshot(s), nil
}

type brokenSource struct{}

func (brokenSource) LoadSnapshot(context.Context) (types.Snapshot, error) {
	return types.Snapshot{}, errors.New("database locked")
}

type memLog struct {
	mu      sync.Mutex
	queries []string
	intents []string
}

func (l *memLog) LogQuery(_ context.Context, q, intent, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queries = append(l.queries, q)
	l.intents = append(l.intents, intent)
	return nil
}

func snapshot() types.Snapshot {
	return types.Snapshot{Processes: []types.ProcessRecord{{
		ID: "a", SEI: "12345-678.2024", Name: "Limpeza", Responsible: "DIEGO",
		Type: types.TypeQuotation, ArrivalDate: now.AddDate(0, 0, -50),
	}}}
}

func newModel(src Source, log QueryLog) Model {
	m := NewModel(context.Background(), Config{
		Engine: core.NewEngine(core.WithClock(health.FixedClock(now))),
		Source: src,
		Log:    log,
		Theme:  ux.LightTheme(),
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func typeLine(t *testing.T, m Model, line string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(line)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func TestQuestionFlow(t *testing.T) {
	log := &memLog{}
	m := newModel(staticSource(snapshot()), log)
	m, cmd := typeLine(t, m, "me fale do 12345-678.2024")
	require.NotNil(t, cmd)
	assert.Equal(t, PhaseThinking, m.Phase())
	assert.Empty(t, m.input.Value(), "input cleared after submit")

	// Thinking stage.
	msg := m.think("me fale do 12345-678.2024")()
	next, cmd := m.Update(msg)
	m = next.(Model)
	require.NotNil(t, cmd, "thinking pause scheduled")
	h := m.History()
	require.Equal(t, RoleThinking, h[len(h)-1].Role)
	assert.Contains(t, h[len(h)-1].Content, "12345-678.2024")

	// Responding stage.
	next, cmd = m.Update(thinkingDoneMsg{})
	m = next.(Model)
	assert.Equal(t, PhaseResponding, m.Phase())
	require.NotNil(t, cmd)

	report := cmd()
	next, _ = m.Update(report)
	m = next.(Model)
	assert.Equal(t, PhaseIdle, m.Phase())

	h = m.History()
	last := h[len(h)-1]
	assert.Equal(t, RoleAssistant, last.Role)
	assert.Contains(t, last.Content, "URGENTE")
	assert.Equal(t, []string{"me fale do 12345-678.2024"}, log.queries)
	assert.Equal(t, []string{"specific_record_lookup"}, log.intents)
	assert.Contains(t, m.View(), "procintel")
}

func TestEnterIgnoredWhileBusy(t *testing.T) {
	m := newModel(staticSource(snapshot()), nil)
	m, _ = typeLine(t, m, "resumo geral")
	before := len(m.History())

	m, cmd := typeLine(t, m, "outra pergunta")
	assert.Nil(t, cmd)
	assert.Len(t, m.History(), before)
}

func TestSourceErrorIsShown(t *testing.T) {
	m := newModel(brokenSource{}, nil)
	m, _ = typeLine(t, m, "resumo")

	next, _ := m.Update(m.think("resumo")())
	m = next.(Model)
	assert.Equal(t, PhaseIdle, m.Phase())
	h := m.History()
	assert.Equal(t, RoleError, h[len(h)-1].Role)
	assert.Contains(t, h[len(h)-1].Content, "database locked")
}

func TestSlashCommands(t *testing.T) {
	m := newModel(staticSource(snapshot()), nil)

	m, cmd := typeLine(t, m, "/ajuda")
	assert.Nil(t, cmd)
	h := m.History()
	assert.Contains(t, h[len(h)-1].Content, "Você pode perguntar")

	m, _ = typeLine(t, m, "/limpar")
	assert.Empty(t, m.History())

	_, cmd = typeLine(t, m, "/sair")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestEmptyLineIgnored(t *testing.T) {
	m := newModel(staticSource(snapshot()), nil)
	before := len(m.History())
	m, cmd := typeLine(t, m, "   ")
	assert.Nil(t, cmd)
	assert.Len(t, m.History(), before)
}

func TestViewBeforeResize(t *testing.T) {
	m := NewModel(context.Background(), Config{Engine: core.NewEngine(), Source: staticSource{}})
	assert.Equal(t, "Inicializando...", m.View())
	assert.Equal(t, "Pronto", PhaseIdle.String())
}
