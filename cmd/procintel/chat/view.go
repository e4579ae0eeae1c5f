package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Inicializando..."
	}

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.styles.Theme.Primary).
		Padding(0, 1)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		inputStyle.Render(m.input.View()),
		m.styles.Footer.Render("Enter: enviar  ↑/↓: rolar  /ajuda  /limpar  Esc: sair"),
	)
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render(" procintel ")
	var status string
	if m.phase == PhaseIdle {
		status = m.styles.Muted.Render(m.phase.String())
	} else {
		status = lipgloss.JoinHorizontal(lipgloss.Center, m.spinner.View(), " ", m.styles.Title.Render(m.phase.String()))
	}
	line := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", status)
	return lipgloss.JoinVertical(lipgloss.Left, line, m.styles.Divider.Render(strings.Repeat("─", max(1, m.width))))
}

func (m Model) renderHistory() string {
	var sb strings.Builder
	for _, msg := range m.history {
		switch msg.Role {
		case RoleUser:
			sb.WriteString(m.styles.Prompt.Render("Você") + "\n")
			sb.WriteString(m.styles.User.Render(msg.Content))
			sb.WriteString("\n\n")
		case RoleThinking:
			sb.WriteString(m.styles.Thinking.Render(msg.Content))
			sb.WriteString("\n\n")
		case RoleError:
			sb.WriteString(m.styles.Error.Render("Erro: " + msg.Content))
			sb.WriteString("\n\n")
		default:
			sb.WriteString(m.styles.Title.Render("procintel") + "\n")
			sb.WriteString(m.renderer.Render(msg.Content))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
