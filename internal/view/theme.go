package view

import (
	"github.com/charmbracelet/lipgloss"

	"threadstate/internal/aggregate"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	workspaceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true)
	threadStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("236"))
	runningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).Bold(true)
	unreadStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("120"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	waitingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("179")).Bold(true)
	metaStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Faint(true)
)

func attentionStyle(attention aggregate.Attention) lipgloss.Style {
	switch attention {
	case aggregate.AttentionApproval, aggregate.AttentionUserInput:
		return waitingStyle
	case aggregate.AttentionError:
		return errorStyle
	case aggregate.AttentionRunning:
		return runningStyle
	case aggregate.AttentionUnread:
		return unreadStyle
	default:
		return threadStyle
	}
}

// attentionMarker is the single-cell glyph shown before a thread name.
func attentionMarker(attention aggregate.Attention) string {
	switch attention {
	case aggregate.AttentionUserInput:
		return "?"
	case aggregate.AttentionApproval:
		return "!"
	case aggregate.AttentionError:
		return "x"
	case aggregate.AttentionRunning:
		return "*"
	case aggregate.AttentionUnread:
		return "•"
	default:
		return " "
	}
}
