package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/glabrego/tipfeed-cli/internal/model"
)

type Theme struct {
	Title      lipgloss.Style
	ModePill   lipgloss.Style
	TabActive  lipgloss.Style
	TabIdle    lipgloss.Style
	Section    lipgloss.Style
	Balance    lipgloss.Style
	BalanceAct lipgloss.Style
	ActiveLine lipgloss.Style
	MetaLabel  lipgloss.Style
	MetaValue  lipgloss.Style
	StateIdle  lipgloss.Style
	StateWarn  lipgloss.Style
	StateLoad  lipgloss.Style
	InlineErr  lipgloss.Style
	Prompt     lipgloss.Style

	EntryLiked      lipgloss.Style
	EntryBookmarked lipgloss.Style
	EntryPlain      lipgloss.Style
	EntryBoth       lipgloss.Style
}

func Default() Theme {
	cpRosewater := lipgloss.Color("#f5e0dc")
	cpMauve := lipgloss.Color("#cba6f7")
	cpRed := lipgloss.Color("#f38ba8")
	cpPeach := lipgloss.Color("#fab387")
	cpYellow := lipgloss.Color("#f9e2af")
	cpGreen := lipgloss.Color("#a6e3a1")
	cpTeal := lipgloss.Color("#94e2d5")
	cpLavender := lipgloss.Color("#b4befe")
	cpText := lipgloss.Color("#cdd6f4")
	cpSubtext0 := lipgloss.Color("#a6adc8")
	cpSubtext1 := lipgloss.Color("#bac2de")
	cpOverlay1 := lipgloss.Color("#7f849c")
	cpSurface0 := lipgloss.Color("#313244")

	return Theme{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(cpMauve),
		ModePill:   lipgloss.NewStyle().Foreground(cpLavender).Background(cpSurface0).Padding(0, 1),
		TabActive:  lipgloss.NewStyle().Bold(true).Foreground(cpText).Background(cpSurface0).Padding(0, 1),
		TabIdle:    lipgloss.NewStyle().Foreground(cpOverlay1).Padding(0, 1),
		Section:    lipgloss.NewStyle().Bold(true).Foreground(cpTeal),
		Balance:    lipgloss.NewStyle().Foreground(cpYellow).Bold(true),
		BalanceAct: lipgloss.NewStyle().Foreground(cpPeach).Bold(true),
		ActiveLine: lipgloss.NewStyle().Background(cpSurface0).Foreground(cpText),
		MetaLabel:  lipgloss.NewStyle().Foreground(cpOverlay1),
		MetaValue:  lipgloss.NewStyle().Foreground(cpSubtext1),
		StateIdle:  lipgloss.NewStyle().Foreground(cpGreen),
		StateWarn:  lipgloss.NewStyle().Foreground(cpRed),
		StateLoad:  lipgloss.NewStyle().Foreground(cpPeach),
		InlineErr:  lipgloss.NewStyle().Foreground(cpRed).Italic(true),
		Prompt:     lipgloss.NewStyle().Foreground(cpLavender).Bold(true),
		EntryLiked: lipgloss.NewStyle().Bold(true).Foreground(cpText),
		EntryBookmarked: lipgloss.NewStyle().
			Italic(true).
			Foreground(cpLavender),
		EntryPlain: lipgloss.NewStyle().Foreground(cpSubtext0),
		EntryBoth:  lipgloss.NewStyle().Bold(true).Italic(true).Foreground(cpRosewater),
	}
}

func (t Theme) StyleEntryText(entry model.Entry, text string) string {
	if text == "" {
		return text
	}
	switch {
	case entry.Liked && entry.Bookmarked:
		return t.EntryBoth.Render(text)
	case entry.Liked:
		return t.EntryLiked.Render(text)
	case entry.Bookmarked:
		return t.EntryBookmarked.Render(text)
	default:
		return t.EntryPlain.Render(text)
	}
}

// StyleBalance highlights the balance while a transition is running.
func (t Theme) StyleBalance(text string, animating bool) string {
	if animating {
		return t.BalanceAct.Render(text)
	}
	return t.Balance.Render(text)
}

func (t Theme) RenderActiveLine(active bool, line string) string {
	if !active {
		return line
	}
	return t.ActiveLine.Render(line)
}
