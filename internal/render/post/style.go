package post

import (
	"regexp"

	"github.com/charmbracelet/lipgloss"
)

var reHTTPURL = regexp.MustCompile(`https?://[^\s)]+`)

var (
	cpPeach    = lipgloss.Color("#fab387")
	cpBlue     = lipgloss.Color("#89b4fa")
	cpMauve    = lipgloss.Color("#cba6f7")
	cpSubtext0 = lipgloss.Color("#a6adc8")
	cpSubtext1 = lipgloss.Color("#bac2de")
	cpOverlay1 = lipgloss.Color("#7f849c")

	linkStyle   = lipgloss.NewStyle().Foreground(cpBlue).Faint(true)
	quotePrefix = lipgloss.NewStyle().Foreground(cpOverlay1).Render("│ ")
	quoteText   = lipgloss.NewStyle().Italic(true).Foreground(cpSubtext0)
	codeStyle   = lipgloss.NewStyle().Foreground(cpPeach)
	mediaLabel  = lipgloss.NewStyle().Foreground(cpMauve).Faint(true).Italic(true)
	mediaText   = lipgloss.NewStyle().Foreground(cpSubtext1).Italic(true)
)
