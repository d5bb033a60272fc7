package view

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/glabrego/tipfeed-cli/internal/model"
	"github.com/glabrego/tipfeed-cli/internal/render/post"
	tuitheme "github.com/glabrego/tipfeed-cli/internal/tui/theme"
)

var reANSICodes = regexp.MustCompile(`\x1b\[[0-9;]*m`)

type EntryLineParams struct {
	Entry        model.Entry
	Now          time.Time
	RelativeTime bool
	Compact      bool
	Active       bool
	// Busy marks an entry with an engagement request in flight.
	Busy  bool
	Width int
}

func RenderEntryLine(p EntryLineParams, th tuitheme.Theme) string {
	date := p.Entry.CreatedAt.UTC().Format(time.DateOnly)
	if p.RelativeTime {
		date = RelativeTimeLabel(p.Now, p.Entry.CreatedAt)
	}

	cursorMarker := " "
	if p.Active {
		cursorMarker = ">"
	}
	busyMarker := " "
	if p.Busy {
		busyMarker = "~"
	}

	prefix := fmt.Sprintf("  %s%s ", cursorMarker, busyMarker)
	right := EngagementLabel(p.Entry) + " [" + date + "]"
	available := p.Width - visibleLen(prefix) - 1 - visibleLen(right)
	if available < 1 {
		available = 1
	}

	label := EntryLabel(p.Entry, available)
	if p.Compact {
		label = truncateRunes(CompactEntryLabel(p.Entry), available)
	}
	styled := th.StyleEntryText(p.Entry, label)
	gap := p.Width - visibleLen(prefix) - visibleLen(label) - visibleLen(right)
	if gap < 1 {
		gap = 1
	}
	return th.RenderActiveLine(p.Active, prefix+styled+strings.Repeat(" ", gap)+right)
}

// RenderInlineError renders the message shown under the control that failed.
func RenderInlineError(msg string, width int, th tuitheme.Theme) string {
	prefix := "      ! "
	return prefix + th.InlineErr.Render(truncateRunes(msg, max(1, width-visibleLen(prefix))))
}

func EntryLabel(entry model.Entry, width int) string {
	author := "@" + authorName(entry.Author)
	rest := width - utf8.RuneCountInString(author) - 2
	if rest < 1 {
		return truncateRunes(author, width)
	}
	return author + "  " + post.Preview(entry, rest)
}

func CompactEntryLabel(entry model.Entry) string {
	return authorName(entry.Author) + " | " + post.Preview(entry, 200)
}

func EngagementLabel(entry model.Entry) string {
	heart := "♡"
	if entry.Liked {
		heart = "♥"
	}
	label := fmt.Sprintf("%s%d", heart, entry.LikesCount)
	if entry.Bookmarked {
		label += " ★"
	}
	return label
}

func authorName(a model.Author) string {
	if name := strings.TrimSpace(a.Username); name != "" {
		return name
	}
	return "unknown"
}

func RenderListBody(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// RelativeTimeLabel renders the short age used in timelines: "now", "5m",
// "3h", "2d", then the calendar date once a post is a week old.
func RelativeTimeLabel(now, then time.Time) string {
	if then.IsZero() {
		return "unknown"
	}
	if now.IsZero() {
		now = time.Now()
	}
	d := now.Sub(then)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	case then.Year() == now.Year():
		return then.Format("Jan 2")
	default:
		return then.Format("Jan 2, 2006")
	}
}

func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}

func visibleLen(s string) int {
	return utf8.RuneCountInString(stripANSIText(s))
}

func stripANSIText(s string) string {
	return reANSICodes.ReplaceAllString(s, "")
}
