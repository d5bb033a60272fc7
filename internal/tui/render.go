package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/glabrego/tipfeed-cli/internal/model"
	"github.com/glabrego/tipfeed-cli/internal/render/post"
	tuistate "github.com/glabrego/tipfeed-cli/internal/tui/state"
	tuiview "github.com/glabrego/tipfeed-cli/internal/tui/view"
)

// inlineKinds lists the controls an entry line can show a failure for, in
// display order. Follow failures are keyed by the author instead.
var inlineKinds = []model.ActionKind{
	model.ActionLike,
	model.ActionBookmark,
	model.ActionTip,
	model.ActionEdit,
	model.ActionDelete,
	model.ActionReport,
	model.ActionCreate,
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")

	switch {
	case m.showHelp:
		b.WriteString("Help (? to close)\n\n")
		b.WriteString(strings.Join(tuiview.HelpLines(), "\n"))
		b.WriteString("\n")
	case m.showActivity:
		b.WriteString("Activity (a or esc to close, r to reload)\n\n")
		b.WriteString(m.activityView())
	case m.inDetail:
		b.WriteString(tuiview.Toolbar(true))
		b.WriteString("\n\n")
		b.WriteString(m.detailView())
	default:
		b.WriteString(tuiview.Toolbar(false))
		b.WriteString("\n\n")
		b.WriteString(m.listView())
	}

	b.WriteString("\n")
	if line := m.promptLine(); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(m.messagePanel())
	b.WriteString("\n")
	b.WriteString(m.footer())
	b.WriteString("\n")
	return b.String()
}

func (m Model) header() string {
	tabsOut := make([]tuiview.Tab, len(tabs))
	for i := range tabs {
		tabsOut[i] = tuiview.Tab{Key: fmt.Sprintf("%d", i+1), Label: tabLabels[i], Active: i == m.tab}
	}
	balance := ""
	if m.hasBalance {
		balance = formatPoints(m.balance)
	}
	return tuiview.Header("Tipfeed", tabsOut, balance, m.animating, m.theme)
}

func (m Model) listView() string {
	st := m.cache.Snapshot()
	if st.Loading && len(st.Entries) == 0 {
		return "Loading posts...\n"
	}
	if len(st.Entries) == 0 {
		if st.Err != nil {
			return "Could not load this feed. Press r to retry.\n"
		}
		return "No posts yet.\n"
	}

	width := m.lineWidth()
	cursor := tuistate.ClampCursor(m.cursor, len(st.Entries))
	start, end := tuistate.Window(len(st.Entries), cursor, m.listHeight())
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		entry := st.Entries[i]
		lines = append(lines, tuiview.RenderEntryLine(tuiview.EntryLineParams{
			Entry:        entry,
			Now:          m.nowFn(),
			RelativeTime: m.relativeTime,
			Compact:      m.compact,
			Active:       i == cursor,
			Busy:         m.entryBusy(entry),
			Width:        width,
		}, m.theme))
		for _, msg := range m.inlineErrors(entry) {
			lines = append(lines, tuiview.RenderInlineError(msg, width, m.theme))
		}
	}
	if st.LoadingMore {
		lines = append(lines, "  Loading more...")
	} else if st.HasMore && end == len(st.Entries) {
		lines = append(lines, "  n: load more")
	}
	return tuiview.RenderListBody(lines)
}

func (m Model) detailView() string {
	lines := m.detailLines()
	return tuiview.RenderDetailLines(lines, m.detailTop, m.detailBodyHeight())
}

func (m Model) detailLines() []string {
	entry := m.detailEntry()
	var replies []model.Entry
	var loading bool
	if m.replies != nil {
		st := m.replies.Snapshot()
		replies = st.Entries
		loading = st.Loading
	}
	width := m.contentWidth()
	lines := tuiview.DetailLines(entry, replies, m.replyCursor, width, 2, post.DefaultOptions, post.WrapText)
	for _, msg := range m.inlineErrors(entry) {
		lines = append(lines, tuiview.RenderInlineError(msg, width, m.theme))
	}
	if m.replyCursor >= 0 && m.replyCursor < len(replies) {
		for _, msg := range m.inlineErrors(replies[m.replyCursor]) {
			lines = append(lines, tuiview.RenderInlineError("reply: "+msg, width, m.theme))
		}
	}
	if loading {
		lines = append(lines, "", "  Loading replies...")
	}
	return lines
}

func (m Model) activityView() string {
	if len(m.activity) == 0 {
		return "No activity recorded yet.\n"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Total tipped: %s\n\n", formatPoints(m.totalTipped)))
	for _, a := range m.activity {
		line := fmt.Sprintf("%s  %-10s %s", a.At.Local().Format(time.DateTime), a.Kind, a.EntityID)
		if a.Kind == model.ActionTip {
			line += fmt.Sprintf("  %s pts, balance %s", formatPoints(a.Amount), formatPoints(a.BalanceAfter))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) promptLine() string {
	switch m.prompt.kind {
	case promptTip:
		return tuiview.PromptLine("Tip amount (enter to send, esc to cancel)", m.prompt.value, m.theme)
	case promptEdit:
		return tuiview.PromptLine("Edit post", m.prompt.value, m.theme)
	case promptWrite:
		if m.prompt.target.ID != "" {
			return tuiview.PromptLine("Reply", m.prompt.value, m.theme)
		}
		return tuiview.PromptLine("New post", m.prompt.value, m.theme)
	case promptReport:
		return tuiview.PromptLine("Report reason", m.prompt.value, m.theme)
	case promptDelete:
		return m.theme.Prompt.Render("Delete this post? (y to confirm)")
	}
	return ""
}

func (m Model) messagePanel() string {
	warning := ""
	if m.err != nil {
		warning = m.err.Error()
	}
	loading := false
	if m.cache != nil {
		st := m.cache.Snapshot()
		loading = st.Loading || st.LoadingMore
	}
	return tuiview.Message(loading, m.err != nil, m.status, warning, m.theme)
}

func (m Model) footer() string {
	st := m.cache.Snapshot()
	return tuiview.Footer(m.cache.Query().String(), st.CurrentPage, len(st.Entries), st.HasMore, m.theme)
}

func (m Model) inlineErrors(entry model.Entry) []string {
	out := make([]string, 0, 2)
	for _, kind := range inlineKinds {
		if msg, ok := m.inline[model.IntentFor(entry.ID, kind)]; ok {
			out = append(out, msg)
		}
	}
	if entry.Author.ID != "" {
		if msg, ok := m.inline[model.IntentFor(entry.Author.ID, model.ActionFollow)]; ok {
			out = append(out, msg)
		}
	}
	return out
}

func (m Model) entryBusy(entry model.Entry) bool {
	if m.deps.Engager == nil {
		return false
	}
	for _, kind := range inlineKinds {
		if m.deps.Engager.Busy(entry.ID, kind) {
			return true
		}
	}
	return entry.Author.ID != "" && m.deps.Engager.Busy(entry.Author.ID, model.ActionFollow)
}

func (m Model) lineWidth() int {
	if m.width <= 0 {
		return 100
	}
	return m.width
}

func (m Model) contentWidth() int {
	if m.width <= 0 {
		return 80
	}
	return max(20, min(m.width-4, 100))
}

func (m Model) listHeight() int {
	if m.height <= 0 {
		return 0
	}
	return max(3, m.height-8)
}

func (m Model) detailBodyHeight() int {
	if m.height <= 0 {
		return 0
	}
	return max(3, m.height-8)
}

func formatPoints(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	digits := fmt.Sprintf("%d", v)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}
