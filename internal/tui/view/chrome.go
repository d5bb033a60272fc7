package view

import (
	"fmt"
	"strings"

	tuitheme "github.com/glabrego/tipfeed-cli/internal/tui/theme"
)

type Tab struct {
	Key    string
	Label  string
	Active bool
}

func Toolbar(inDetail bool) string {
	if inDetail {
		return "j/k scroll | J/K reply | l like | b bookmark | t tip | f follow | w reply | e edit | D delete | R report | y/o link | esc back"
	}
	return "j/k move | enter open | 1-4 feeds | p profile | l like | b bookmark | t tip | f follow | w post | n more | r reload | a activity | ? help"
}

func HelpLines() []string {
	return []string{
		"Navigation",
		"  j/k, arrows    move selection",
		"  pgup/pgdown    jump a page",
		"  g/G            top/bottom",
		"  enter          open post with replies",
		"  esc            back",
		"  1 2 3 4        for you, following, trending, bookmarks",
		"  p              posts by the selected author",
		"  n              load more",
		"  r              reload current feed",
		"",
		"Engagement",
		"  l              like or unlike",
		"  b              bookmark or remove bookmark",
		"  t              tip the post",
		"  f              follow or unfollow the author",
		"  w              write a post (a reply in detail view)",
		"  e              edit your post",
		"  D              delete your post",
		"  R              report the post",
		"",
		"Other",
		"  y / o          copy or open permalink",
		"  a              activity journal",
		"  c              compact list",
		"  d              relative or absolute time",
		"  q              quit",
	}
}

func Header(title string, tabs []Tab, balance string, animating bool, th tuitheme.Theme) string {
	parts := make([]string, 0, len(tabs)+2)
	parts = append(parts, th.Title.Render(title))
	for _, tab := range tabs {
		label := tab.Key + " " + tab.Label
		if tab.Active {
			parts = append(parts, th.TabActive.Render(label))
			continue
		}
		parts = append(parts, th.TabIdle.Render(label))
	}
	if balance != "" {
		parts = append(parts, th.MetaLabel.Render("balance")+" "+th.StyleBalance(balance, animating))
	}
	return strings.Join(parts, " ")
}

func Footer(feed string, page, shown int, hasMore bool, th tuitheme.Theme) string {
	more := "end"
	if hasMore {
		more = "more"
	}
	parts := []string{
		th.MetaLabel.Render("feed") + " " + th.MetaValue.Render(feed),
		th.MetaLabel.Render("page") + " " + th.MetaValue.Render(fmt.Sprintf("%d", page)),
		th.MetaValue.Render(fmt.Sprintf("%d shown", shown)),
		th.MetaValue.Render(more),
	}
	return strings.Join(parts, " • ")
}

func Message(loading bool, hasWarning bool, status, warning string, th tuitheme.Theme) string {
	state := "idle"
	if loading {
		state = "loading"
	}
	if hasWarning {
		state = "warning"
	}
	main := "Ready"
	if status != "" {
		main = status
	} else if hasWarning {
		main = warning
	}
	stateLabel := th.StateIdle.Render("state")
	switch state {
	case "warning":
		stateLabel = th.StateWarn.Render("state")
	case "loading":
		stateLabel = th.StateLoad.Render("state")
	}
	return fmt.Sprintf("%s: %s | %s", stateLabel, state, th.MetaValue.Render(main))
}

// PromptLine renders a single-line text input with a block cursor.
// PromptLine renders a one-line input. Line breaks in value are kept in the
// buffer and shown as ↵.
func PromptLine(label, value string, th tuitheme.Theme) string {
	shown := strings.ReplaceAll(value, "\n", "↵")
	return th.Prompt.Render(label+":") + " " + shown + "█"
}
