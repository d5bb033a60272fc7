package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/glabrego/tipfeed-cli/internal/model"
	"github.com/glabrego/tipfeed-cli/internal/render/post"
)

type WrapFunc func(string, int) []string

func DetailMetaLines(entry model.Entry, width int, wrap WrapFunc) []string {
	lines := make([]string, 0, 8)
	title := "@" + authorName(entry.Author)
	lines = append(lines, wrap(title, width)...)
	lines = append(lines, strings.Repeat("=", max(1, min(width, len(title)))))
	lines = append(lines, "")

	lines = append(lines, "Date: "+entry.CreatedAt.UTC().Format(time.RFC3339))
	lines = append(lines, fmt.Sprintf("Likes: %d", entry.LikesCount))
	lines = append(lines, "Liked: "+yesNo(entry.Liked))
	lines = append(lines, "Bookmarked: "+yesNo(entry.Bookmarked))
	follow := fmt.Sprintf("Followers: %d", entry.Author.Followers)
	if entry.Author.Following {
		follow += " (following)"
	}
	lines = append(lines, follow)
	if entry.IsReply() {
		lines = append(lines, wrap("In reply to: "+entry.ParentID, width)...)
	}
	return lines
}

// DetailLines renders the post followed by its replies. replyCursor selects
// one reply, -1 for none.
func DetailLines(entry model.Entry, replies []model.Entry, replyCursor, contentWidth, horizontalMargin int, opts post.Options, wrap WrapFunc) []string {
	lines := DetailMetaLines(entry, contentWidth, wrap)
	if content := post.ContentLinesWithOptions(entry, contentWidth, opts); len(content) > 0 {
		lines = append(lines, "")
		lines = append(lines, content...)
	}
	if len(replies) > 0 {
		lines = append(lines, "", fmt.Sprintf("Replies (%d)", len(replies)), "")
		for i, reply := range replies {
			marker := "  "
			if i == replyCursor {
				marker = "> "
			}
			head := fmt.Sprintf("%s@%s  %s", marker, authorName(reply.Author), EngagementLabel(reply))
			lines = append(lines, head)
			for _, line := range wrap(strings.Join(strings.Fields(post.Text(reply)), " "), max(1, contentWidth-4)) {
				lines = append(lines, "    "+line)
			}
		}
	}
	return leftPadLines(lines, horizontalMargin)
}

func DetailMaxTop(linesLen, bodyHeight int) int {
	maxTop := linesLen - bodyHeight
	if maxTop < 0 {
		return 0
	}
	return maxTop
}

func RenderDetailLines(lines []string, top, maxLines int) string {
	if len(lines) == 0 {
		return ""
	}
	if top < 0 {
		top = 0
	}
	if top > len(lines)-1 {
		top = len(lines) - 1
	}
	end := len(lines)
	if maxLines > 0 && top+maxLines < end {
		end = top + maxLines
	}
	return strings.Join(lines[top:end], "\n") + "\n"
}

func leftPadLines(lines []string, padding int) []string {
	if padding <= 0 || len(lines) == 0 {
		return lines
	}
	prefix := strings.Repeat(" ", padding)
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = prefix + line
	}
	return out
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
