// Package post turns post markup into wrapped terminal lines.
package post

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	nethtml "golang.org/x/net/html"

	"github.com/glabrego/tipfeed-cli/internal/model"
)

var reANSICodes = regexp.MustCompile(`\x1b\[[0-9;]*m`)

type Options struct {
	StyleLinks bool
	ShowMedia  bool
}

var DefaultOptions = Options{
	StyleLinks: true,
	ShowMedia:  true,
}

type renderer struct {
	width int
	opts  Options
}

func ContentLines(entry model.Entry, width int) []string {
	return ContentLinesWithOptions(entry, width, DefaultOptions)
}

func ContentLinesWithOptions(entry model.Entry, width int, opts Options) []string {
	lines := renderFragment(entry.Content, width, opts)
	if opts.ShowMedia && len(entry.MediaRefs) > 0 {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, MediaLines(entry.MediaRefs, width)...)
	}
	return lines
}

// Text returns the content as plain text without styling, suitable for
// single-line previews and the edit prompt.
func Text(entry model.Entry) string {
	lines := renderFragment(entry.Content, 80, Options{})
	return strings.Join(lines, "\n")
}

// Preview collapses the content into one line of at most width runes.
func Preview(entry model.Entry, width int) string {
	text := strings.Join(strings.Fields(Text(entry)), " ")
	if text == "" && len(entry.MediaRefs) > 0 {
		text = "(media)"
	}
	return truncateRunes(text, width)
}

func MediaLines(refs []string, width int) []string {
	out := make([]string, 0, len(refs))
	for i, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		label := mediaLabel.Render("Media " + strconv.Itoa(i+1))
		for j, line := range wrapText(ref, max(1, width-9)) {
			if j == 0 {
				out = append(out, label+"  "+mediaText.Render(line))
				continue
			}
			out = append(out, strings.Repeat(" ", 9)+mediaText.Render(line))
		}
	}
	return out
}

func renderFragment(raw string, width int, opts Options) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	doc, err := nethtml.Parse(strings.NewReader("<html><body>" + raw + "</body></html>"))
	if err != nil {
		return wrapText(strings.TrimSpace(html.UnescapeString(raw)), width)
	}
	body := findBodyNode(doc)
	if body == nil {
		return wrapText(strings.TrimSpace(html.UnescapeString(raw)), width)
	}
	r := renderer{width: max(1, width), opts: opts}
	return trimBlankLines(r.renderNodes(elementChildren(body)))
}

func trimBlankLines(lines []string) []string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines) - 1
	for end >= start && strings.TrimSpace(lines[end]) == "" {
		end--
	}
	if end < start {
		return nil
	}
	out := make([]string, 0, end-start+1)
	prevBlank := false
	for i := start; i <= end; i++ {
		blank := strings.TrimSpace(lines[i]) == ""
		if blank && prevBlank {
			continue
		}
		out = append(out, lines[i])
		prevBlank = blank
	}
	return out
}

// WrapText wraps on word boundaries. Words longer than width are split.
func WrapText(text string, width int) []string {
	return wrapText(text, width)
}

func wrapText(text string, width int) []string {
	if width < 1 {
		return []string{text}
	}
	paragraphs := strings.Split(text, "\n")
	out := make([]string, 0, len(paragraphs))

	for _, p := range paragraphs {
		words := strings.Fields(p)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := ""
		for _, word := range words {
			for utf8.RuneCountInString(word) > width {
				if line != "" {
					out = append(out, line)
					line = ""
				}
				runes := []rune(word)
				out = append(out, string(runes[:width]))
				word = string(runes[width:])
			}

			if line == "" {
				line = word
				continue
			}
			if visibleLen(line)+1+visibleLen(word) <= width {
				line += " " + word
				continue
			}
			out = append(out, line)
			line = word
		}
		if line != "" {
			out = append(out, line)
		}
	}

	return out
}

func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return strings.Repeat(".", maxLen)
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}

func visibleLen(s string) int {
	return utf8.RuneCountInString(reANSICodes.ReplaceAllString(s, ""))
}
