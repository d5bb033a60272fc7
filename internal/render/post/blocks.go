package post

import (
	"html"
	"strconv"
	"strings"

	nethtml "golang.org/x/net/html"
)

func (r renderer) renderNodes(nodes []*nethtml.Node) []string {
	lines := make([]string, 0, len(nodes)*2)
	inline := make([]string, 0, 4)
	flush := func() {
		text := normalizeInlineText(strings.Join(inline, " "))
		inline = inline[:0]
		if text == "" {
			return
		}
		if len(lines) > 0 && lines[len(lines)-1] != "" {
			lines = append(lines, "")
		}
		lines = append(lines, r.styleLinks(wrapText(text, r.width))...)
	}

	for _, node := range nodes {
		switch node.Type {
		case nethtml.TextNode:
			inline = append(inline, node.Data)
		case nethtml.ElementNode:
			if !isBlockElement(node.Data) {
				inline = append(inline, r.renderInline(node))
				continue
			}
			flush()
			block := r.renderBlock(node)
			if len(block) == 0 {
				continue
			}
			if len(lines) > 0 && lines[len(lines)-1] != "" {
				lines = append(lines, "")
			}
			lines = append(lines, block...)
		}
	}
	flush()
	return trimBlankLines(lines)
}

func (r renderer) renderBlock(node *nethtml.Node) []string {
	switch strings.ToLower(node.Data) {
	case "script", "style", "noscript", "img":
		return nil
	case "blockquote":
		inner := r.renderNodes(elementChildren(node))
		out := make([]string, 0, len(inner))
		for _, line := range inner {
			if strings.TrimSpace(line) == "" {
				out = append(out, "")
				continue
			}
			out = append(out, quotePrefix+quoteText.Render(line))
		}
		return out
	case "ul", "ol":
		ordered := strings.EqualFold(node.Data, "ol")
		out := make([]string, 0, 4)
		n := 0
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != nethtml.ElementNode || !strings.EqualFold(child.Data, "li") {
				continue
			}
			n++
			marker := "• "
			if ordered {
				marker = strconv.Itoa(n) + ". "
			}
			text := normalizeInlineText(r.renderInlineChildren(child))
			for i, line := range wrapText(text, max(1, r.width-len(marker))) {
				if i == 0 {
					out = append(out, marker+line)
					continue
				}
				out = append(out, strings.Repeat(" ", len(marker))+line)
			}
		}
		return r.styleLinks(out)
	case "pre":
		raw := strings.ReplaceAll(collectRawText(node), "\r\n", "\n")
		out := make([]string, 0, 4)
		for _, line := range strings.Split(raw, "\n") {
			line = strings.TrimRight(line, " \t")
			if line == "" {
				out = append(out, "")
				continue
			}
			out = append(out, "    "+codeStyle.Render(line))
		}
		return trimBlankLines(out)
	case "hr":
		return []string{strings.Repeat("-", min(max(r.width, 3), 24))}
	default:
		if hasBlockChild(node) {
			return r.renderNodes(elementChildren(node))
		}
		text := normalizeInlineText(r.renderInlineChildren(node))
		if text == "" {
			return nil
		}
		return r.styleLinks(wrapText(text, r.width))
	}
}

func (r renderer) renderInlineChildren(node *nethtml.Node) string {
	parts := make([]string, 0, 4)
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		parts = append(parts, r.renderInline(child))
	}
	return strings.Join(parts, " ")
}

func (r renderer) renderInline(node *nethtml.Node) string {
	switch node.Type {
	case nethtml.TextNode:
		return node.Data
	case nethtml.ElementNode:
		switch strings.ToLower(node.Data) {
		case "script", "style", "noscript", "img":
			return ""
		case "br":
			return "\n"
		case "a":
			text := normalizeInlineText(r.renderInlineChildren(node))
			href := nodeAttr(node, "href")
			switch {
			case href == "":
				return text
			case text == "", strings.EqualFold(text, href):
				return href
			case strings.HasPrefix(text, "@"), strings.HasPrefix(text, "#"):
				// Mentions and tags link to in-app pages; the text is enough.
				return text
			default:
				return text + " (" + href + ")"
			}
		default:
			return r.renderInlineChildren(node)
		}
	default:
		return ""
	}
}

func (r renderer) styleLinks(lines []string) []string {
	if !r.opts.StyleLinks {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = reHTTPURL.ReplaceAllStringFunc(line, func(u string) string {
			return linkStyle.Render(u)
		})
	}
	return out
}

func normalizeInlineText(s string) string {
	s = html.UnescapeString(s)
	parts := strings.Split(s, "\n")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Join(strings.Fields(part), " ")
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	replacer := strings.NewReplacer(" .", ".", " ,", ",", " !", "!", " ?", "?", "( ", "(", " )", ")")
	return replacer.Replace(strings.Join(out, "\n"))
}

func isBlockElement(tag string) bool {
	switch strings.ToLower(tag) {
	case "p", "div", "section", "article", "blockquote", "ul", "ol", "li",
		"pre", "hr", "h1", "h2", "h3", "h4", "h5", "h6", "img", "figure":
		return true
	default:
		return false
	}
}

func hasBlockChild(node *nethtml.Node) bool {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == nethtml.ElementNode && isBlockElement(child.Data) {
			return true
		}
	}
	return false
}

func findBodyNode(node *nethtml.Node) *nethtml.Node {
	if node == nil {
		return nil
	}
	if node.Type == nethtml.ElementNode && strings.EqualFold(node.Data, "body") {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findBodyNode(child); found != nil {
			return found
		}
	}
	return nil
}

func elementChildren(node *nethtml.Node) []*nethtml.Node {
	children := make([]*nethtml.Node, 0, 4)
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == nethtml.TextNode && strings.TrimSpace(child.Data) == "" {
			continue
		}
		children = append(children, child)
	}
	return children
}

func nodeAttr(node *nethtml.Node, name string) string {
	for _, attr := range node.Attr {
		if strings.EqualFold(attr.Key, name) {
			return strings.TrimSpace(attr.Val)
		}
	}
	return ""
}

func collectRawText(node *nethtml.Node) string {
	if node.Type == nethtml.TextNode {
		return node.Data
	}
	var b strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(collectRawText(child))
	}
	return b.String()
}
