package post

import (
	"regexp"
	"strings"
	"testing"

	"github.com/glabrego/tipfeed-cli/internal/model"
)

var stripANSIForTest = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func plain(lines []string) string {
	return stripANSIForTest.ReplaceAllString(strings.Join(lines, "\n"), "")
}

func TestContentLines_PlainText(t *testing.T) {
	got := plain(ContentLines(model.Entry{Content: "just words"}, 80))
	if got != "just words" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestContentLines_ParagraphsAndBreaks(t *testing.T) {
	entry := model.Entry{Content: `<p>First line<br>second line</p><p>Another &amp; more.</p>`}
	got := plain(ContentLines(entry, 80))
	want := "First line\nsecond line\n\nAnother & more."
	if got != want {
		t.Fatalf("unexpected output:\n%q\nwant\n%q", got, want)
	}
}

func TestContentLines_Links(t *testing.T) {
	entry := model.Entry{Content: `<p>Hi <a href="/u/ana">@ana</a>, see <a href="https://example.com/x">this</a> and <a href="https://example.com/y">https://example.com/y</a></p>`}
	got := plain(ContentLines(entry, 200))
	if !strings.Contains(got, "Hi @ana, see this (https://example.com/x)") {
		t.Fatalf("unexpected link rendering: %q", got)
	}
	if strings.Count(got, "https://example.com/y") != 1 {
		t.Fatalf("expected bare link once, got %q", got)
	}
}

func TestContentLines_ListsQuotesAndCode(t *testing.T) {
	entry := model.Entry{Content: `<ol><li>one</li><li>two</li></ol><blockquote><p>quoted</p></blockquote><pre>x := 1
y := 2</pre><script>alert(1)</script>`}
	got := plain(ContentLines(entry, 80))
	for _, want := range []string{"1. one", "2. two", "│ quoted", "    x := 1", "    y := 2"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output, got %q", want, got)
		}
	}
	if strings.Contains(got, "alert") {
		t.Fatalf("expected script to be dropped, got %q", got)
	}
}

func TestContentLines_WrapsToWidth(t *testing.T) {
	entry := model.Entry{Content: strings.Repeat("word ", 30)}
	for _, line := range ContentLines(entry, 20) {
		if visibleLen(line) > 20 {
			t.Fatalf("line exceeds width: %q", line)
		}
	}
}

func TestContentLines_MediaRefsFollowText(t *testing.T) {
	entry := model.Entry{Content: "caption", MediaRefs: []string{"https://cdn.example.com/a.jpg", " "}}
	got := plain(ContentLines(entry, 80))
	if !strings.HasPrefix(got, "caption\n\nMedia 1  https://cdn.example.com/a.jpg") {
		t.Fatalf("unexpected media rendering: %q", got)
	}
	if strings.Contains(got, "Media 2") {
		t.Fatalf("expected blank refs skipped, got %q", got)
	}

	hidden := plain(ContentLinesWithOptions(entry, 80, Options{}))
	if strings.Contains(hidden, "Media") {
		t.Fatalf("expected media hidden, got %q", hidden)
	}
}

func TestText_IsUnstyled(t *testing.T) {
	got := Text(model.Entry{Content: `<p>see https://example.com</p>`})
	if strings.Contains(got, "\x1b[") {
		t.Fatalf("expected no ANSI codes, got %q", got)
	}
}

func TestPreview(t *testing.T) {
	entry := model.Entry{Content: "<p>one</p><p>two three four</p>"}
	if got := Preview(entry, 100); got != "one two three four" {
		t.Fatalf("unexpected preview: %q", got)
	}
	if got := Preview(entry, 8); got != "one t..." {
		t.Fatalf("unexpected truncated preview: %q", got)
	}
	if got := Preview(model.Entry{MediaRefs: []string{"x"}}, 20); got != "(media)" {
		t.Fatalf("unexpected media-only preview: %q", got)
	}
}

func TestWrapText_SplitsLongWords(t *testing.T) {
	got := WrapText("ééééééé", 3)
	want := []string{"ééé", "ééé", "é"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected wrap: %v", got)
	}
}
