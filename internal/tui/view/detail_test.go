package view

import (
	"strings"
	"testing"
	"time"

	"github.com/glabrego/tipfeed-cli/internal/model"
	"github.com/glabrego/tipfeed-cli/internal/render/post"
)

func TestDetailLines(t *testing.T) {
	entry := model.Entry{
		ID:         "p1",
		Author:     model.Author{Username: "ana", Followers: 4, Following: true},
		Content:    "<p>Hello there</p>",
		CreatedAt:  time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC),
		LikesCount: 2,
	}
	replies := []model.Entry{
		{ID: "r1", ParentID: "p1", Author: model.Author{Username: "bo"}, Content: "first"},
		{ID: "r2", ParentID: "p1", Author: model.Author{Username: "cy"}, Content: "second", Liked: true, LikesCount: 1},
	}
	got := stripANSI(strings.Join(DetailLines(entry, replies, 1, 60, 2, post.Options{}, post.WrapText), "\n"))
	for _, want := range []string{
		"  @ana",
		"  Date: 2026-02-09T12:00:00Z",
		"  Likes: 2",
		"  Followers: 4 (following)",
		"  Hello there",
		"  Replies (2)",
		"    @bo  ♡0",
		"  > @cy  ♥1",
		"      second",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in detail, got:\n%s", want, got)
		}
	}
}

func TestRenderDetailLines(t *testing.T) {
	lines := []string{"a", "b", "c", "d"}
	if got := RenderDetailLines(lines, 1, 2); got != "b\nc\n" {
		t.Fatalf("unexpected window: %q", got)
	}
	if got := RenderDetailLines(lines, 10, 2); got != "d\n" {
		t.Fatalf("expected clamped top, got %q", got)
	}
	if got := DetailMaxTop(4, 10); got != 0 {
		t.Fatalf("expected 0 max top, got %d", got)
	}
}
