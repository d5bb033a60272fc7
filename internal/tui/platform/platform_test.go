package platform

import (
	"errors"
	"reflect"
	"testing"
)

func TestPermalink(t *testing.T) {
	got, err := Permalink("https://tipfeed.app/", "p 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://tipfeed.app/posts/p%201" {
		t.Fatalf("unexpected permalink: %q", got)
	}

	got, err = Permalink("https://example.com/social", "abc")
	if err != nil || got != "https://example.com/social/posts/abc" {
		t.Fatalf("expected base path kept, got %q err=%v", got, err)
	}

	for _, tc := range []struct{ base, id string }{
		{"https://tipfeed.app", " "},
		{"tipfeed.app", "p1"},
		{"ftp://tipfeed.app", "p1"},
		{"https://", "p1"},
	} {
		if _, err := Permalink(tc.base, tc.id); err == nil {
			t.Fatalf("expected error for base=%q id=%q", tc.base, tc.id)
		}
	}
}

func TestBrowserCommand(t *testing.T) {
	link := "https://tipfeed.app/posts/p1"
	cases := []struct {
		goos string
		name string
		args []string
	}{
		{goos: "darwin", name: "open", args: []string{link}},
		{goos: "windows", name: "rundll32", args: []string{"url.dll,FileProtocolHandler", link}},
		{goos: "linux", name: "xdg-open", args: []string{link}},
	}
	for _, tc := range cases {
		gotName, gotArgs := browserCommand(tc.goos, link)
		if gotName != tc.name || !reflect.DeepEqual(gotArgs, tc.args) {
			t.Fatalf("browserCommand(%q) = (%q, %v), want (%q, %v)", tc.goos, gotName, gotArgs, tc.name, tc.args)
		}
	}
}

func TestClipboardCandidates(t *testing.T) {
	installed := map[string]bool{"xclip": true, "wl-copy": true}
	lookup := func(bin string) (string, error) {
		if installed[bin] {
			return "/usr/bin/" + bin, nil
		}
		return "", errors.New("not found")
	}

	x11 := clipboardCandidates(false, lookup)
	want := [][]string{{"xclip", "-selection", "clipboard"}, {"wl-copy"}}
	if !reflect.DeepEqual(x11, want) {
		t.Fatalf("unexpected x11 order: got=%v want=%v", x11, want)
	}

	wayland := clipboardCandidates(true, lookup)
	if wayland[0][0] != "wl-copy" {
		t.Fatalf("expected wl-copy first on wayland, got %v", wayland)
	}

	none := func(string) (string, error) { return "", errors.New("not found") }
	if got := clipboardCandidates(false, none); len(got) != 0 {
		t.Fatalf("expected no candidates, got %v", got)
	}
}
