package platform

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

var errNoClipboard = errors.New("no clipboard command available")

// Permalink builds the public web address of a post under webBaseURL.
func Permalink(webBaseURL, postID string) (string, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return "", errors.New("post has no id")
	}
	base, err := parseWebBase(webBaseURL)
	if err != nil {
		return "", err
	}
	return base.JoinPath("posts", postID).String(), nil
}

func parseWebBase(raw string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid web base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("web base URL has no host")
	}
	return parsed, nil
}

func OpenURLInBrowser(link string) error {
	name, args := browserCommand(runtime.GOOS, link)
	return exec.Command(name, args...).Run()
}

func browserCommand(goos, link string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{link}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", link}
	default:
		return "xdg-open", []string{link}
	}
}

// CopyURLToClipboard pipes link into the first clipboard tool that accepts it.
func CopyURLToClipboard(link string) error {
	candidates := clipboardCandidates(os.Getenv("WAYLAND_DISPLAY") != "", exec.LookPath)
	if len(candidates) == 0 {
		return errNoClipboard
	}
	var lastErr error
	for _, c := range candidates {
		cmd := exec.Command(c[0], c[1:]...)
		cmd.Stdin = bytes.NewBufferString(link)
		if lastErr = cmd.Run(); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("copy to clipboard: %w", lastErr)
}

// clipboardCandidates lists installed clipboard tools, wl-copy first on a
// Wayland session.
func clipboardCandidates(wayland bool, lookup func(string) (string, error)) [][]string {
	order := [][]string{{"pbcopy"}, {"xclip", "-selection", "clipboard"}, {"wl-copy"}}
	if wayland {
		order = [][]string{{"wl-copy"}, {"pbcopy"}, {"xclip", "-selection", "clipboard"}}
	}
	out := make([][]string, 0, len(order))
	for _, c := range order {
		if _, err := lookup(c[0]); err == nil {
			out = append(out, c)
		}
	}
	return out
}
