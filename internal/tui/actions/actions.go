package actions

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/tipfeed-cli/internal/feed"
	"github.com/glabrego/tipfeed-cli/internal/model"
)

// LoadTimeout bounds feed and journal loads started from the UI.
const LoadTimeout = 10 * time.Second

// Engager is the engagement surface the UI drives. Every method blocks until
// the server answers; cached views are patched before it returns.
type Engager interface {
	Busy(entityID string, kind model.ActionKind) bool
	ToggleLike(ctx context.Context, postID string, liked bool) (model.LikeState, error)
	ToggleBookmark(ctx context.Context, postID string, bookmarked bool) (bool, error)
	Tip(ctx context.Context, postID string, amount int64) (int64, error)
	ToggleFollow(ctx context.Context, userID string, following bool, followers int) (model.Author, error)
	Edit(ctx context.Context, postID, current, content string) (model.Entry, error)
	Delete(ctx context.Context, postID string) error
	Report(ctx context.Context, postID, reason string) (string, error)
	Create(ctx context.Context, draft model.Draft) (model.Entry, error)
}

type AccountRefresher interface {
	Refresh(ctx context.Context) (model.Account, error)
}

type Journal interface {
	RecentActivity(ctx context.Context, limit int) ([]model.Activity, error)
	TotalTipped(ctx context.Context) (int64, error)
}

// FeedLoadedMsg reports a LoadFirstPage on the cache for Query.
type FeedLoadedMsg struct {
	Query    model.FeedQuery
	Err      error
	Duration time.Duration
}

type MoreLoadedMsg struct {
	Query model.FeedQuery
	Added int
	Err   error
}

// ActionDoneMsg reports one engagement action. EntityID is the key the
// triggering control is bound to, so errors can be shown next to it.
type ActionDoneMsg struct {
	Kind     model.ActionKind
	EntityID string
	Status   string
	Err      error
	// Created is set for successful create actions.
	Created *model.Entry
}

type ActivityLoadedMsg struct {
	Items       []model.Activity
	TotalTipped int64
	Err         error
}

// BalanceMsg carries the displayed balance. Animating is set while a
// transition is running.
type BalanceMsg struct {
	Value     int64
	Animating bool
}

type AccountLoadedMsg struct {
	Account model.Account
	Err     error
}

type ClipboardMsg struct {
	Status string
	Err    error
}

func LoadFirstPageCmd(cache *feed.Cache, fetch feed.Fetcher) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), LoadTimeout)
		defer cancel()
		start := time.Now()

		err := cache.LoadFirstPage(ctx, fetch)
		return FeedLoadedMsg{Query: cache.Query(), Err: err, Duration: time.Since(start)}
	}
}

func LoadMoreCmd(cache *feed.Cache, fetch feed.Fetcher) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), LoadTimeout)
		defer cancel()

		added, err := cache.LoadMore(ctx, fetch)
		return MoreLoadedMsg{Query: cache.Query(), Added: added, Err: err}
	}
}

// The engagement commands rely on the coordinator's own request timeout.

func ToggleLikeCmd(e Engager, entry model.Entry) tea.Cmd {
	return func() tea.Msg {
		kind := model.ActionLike
		if entry.Liked {
			kind = model.ActionUnlike
		}
		state, err := e.ToggleLike(context.Background(), entry.ID, entry.Liked)
		if err != nil {
			return ActionDoneMsg{Kind: kind, EntityID: entry.ID, Err: err}
		}
		status := "Unliked post"
		if state.Liked {
			status = "Liked post"
		}
		return ActionDoneMsg{Kind: kind, EntityID: entry.ID, Status: status}
	}
}

func ToggleBookmarkCmd(e Engager, entry model.Entry) tea.Cmd {
	return func() tea.Msg {
		kind := model.ActionBookmark
		if entry.Bookmarked {
			kind = model.ActionUnbookmark
		}
		next, err := e.ToggleBookmark(context.Background(), entry.ID, entry.Bookmarked)
		if err != nil {
			return ActionDoneMsg{Kind: kind, EntityID: entry.ID, Err: err}
		}
		status := "Removed bookmark"
		if next {
			status = "Bookmarked post"
		}
		return ActionDoneMsg{Kind: kind, EntityID: entry.ID, Status: status}
	}
}

func TipCmd(e Engager, postID string, amount int64) tea.Cmd {
	return func() tea.Msg {
		_, err := e.Tip(context.Background(), postID, amount)
		if err != nil {
			return ActionDoneMsg{Kind: model.ActionTip, EntityID: postID, Err: err}
		}
		return ActionDoneMsg{Kind: model.ActionTip, EntityID: postID, Status: fmt.Sprintf("Tipped %d points", amount)}
	}
}

func ToggleFollowCmd(e Engager, author model.Author) tea.Cmd {
	return func() tea.Msg {
		kind := model.ActionFollow
		if author.Following {
			kind = model.ActionUnfollow
		}
		next, err := e.ToggleFollow(context.Background(), author.ID, author.Following, author.Followers)
		if err != nil {
			return ActionDoneMsg{Kind: kind, EntityID: author.ID, Err: err}
		}
		status := "Unfollowed @" + author.Username
		if next.Following {
			status = "Following @" + author.Username
		}
		return ActionDoneMsg{Kind: kind, EntityID: author.ID, Status: status}
	}
}

func EditCmd(e Engager, postID, current, content string) tea.Cmd {
	return func() tea.Msg {
		if _, err := e.Edit(context.Background(), postID, current, content); err != nil {
			return ActionDoneMsg{Kind: model.ActionEdit, EntityID: postID, Err: err}
		}
		return ActionDoneMsg{Kind: model.ActionEdit, EntityID: postID, Status: "Post updated"}
	}
}

func DeleteCmd(e Engager, postID string) tea.Cmd {
	return func() tea.Msg {
		if err := e.Delete(context.Background(), postID); err != nil {
			return ActionDoneMsg{Kind: model.ActionDelete, EntityID: postID, Err: err}
		}
		return ActionDoneMsg{Kind: model.ActionDelete, EntityID: postID, Status: "Post deleted"}
	}
}

func ReportCmd(e Engager, postID, reason string) tea.Cmd {
	return func() tea.Msg {
		if _, err := e.Report(context.Background(), postID, reason); err != nil {
			return ActionDoneMsg{Kind: model.ActionReport, EntityID: postID, Err: err}
		}
		return ActionDoneMsg{Kind: model.ActionReport, EntityID: postID, Status: "Report sent"}
	}
}

func CreateCmd(e Engager, draft model.Draft) tea.Cmd {
	return func() tea.Msg {
		created, err := e.Create(context.Background(), draft)
		if err != nil {
			return ActionDoneMsg{Kind: model.ActionCreate, EntityID: draft.ParentID, Err: err}
		}
		status := "Posted"
		if draft.ParentID != "" {
			status = "Reply posted"
		}
		return ActionDoneMsg{Kind: model.ActionCreate, EntityID: draft.ParentID, Status: status, Created: &created}
	}
}

func LoadActivityCmd(j Journal, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), LoadTimeout)
		defer cancel()

		items, err := j.RecentActivity(ctx, limit)
		if err != nil {
			return ActivityLoadedMsg{Err: err}
		}
		total, err := j.TotalTipped(ctx)
		if err != nil {
			return ActivityLoadedMsg{Err: err}
		}
		return ActivityLoadedMsg{Items: items, TotalTipped: total}
	}
}

func RefreshAccountCmd(r AccountRefresher) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), LoadTimeout)
		defer cancel()

		account, err := r.Refresh(ctx)
		return AccountLoadedMsg{Account: account, Err: err}
	}
}

func CopyCmd(text string, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if copyFn != nil {
			if err := copyFn(text); err == nil {
				return ClipboardMsg{Status: "Link copied to clipboard"}
			}
		}
		return ClipboardMsg{Err: fmt.Errorf("could not copy link to clipboard")}
	}
}

func OpenCmd(url string, openFn, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if openFn != nil {
			if err := openFn(url); err == nil {
				return ClipboardMsg{Status: "Opened in browser"}
			}
		}
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return ClipboardMsg{Status: "Could not open browser, link copied to clipboard"}
			}
		}
		return ClipboardMsg{Err: fmt.Errorf("could not open link or copy to clipboard")}
	}
}
