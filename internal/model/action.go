package model

import (
	"fmt"
	"strings"
)

type ActionKind string

const (
	ActionLike       ActionKind = "like"
	ActionUnlike     ActionKind = "unlike"
	ActionBookmark   ActionKind = "bookmark"
	ActionUnbookmark ActionKind = "unbookmark"
	ActionTip        ActionKind = "tip"
	ActionFollow     ActionKind = "follow"
	ActionUnfollow   ActionKind = "unfollow"
	ActionEdit       ActionKind = "edit"
	ActionDelete     ActionKind = "delete"
	ActionReport     ActionKind = "report"
	ActionCreate     ActionKind = "create"
)

// Family groups the action kinds that share one in-flight guard. Toggle pairs
// operate on the same flag and therefore share a family.
type Family string

const (
	FamilyLike     Family = "like"
	FamilyBookmark Family = "bookmark"
	FamilyFollow   Family = "follow"
	FamilyTip      Family = "tip"
	FamilyEdit     Family = "edit"
	FamilyDelete   Family = "delete"
	FamilyReport   Family = "report"
	FamilyCreate   Family = "create"
)

func (k ActionKind) Family() Family {
	switch k {
	case ActionLike, ActionUnlike:
		return FamilyLike
	case ActionBookmark, ActionUnbookmark:
		return FamilyBookmark
	case ActionFollow, ActionUnfollow:
		return FamilyFollow
	case ActionTip:
		return FamilyTip
	case ActionEdit:
		return FamilyEdit
	case ActionDelete:
		return FamilyDelete
	case ActionReport:
		return FamilyReport
	default:
		return FamilyCreate
	}
}

// Intent identifies one in-flight mutation. EntityID is a user id for the
// follow family and an entry id otherwise.
type Intent struct {
	EntityID string
	Family   Family
}

func IntentFor(entityID string, kind ActionKind) Intent {
	return Intent{EntityID: entityID, Family: kind.Family()}
}

func (i Intent) String() string {
	return string(i.Family) + ":" + i.EntityID
}

// FeedKind selects the listing a feed view is built from.
type FeedKind string

const (
	FeedForYou    FeedKind = "for_you"
	FeedFollowing FeedKind = "following"
	FeedTrending  FeedKind = "trending"
	FeedBookmarks FeedKind = "bookmarks"
	FeedUser      FeedKind = "user"
	FeedReplies   FeedKind = "replies"
)

// FeedQuery names one logical feed. Ref is the user id for FeedUser and the
// parent post id for FeedReplies.
type FeedQuery struct {
	Kind FeedKind
	Ref  string
}

func (q FeedQuery) String() string {
	if q.Ref == "" {
		return string(q.Kind)
	}
	return string(q.Kind) + ":" + q.Ref
}

func ParseFeedQuery(raw string) (FeedQuery, error) {
	kind, ref, _ := strings.Cut(strings.TrimSpace(raw), ":")
	q := FeedQuery{Kind: FeedKind(kind), Ref: ref}
	switch q.Kind {
	case FeedForYou, FeedFollowing, FeedTrending, FeedBookmarks:
		if q.Ref != "" {
			return FeedQuery{}, fmt.Errorf("feed %s takes no reference: %s", q.Kind, raw)
		}
	case FeedUser, FeedReplies:
		if q.Ref == "" {
			return FeedQuery{}, fmt.Errorf("feed %s requires a reference: %s", q.Kind, raw)
		}
	default:
		return FeedQuery{}, fmt.Errorf("unknown feed: %s", raw)
	}
	return q, nil
}
