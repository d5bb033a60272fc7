package model

import "time"

// Author is the subset of profile fields shown next to an entry.
type Author struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Following bool   `json:"followedByCurrentUser"`
	Followers int    `json:"followersCount"`
}

// Entry is one post or reply. Engagement fields are only ever written from a
// server response, never adjusted locally.
type Entry struct {
	ID         string    `json:"id"`
	Author     Author    `json:"author"`
	Content    string    `json:"content"`
	MediaRefs  []string  `json:"mediaRefs,omitempty"`
	ParentID   string    `json:"parentId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	LikesCount int       `json:"likesCount"`
	Liked      bool      `json:"likedByCurrentUser"`
	Bookmarked bool      `json:"bookmarkedByCurrentUser"`
}

// Clone returns a copy that shares no slices with e.
func (e Entry) Clone() Entry {
	out := e
	if e.MediaRefs != nil {
		out.MediaRefs = append([]string(nil), e.MediaRefs...)
	}
	return out
}

func (e Entry) IsReply() bool {
	return e.ParentID != ""
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func (p Pagination) HasMore() bool {
	return p.Page < p.TotalPages
}

// Page is one fetch result of a listing endpoint.
type Page struct {
	Items      []Entry    `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// LikeState is the server's answer to a like or unlike request.
type LikeState struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

// Account is the authenticated user together with the authoritative point
// balance.
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Balance  int64  `json:"balance"`
}

// Draft is the input of a new post or reply.
type Draft struct {
	Content   string   `json:"content" validate:"required,max=2000"`
	MediaRefs []string `json:"mediaRefs,omitempty" validate:"max=4"`
	ParentID  string   `json:"parentId,omitempty"`
}

// Activity is one confirmed mutation as kept in the local journal.
type Activity struct {
	ID           string
	Kind         ActionKind
	EntityID     string
	Amount       int64
	BalanceAfter int64
	At           time.Time
}
