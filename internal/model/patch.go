package model

// Patch is a partial update of an Entry. Nil fields are left alone. When
// Replace is set the entry is swapped wholesale and the other fields are
// ignored.
type Patch struct {
	Liked      *bool
	LikesCount *int
	Bookmarked *bool
	Replace    *Entry
}

func (p Patch) IsZero() bool {
	return p.Liked == nil && p.LikesCount == nil && p.Bookmarked == nil && p.Replace == nil
}

func (p Patch) Apply(e Entry) Entry {
	if p.Replace != nil {
		return p.Replace.Clone()
	}
	out := e
	if p.Liked != nil {
		out.Liked = *p.Liked
	}
	if p.LikesCount != nil {
		out.LikesCount = *p.LikesCount
	}
	if p.Bookmarked != nil {
		out.Bookmarked = *p.Bookmarked
	}
	return out
}

// AuthorPatch updates the author block of every entry written by one user.
type AuthorPatch struct {
	Following *bool
	Followers *int
}

func (p AuthorPatch) Apply(a Author) Author {
	out := a
	if p.Following != nil {
		out.Following = *p.Following
	}
	if p.Followers != nil {
		out.Followers = *p.Followers
	}
	return out
}

func Bool(v bool) *bool { return &v }

func Int(v int) *int { return &v }
