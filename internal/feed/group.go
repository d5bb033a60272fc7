package feed

import (
	"sync"

	"github.com/glabrego/tipfeed-cli/internal/model"
)

// Group fans confirmed patches out to the caches a composition root has
// mounted. It holds no entity data of its own; every cache stays the owner of
// its list.
type Group struct {
	mu     sync.RWMutex
	caches map[*Cache]struct{}
}

func NewGroup() *Group {
	return &Group{caches: make(map[*Cache]struct{})}
}

// Attach mounts c and returns the function that unmounts it.
func (g *Group) Attach(c *Cache) func() {
	g.mu.Lock()
	g.caches[c] = struct{}{}
	g.mu.Unlock()
	return func() { g.Detach(c) }
}

func (g *Group) Detach(c *Cache) {
	g.mu.Lock()
	delete(g.caches, c)
	g.mu.Unlock()
}

func (g *Group) PatchEntry(id string, p model.Patch) {
	for _, c := range g.mounted() {
		c.PatchEntry(id, p)
	}
}

func (g *Group) PatchAuthor(userID string, p model.AuthorPatch) {
	for _, c := range g.mounted() {
		c.PatchAuthor(userID, p)
	}
}

func (g *Group) RemoveEntry(id string) {
	for _, c := range g.mounted() {
		c.RemoveEntry(id)
	}
}

// PrependConfirmed inserts a newly created entry into every mounted view it
// belongs to: replies go to the replies view of their parent, top-level posts
// to the general listings. Bookmark-only views never receive new posts.
func (g *Group) PrependConfirmed(entry model.Entry) {
	for _, c := range g.mounted() {
		if accepts(c, entry) {
			c.PrependConfirmed(entry)
		}
	}
}

func (g *Group) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.caches)
}

func (g *Group) mounted() []*Cache {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Cache, 0, len(g.caches))
	for c := range g.caches {
		out = append(out, c)
	}
	return out
}

func accepts(c *Cache, entry model.Entry) bool {
	if c.bookmarkedOnly {
		return false
	}
	q := c.Query()
	switch q.Kind {
	case model.FeedReplies:
		return entry.ParentID == q.Ref
	case model.FeedUser:
		return !entry.IsReply() && entry.Author.ID == q.Ref
	case model.FeedTrending:
		return false
	default:
		return !entry.IsReply()
	}
}
