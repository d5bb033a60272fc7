// Package feed keeps one paginated, deduplicated list per view and merges
// server pages and confirmed patches into it.
package feed

import (
	"context"
	"sync"

	"github.com/glabrego/tipfeed-cli/internal/model"
)

// Fetcher loads one page of a logical feed. Pages start at 1.
type Fetcher func(ctx context.Context, page int) (model.Page, error)

// State is a point-in-time copy of a Cache.
type State struct {
	Entries     []model.Entry
	CurrentPage int
	HasMore     bool
	Loading     bool
	LoadingMore bool
	Err         error
}

type Option func(*Cache)

// WithBookmarkedOnly marks a view that lists bookmarked entries only. An entry
// patched to not bookmarked leaves such a view.
func WithBookmarkedOnly() Option {
	return func(c *Cache) { c.bookmarkedOnly = true }
}

// WithOnChange registers a callback invoked after every state change. It runs
// without the cache lock held.
func WithOnChange(fn func()) Option {
	return func(c *Cache) { c.onChange = fn }
}

// Cache owns one feed view. No two entries in it share an id.
type Cache struct {
	mu             sync.Mutex
	query          model.FeedQuery
	entries        []model.Entry
	ids            map[string]struct{}
	currentPage    int
	hasMore        bool
	firstInFlight  int
	loadingMore    bool
	err            error
	generation     uint64
	bookmarkedOnly bool
	onChange       func()
}

func NewCache(query model.FeedQuery, opts ...Option) *Cache {
	c := &Cache{
		query: query,
		ids:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Query() model.FeedQuery {
	return c.query
}

// LoadFirstPage replaces the whole list with page 1. On failure the list is
// cleared and the error kept. Overlapping calls are not serialized: whichever
// response arrives last is written.
func (c *Cache) LoadFirstPage(ctx context.Context, fetch Fetcher) error {
	c.mu.Lock()
	c.generation++
	c.firstInFlight++
	c.loadingMore = false
	c.err = nil
	c.mu.Unlock()
	c.notify()

	page, err := fetch(ctx, 1)

	c.mu.Lock()
	c.firstInFlight--
	if err != nil {
		c.err = err
		c.reset(nil)
		c.currentPage = 0
		c.hasMore = false
	} else {
		c.err = nil
		c.reset(page.Items)
		c.currentPage = pageNumber(page.Pagination, 1)
		c.hasMore = page.Pagination.HasMore()
	}
	c.mu.Unlock()
	c.notify()
	return err
}

// LoadMore fetches the page after the current one and appends the entries
// whose ids are not already listed, in server order. It is a no-op returning
// (0, nil) when there is nothing more or a load is in flight. A failure keeps
// the list as it was.
func (c *Cache) LoadMore(ctx context.Context, fetch Fetcher) (int, error) {
	c.mu.Lock()
	if !c.hasMore || c.firstInFlight > 0 || c.loadingMore {
		c.mu.Unlock()
		return 0, nil
	}
	c.loadingMore = true
	c.err = nil
	next := c.currentPage + 1
	generation := c.generation
	c.mu.Unlock()
	c.notify()

	page, err := fetch(ctx, next)

	c.mu.Lock()
	if generation != c.generation {
		// the list was reset while this page was in flight
		c.mu.Unlock()
		return 0, nil
	}
	c.loadingMore = false
	if err != nil {
		c.err = err
		c.mu.Unlock()
		c.notify()
		return 0, err
	}
	added := c.appendNew(page.Items)
	c.currentPage = pageNumber(page.Pagination, next)
	c.hasMore = page.Pagination.HasMore()
	c.mu.Unlock()
	c.notify()
	return added, nil
}

// PrependConfirmed inserts a server-confirmed entry at the head of the list.
// It reports false when an entry with the same id is already listed.
func (c *Cache) PrependConfirmed(entry model.Entry) bool {
	c.mu.Lock()
	if _, ok := c.ids[entry.ID]; ok || entry.ID == "" {
		c.mu.Unlock()
		return false
	}
	entries := make([]model.Entry, 0, len(c.entries)+1)
	entries = append(entries, entry.Clone())
	c.entries = append(entries, c.entries...)
	c.ids[entry.ID] = struct{}{}
	c.mu.Unlock()
	c.notify()
	return true
}

// PatchEntry applies p to the entry with the given id. Order and pagination
// are untouched. It reports whether an entry matched.
func (c *Cache) PatchEntry(id string, p model.Patch) bool {
	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 || p.IsZero() {
		c.mu.Unlock()
		return false
	}
	next := p.Apply(c.entries[idx])
	next.ID = id
	if c.bookmarkedOnly && !next.Bookmarked {
		c.removeAt(idx)
	} else {
		c.entries[idx] = next
	}
	c.mu.Unlock()
	c.notify()
	return true
}

// PatchAuthor applies p to every entry written by userID and returns how many
// entries changed.
func (c *Cache) PatchAuthor(userID string, p model.AuthorPatch) int {
	c.mu.Lock()
	n := 0
	for i := range c.entries {
		if c.entries[i].Author.ID != userID {
			continue
		}
		c.entries[i].Author = p.Apply(c.entries[i].Author)
		n++
	}
	c.mu.Unlock()
	if n > 0 {
		c.notify()
	}
	return n
}

// RemoveEntry drops the entry with the given id if it is listed.
func (c *Cache) RemoveEntry(id string) bool {
	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	c.removeAt(idx)
	c.mu.Unlock()
	c.notify()
	return true
}

func (c *Cache) Entry(id string) (model.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOf(id)
	if idx < 0 {
		return model.Entry{}, false
	}
	return c.entries[idx].Clone(), true
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := make([]model.Entry, len(c.entries))
	for i, e := range c.entries {
		entries[i] = e.Clone()
	}
	return State{
		Entries:     entries,
		CurrentPage: c.currentPage,
		HasMore:     c.hasMore,
		Loading:     c.firstInFlight > 0,
		LoadingMore: c.loadingMore,
		Err:         c.err,
	}
}

func (c *Cache) reset(items []model.Entry) {
	c.entries = make([]model.Entry, 0, len(items))
	c.ids = make(map[string]struct{}, len(items))
	c.appendNew(items)
}

func (c *Cache) appendNew(items []model.Entry) int {
	added := 0
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		if _, ok := c.ids[item.ID]; ok {
			continue
		}
		c.ids[item.ID] = struct{}{}
		c.entries = append(c.entries, item.Clone())
		added++
	}
	return added
}

func (c *Cache) indexOf(id string) int {
	if _, ok := c.ids[id]; !ok {
		return -1
	}
	for i := range c.entries {
		if c.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Cache) removeAt(idx int) {
	delete(c.ids, c.entries[idx].ID)
	c.entries = append(c.entries[:idx:idx], c.entries[idx+1:]...)
}

func (c *Cache) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}

func pageNumber(p model.Pagination, fallback int) int {
	if p.Page < 1 {
		return fallback
	}
	return p.Page
}
