// Package engage runs engagement actions against the backend. Nothing is
// changed before the server confirms; the confirmed values are then handed to
// a Sink as patches.
package engage

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/glabrego/tipfeed-cli/internal/api"
	"github.com/glabrego/tipfeed-cli/internal/metrics"
	"github.com/glabrego/tipfeed-cli/internal/model"
)

type Backend interface {
	Like(ctx context.Context, postID string) (model.LikeState, error)
	Unlike(ctx context.Context, postID string) (model.LikeState, error)
	Bookmark(ctx context.Context, postID string) (bool, error)
	Unbookmark(ctx context.Context, postID string) (bool, error)
	Tip(ctx context.Context, postID string, amount int64) (int64, error)
	Follow(ctx context.Context, userID string) (bool, error)
	Unfollow(ctx context.Context, userID string) (bool, error)
	EditPost(ctx context.Context, postID, content string) (model.Entry, error)
	DeletePost(ctx context.Context, postID string) error
	Report(ctx context.Context, postID, reason string) (string, error)
	CreatePost(ctx context.Context, draft model.Draft) (model.Entry, error)
}

// Sink receives confirmed changes. Every view currently showing the entity
// must be reachable from it.
type Sink interface {
	PatchEntry(id string, p model.Patch)
	PatchAuthor(userID string, p model.AuthorPatch)
	RemoveEntry(id string)
	PrependConfirmed(entry model.Entry)
}

// BalanceStarter animates the displayed balance after a confirmed spend.
type BalanceStarter interface {
	StartTransition(newBalance, amountSpent int64)
}

// Journal records confirmed mutations. Failures are logged and otherwise
// ignored.
type Journal interface {
	Record(ctx context.Context, a model.Activity) error
}

type Option func(*Coordinator)

func WithBalance(b BalanceStarter) Option {
	return func(c *Coordinator) { c.balance = b }
}

func WithJournal(j Journal) Option {
	return func(c *Coordinator) { c.journal = j }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Coordinator) { c.log = log }
}

// WithTimeout bounds every backend call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// Coordinator allows at most one in-flight request per (entity, family).
type Coordinator struct {
	backend Backend
	sink    Sink
	balance BalanceStarter
	journal Journal
	log     logrus.FieldLogger
	timeout time.Duration
	now     func() time.Time

	mu   sync.Mutex
	busy map[model.Intent]struct{}
}

func New(backend Backend, sink Sink, opts ...Option) *Coordinator {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	c := &Coordinator{
		backend: backend,
		sink:    sink,
		log:     discard,
		timeout: 10 * time.Second,
		now:     time.Now,
		busy:    make(map[model.Intent]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Busy reports whether an action of kind's family is in flight for entityID.
// Controls bound to that family should render disabled while it is.
func (c *Coordinator) Busy(entityID string, kind model.ActionKind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.busy[model.IntentFor(entityID, kind)]
	return ok
}

// ToggleLike likes the entry when liked is false and unlikes it otherwise.
// The patched count is the one the server returned.
func (c *Coordinator) ToggleLike(ctx context.Context, postID string, liked bool) (model.LikeState, error) {
	kind := model.ActionLike
	if liked {
		kind = model.ActionUnlike
	}
	release, err := c.acquire(postID, kind)
	if err != nil {
		return model.LikeState{}, err
	}
	defer release()

	ctx, cancel := c.bound(ctx)
	defer cancel()

	var state model.LikeState
	if liked {
		state, err = c.backend.Unlike(ctx, postID)
	} else {
		state, err = c.backend.Like(ctx, postID)
	}
	if err != nil {
		return model.LikeState{}, c.failed(kind, postID, err)
	}

	state.Liked = !liked
	c.sink.PatchEntry(postID, model.Patch{
		Liked:      model.Bool(state.Liked),
		LikesCount: model.Int(state.LikesCount),
	})
	c.confirmed(ctx, kind, postID, 0, 0)
	return state, nil
}

// ToggleBookmark bookmarks or unbookmarks the entry and returns the new flag.
func (c *Coordinator) ToggleBookmark(ctx context.Context, postID string, bookmarked bool) (bool, error) {
	kind := model.ActionBookmark
	if bookmarked {
		kind = model.ActionUnbookmark
	}
	release, err := c.acquire(postID, kind)
	if err != nil {
		return bookmarked, err
	}
	defer release()

	ctx, cancel := c.bound(ctx)
	defer cancel()

	if bookmarked {
		_, err = c.backend.Unbookmark(ctx, postID)
	} else {
		_, err = c.backend.Bookmark(ctx, postID)
	}
	if err != nil {
		return bookmarked, c.failed(kind, postID, err)
	}

	next := !bookmarked
	c.sink.PatchEntry(postID, model.Patch{Bookmarked: model.Bool(next)})
	c.confirmed(ctx, kind, postID, 0, 0)
	return next, nil
}

// Tip spends amount points on the entry. The entry itself is not patched; the
// balance animator is started from the server's new balance.
func (c *Coordinator) Tip(ctx context.Context, postID string, amount int64) (int64, error) {
	if err := validateTip(amount); err != nil {
		return 0, c.invalid(model.ActionTip, postID, err)
	}
	release, err := c.acquire(postID, model.ActionTip)
	if err != nil {
		return 0, err
	}
	defer release()

	ctx, cancel := c.bound(ctx)
	defer cancel()

	balance, err := c.backend.Tip(ctx, postID, amount)
	if err != nil {
		return 0, c.failed(model.ActionTip, postID, err)
	}

	if c.balance != nil {
		c.balance.StartTransition(balance, amount)
	}
	c.confirmed(ctx, model.ActionTip, postID, amount, balance)
	return balance, nil
}

// ToggleFollow follows or unfollows userID. The server returns no fresh
// follower count, so the displayed one is moved by one from followers.
func (c *Coordinator) ToggleFollow(ctx context.Context, userID string, following bool, followers int) (model.Author, error) {
	kind := model.ActionFollow
	if following {
		kind = model.ActionUnfollow
	}
	release, err := c.acquire(userID, kind)
	if err != nil {
		return model.Author{}, err
	}
	defer release()

	ctx, cancel := c.bound(ctx)
	defer cancel()

	if following {
		_, err = c.backend.Unfollow(ctx, userID)
	} else {
		_, err = c.backend.Follow(ctx, userID)
	}
	if err != nil {
		return model.Author{}, c.failed(kind, userID, err)
	}

	count := followers + 1
	if following {
		count = followers - 1
	}
	if count < 0 {
		count = 0
	}
	patch := model.AuthorPatch{Following: model.Bool(!following), Followers: model.Int(count)}
	c.sink.PatchAuthor(userID, patch)
	c.confirmed(ctx, kind, userID, 0, 0)
	return patch.Apply(model.Author{ID: userID}), nil
}

// Edit replaces the entry's content and patches every view with the entity
// the server returned, so server-side normalization wins.
func (c *Coordinator) Edit(ctx context.Context, postID, current, content string) (model.Entry, error) {
	next, err := normalizeContent(content)
	if err != nil {
		return model.Entry{}, c.invalid(model.ActionEdit, postID, err)
	}
	if next == strings.TrimSpace(current) {
		return model.Entry{}, ErrUnchanged
	}
	release, err := c.acquire(postID, model.ActionEdit)
	if err != nil {
		return model.Entry{}, err
	}
	defer release()

	ctx, cancel := c.bound(ctx)
	defer cancel()

	updated, err := c.backend.EditPost(ctx, postID, next)
	if err != nil {
		return model.Entry{}, c.failed(model.ActionEdit, postID, err)
	}

	updated.ID = postID
	c.sink.PatchEntry(postID, model.Patch{Replace: &updated})
	c.confirmed(ctx, model.ActionEdit, postID, 0, 0)
	return updated, nil
}

func (c *Coordinator) Delete(ctx context.Context, postID string) error {
	release, err := c.acquire(postID, model.ActionDelete)
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := c.bound(ctx)
	defer cancel()

	if err := c.backend.DeletePost(ctx, postID); err != nil {
		return c.failed(model.ActionDelete, postID, err)
	}
	c.sink.RemoveEntry(postID)
	c.confirmed(ctx, model.ActionDelete, postID, 0, 0)
	return nil
}

// Report files a report. No view changes either way.
func (c *Coordinator) Report(ctx context.Context, postID, reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if err := validateReport(reason); err != nil {
		return "", c.invalid(model.ActionReport, postID, err)
	}
	release, err := c.acquire(postID, model.ActionReport)
	if err != nil {
		return "", err
	}
	defer release()

	ctx, cancel := c.bound(ctx)
	defer cancel()

	id, err := c.backend.Report(ctx, postID, reason)
	if err != nil {
		return "", c.failed(model.ActionReport, postID, err)
	}
	c.confirmed(ctx, model.ActionReport, postID, 0, 0)
	return id, nil
}

// Create publishes a post or reply and prepends the confirmed entry to the
// views it belongs to. The guard key is the parent id, empty for top-level
// posts.
func (c *Coordinator) Create(ctx context.Context, draft model.Draft) (model.Entry, error) {
	clean, err := validateDraft(draft)
	if err != nil {
		return model.Entry{}, c.invalid(model.ActionCreate, draft.ParentID, err)
	}
	draft = clean
	release, err := c.acquire(draft.ParentID, model.ActionCreate)
	if err != nil {
		return model.Entry{}, err
	}
	defer release()

	ctx, cancel := c.bound(ctx)
	defer cancel()

	created, err := c.backend.CreatePost(ctx, draft)
	if err != nil {
		return model.Entry{}, c.failed(model.ActionCreate, draft.ParentID, err)
	}
	c.sink.PrependConfirmed(created)
	c.confirmed(ctx, model.ActionCreate, created.ID, 0, 0)
	return created, nil
}

func (c *Coordinator) acquire(entityID string, kind model.ActionKind) (func(), error) {
	intent := model.IntentFor(entityID, kind)
	c.mu.Lock()
	if _, ok := c.busy[intent]; ok {
		c.mu.Unlock()
		metrics.RecordAction(string(kind), metrics.OutcomeDropped)
		c.log.WithFields(logrus.Fields{"action": kind, "entity_id": entityID}).Debug("trigger dropped while busy")
		return nil, ErrBusy
	}
	c.busy[intent] = struct{}{}
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.busy, intent)
		c.mu.Unlock()
	}, nil
}

func (c *Coordinator) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Coordinator) failed(kind model.ActionKind, entityID string, err error) error {
	metrics.RecordAction(string(kind), metrics.OutcomeFailure)
	c.log.WithFields(logrus.Fields{
		"action":    kind,
		"entity_id": entityID,
		"kind":      api.Classify(err),
	}).WithError(err).Warn("engagement action failed")
	return err
}

func (c *Coordinator) invalid(kind model.ActionKind, entityID string, err error) error {
	metrics.RecordAction(string(kind), metrics.OutcomeInvalid)
	c.log.WithFields(logrus.Fields{"action": kind, "entity_id": entityID}).WithError(err).Debug("engagement input rejected")
	return err
}

func (c *Coordinator) confirmed(ctx context.Context, kind model.ActionKind, entityID string, amount, balance int64) {
	metrics.RecordAction(string(kind), metrics.OutcomeSuccess)
	c.log.WithFields(logrus.Fields{"action": kind, "entity_id": entityID}).Info("engagement action confirmed")
	if c.journal == nil {
		return
	}
	err := c.journal.Record(context.WithoutCancel(ctx), model.Activity{
		Kind:         kind,
		EntityID:     entityID,
		Amount:       amount,
		BalanceAfter: balance,
		At:           c.now().UTC(),
	})
	if err != nil {
		c.log.WithFields(logrus.Fields{"action": kind, "entity_id": entityID}).WithError(err).Warn("could not record activity")
	}
}
