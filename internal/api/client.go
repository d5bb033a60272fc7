package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/glabrego/tipfeed-cli/internal/metrics"
	"github.com/glabrego/tipfeed-cli/internal/model"
)

type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	log     logrus.FieldLogger
}

type Option func(*Client)

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

func NewClient(baseURL, token string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Inf, 1),
		log:     discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListPage(ctx context.Context, q model.FeedQuery, page, limit int) (model.Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	values := make(url.Values)
	values.Set("page", strconv.Itoa(page))
	values.Set("limit", strconv.Itoa(limit))

	var path string
	switch q.Kind {
	case model.FeedUser:
		path = "/users/" + url.PathEscape(q.Ref) + "/posts"
	case model.FeedReplies:
		path = "/posts/" + url.PathEscape(q.Ref) + "/replies"
	case model.FeedBookmarks:
		path = "/me/bookmarks"
	default:
		path = "/feed"
		values.Set("filter", string(q.Kind))
	}

	// Only the feed kind goes into op: user and post ids would leak into the
	// latency metric labels.
	return do[model.Page](ctx, c, http.MethodGet, path+"?"+values.Encode(), nil, "list "+string(q.Kind))
}

func (c *Client) Like(ctx context.Context, postID string) (model.LikeState, error) {
	return do[model.LikeState](ctx, c, http.MethodPost, postPath(postID, "/like"), nil, "like")
}

func (c *Client) Unlike(ctx context.Context, postID string) (model.LikeState, error) {
	return do[model.LikeState](ctx, c, http.MethodDelete, postPath(postID, "/like"), nil, "unlike")
}

type bookmarkResult struct {
	Bookmarked bool `json:"bookmarked"`
}

func (c *Client) Bookmark(ctx context.Context, postID string) (bool, error) {
	res, err := do[bookmarkResult](ctx, c, http.MethodPost, postPath(postID, "/bookmark"), nil, "bookmark")
	return res.Bookmarked, err
}

func (c *Client) Unbookmark(ctx context.Context, postID string) (bool, error) {
	res, err := do[bookmarkResult](ctx, c, http.MethodDelete, postPath(postID, "/bookmark"), nil, "unbookmark")
	return res.Bookmarked, err
}

type tipRequest struct {
	Amount int64 `json:"amount"`
}

type tipResult struct {
	YourNewBalance int64 `json:"yourNewBalance"`
}

// Tip spends amount points on postID and returns the server's new balance.
func (c *Client) Tip(ctx context.Context, postID string, amount int64) (int64, error) {
	res, err := do[tipResult](ctx, c, http.MethodPost, postPath(postID, "/tip"), tipRequest{Amount: amount}, "tip")
	return res.YourNewBalance, err
}

type followResult struct {
	Following bool `json:"following"`
}

func (c *Client) Follow(ctx context.Context, userID string) (bool, error) {
	res, err := do[followResult](ctx, c, http.MethodPost, "/users/"+url.PathEscape(userID)+"/follow", nil, "follow")
	return res.Following, err
}

func (c *Client) Unfollow(ctx context.Context, userID string) (bool, error) {
	res, err := do[followResult](ctx, c, http.MethodDelete, "/users/"+url.PathEscape(userID)+"/follow", nil, "unfollow")
	return res.Following, err
}

type editRequest struct {
	Content string `json:"content"`
}

func (c *Client) EditPost(ctx context.Context, postID, content string) (model.Entry, error) {
	return do[model.Entry](ctx, c, http.MethodPatch, postPath(postID, ""), editRequest{Content: content}, "edit post")
}

func (c *Client) DeletePost(ctx context.Context, postID string) error {
	_, err := do[json.RawMessage](ctx, c, http.MethodDelete, postPath(postID, ""), nil, "delete post")
	return err
}

type reportRequest struct {
	Reason string `json:"reason,omitempty"`
}

type reportResult struct {
	ReportID string `json:"reportId"`
}

func (c *Client) Report(ctx context.Context, postID, reason string) (string, error) {
	res, err := do[reportResult](ctx, c, http.MethodPost, postPath(postID, "/report"), reportRequest{Reason: reason}, "report")
	return res.ReportID, err
}

func (c *Client) CreatePost(ctx context.Context, draft model.Draft) (model.Entry, error) {
	return do[model.Entry](ctx, c, http.MethodPost, "/posts", draft, "create post")
}

// Me returns the authenticated account with its authoritative balance.
func (c *Client) Me(ctx context.Context) (model.Account, error) {
	return do[model.Account](ctx, c, http.MethodGet, "/me", nil, "me")
}

func postPath(postID, suffix string) string {
	return "/posts/" + url.PathEscape(postID) + suffix
}

func do[T any](ctx context.Context, c *Client, method, path string, body any, op string) (T, error) {
	var zero T
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		return zero, c.finish(op, path, start, &NetworkError{Op: op, Err: err})
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return zero, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, c.finish(op, path, start, &NetworkError{Op: op, Err: err})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return zero, c.finish(op, path, start, &NetworkError{Op: op, Err: fmt.Errorf("read response: %w", err)})
	}

	var env envelope[T]
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(raw[:min(len(raw), 4096)]))
		}
		return zero, c.finish(op, path, start, &RejectionError{Op: op, Status: resp.StatusCode, Message: msg})
	}
	if decodeErr != nil {
		return zero, c.finish(op, path, start, &NetworkError{Op: op, Err: fmt.Errorf("decode %s response: %w", op, decodeErr)})
	}
	if !env.Success {
		return zero, c.finish(op, path, start, &RejectionError{Op: op, Status: resp.StatusCode, Message: env.Message})
	}
	c.finish(op, path, start, nil)
	return env.Data, nil
}

func (c *Client) finish(op, path string, start time.Time, err error) error {
	elapsed := time.Since(start)
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
	}
	metrics.ObserveRequest(op, outcome, elapsed)

	entry := c.log.WithFields(logrus.Fields{"op": op, "path": path, "duration": elapsed})
	if err != nil {
		entry.WithField("kind", Classify(err)).WithError(err).Warn("api request failed")
	} else {
		entry.Debug("api request done")
	}
	return err
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	if method != http.MethodGet {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}
	return req, nil
}
