package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/glabrego/tipfeed-cli/internal/metrics"
	"github.com/glabrego/tipfeed-cli/internal/model"
)

func TestListPage_SendsBearerAndParsesPagination(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("limit") != "5" || q.Get("filter") != "trending" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		if r.Header.Get("X-Request-ID") != "" {
			t.Fatal("reads must not carry a request id")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"items":[{"id":"p1","author":{"id":"u1","username":"ana"},"content":"hi","createdAt":"2026-02-01T00:00:00Z","likesCount":5,"likedByCurrentUser":true}],"pagination":{"page":2,"limit":5,"total":11,"totalPages":3}}}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "tok", ts.Client())
	page, err := c.ListPage(context.Background(), model.FeedQuery{Kind: model.FeedTrending}, 2, 5)
	if err != nil {
		t.Fatalf("ListPage returned error: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "p1" || page.Items[0].Author.Username != "ana" {
		t.Fatalf("unexpected items: %+v", page.Items)
	}
	if !page.Items[0].Liked || page.Items[0].LikesCount != 5 {
		t.Fatalf("engagement fields not parsed: %+v", page.Items[0])
	}
	if !page.Pagination.HasMore() || page.Pagination.TotalPages != 3 {
		t.Fatalf("unexpected pagination: %+v", page.Pagination)
	}
}

func TestListPage_RoutesScopedFeeds(t *testing.T) {
	paths := make([]string, 0, 3)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"data":{"items":[],"pagination":{"page":1,"limit":20,"total":0,"totalPages":0}}}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "tok", ts.Client())
	for _, q := range []model.FeedQuery{
		{Kind: model.FeedUser, Ref: "u1"},
		{Kind: model.FeedReplies, Ref: "p1"},
		{Kind: model.FeedBookmarks},
	} {
		if _, err := c.ListPage(context.Background(), q, 1, 20); err != nil {
			t.Fatalf("ListPage(%s) returned error: %v", q, err)
		}
	}
	want := []string{"/users/u1/posts", "/posts/p1/replies", "/me/bookmarks"}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("unexpected path %d: %s, want %s", i, paths[i], want[i])
		}
	}
}

func TestListPage_LatencyLabelsExcludeIDs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"items":[],"pagination":{"page":1,"limit":20,"total":0,"totalPages":0}}}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "tok", ts.Client())
	if _, err := c.ListPage(context.Background(), model.FeedQuery{Kind: model.FeedUser, Ref: "u0"}, 1, 20); err != nil {
		t.Fatalf("ListPage returned error: %v", err)
	}
	before, err := testutil.GatherAndCount(metrics.Registry, "tipfeed_api_request_duration_seconds")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	for _, q := range []model.FeedQuery{
		{Kind: model.FeedUser, Ref: "u1"},
		{Kind: model.FeedUser, Ref: "u2"},
		{Kind: model.FeedUser, Ref: "u3"},
	} {
		if _, err := c.ListPage(context.Background(), q, 1, 20); err != nil {
			t.Fatalf("ListPage(%s) returned error: %v", q, err)
		}
	}
	after, err := testutil.GatherAndCount(metrics.Registry, "tipfeed_api_request_duration_seconds")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if after != before {
		t.Fatalf("expected no new series for other users, got %d -> %d", before, after)
	}

	families, err := metrics.Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	seen := false
	for _, mf := range families {
		if mf.GetName() != "tipfeed_api_request_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() != "op" {
					continue
				}
				if strings.Contains(lp.GetValue(), ":") {
					t.Fatalf("op label carries an id: %q", lp.GetValue())
				}
				if lp.GetValue() == "list user" {
					seen = true
				}
			}
		}
	}
	if !seen {
		t.Fatal(`expected an op="list user" series`)
	}
}

func TestLikeAndUnlike(t *testing.T) {
	requests := make([]string, 0, 2)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.Method+" "+r.URL.Path)
		if r.Header.Get("X-Request-ID") == "" {
			t.Fatal("mutations must carry a request id")
		}
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"success":true,"data":{"liked":true,"likesCount":6}}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"liked":false,"likesCount":5}}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "tok", ts.Client())
	liked, err := c.Like(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Like returned error: %v", err)
	}
	if !liked.Liked || liked.LikesCount != 6 {
		t.Fatalf("unexpected like state: %+v", liked)
	}
	unliked, err := c.Unlike(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Unlike returned error: %v", err)
	}
	if unliked.Liked || unliked.LikesCount != 5 {
		t.Fatalf("unexpected unlike state: %+v", unliked)
	}
	if requests[0] != "POST /posts/p1/like" || requests[1] != "DELETE /posts/p1/like" {
		t.Fatalf("unexpected requests: %v", requests)
	}
}

func TestTip_SendsAmountAndReturnsBalance(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/posts/p1/tip" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json; charset=utf-8" {
			t.Fatalf("unexpected content-type: %s", got)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"amount":10`) {
			t.Fatalf("unexpected body: %s", string(body))
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"yourNewBalance":90}}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "tok", ts.Client())
	balance, err := c.Tip(context.Background(), "p1", 10)
	if err != nil {
		t.Fatalf("Tip returned error: %v", err)
	}
	if balance != 90 {
		t.Fatalf("unexpected balance: %d", balance)
	}
}

func TestBookmarkFollowEditDeleteReportCreateMe(t *testing.T) {
	requests := make([]string, 0, 8)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, r.Method+" "+r.URL.Path+" "+string(body))
		switch {
		case strings.HasSuffix(r.URL.Path, "/bookmark"):
			_, _ = w.Write([]byte(`{"success":true,"data":{"bookmarked":true}}`))
		case strings.HasSuffix(r.URL.Path, "/follow"):
			_, _ = w.Write([]byte(`{"success":true,"data":{"following":true}}`))
		case strings.HasSuffix(r.URL.Path, "/report"):
			_, _ = w.Write([]byte(`{"success":true,"data":{"reportId":"r9"}}`))
		case r.URL.Path == "/me":
			_, _ = w.Write([]byte(`{"success":true,"data":{"id":"u1","username":"ana","balance":120}}`))
		case r.Method == http.MethodDelete:
			_, _ = w.Write([]byte(`{"success":true}`))
		default:
			_, _ = w.Write([]byte(`{"success":true,"data":{"id":"p1","content":"normalized"}}`))
		}
	}))
	defer ts.Close()

	ctx := context.Background()
	c := NewClient(ts.URL, "tok", ts.Client())

	if ok, err := c.Bookmark(ctx, "p1"); err != nil || !ok {
		t.Fatalf("Bookmark = %v, %v", ok, err)
	}
	if ok, err := c.Follow(ctx, "u2"); err != nil || !ok {
		t.Fatalf("Follow = %v, %v", ok, err)
	}
	edited, err := c.EditPost(ctx, "p1", "  normalized ")
	if err != nil || edited.Content != "normalized" {
		t.Fatalf("EditPost = %+v, %v", edited, err)
	}
	if err := c.DeletePost(ctx, "p1"); err != nil {
		t.Fatalf("DeletePost returned error: %v", err)
	}
	if id, err := c.Report(ctx, "p1", "spam"); err != nil || id != "r9" {
		t.Fatalf("Report = %q, %v", id, err)
	}
	if _, err := c.CreatePost(ctx, model.Draft{Content: "hello"}); err != nil {
		t.Fatalf("CreatePost returned error: %v", err)
	}
	me, err := c.Me(ctx)
	if err != nil || me.Balance != 120 {
		t.Fatalf("Me = %+v, %v", me, err)
	}

	want := []string{
		"POST /posts/p1/bookmark",
		"POST /users/u2/follow",
		`PATCH /posts/p1 {"content":"  normalized "}`,
		"DELETE /posts/p1",
		`POST /posts/p1/report {"reason":"spam"}`,
		`POST /posts {"content":"hello"}`,
		"GET /me",
	}
	for i, prefix := range want {
		if !strings.HasPrefix(requests[i], prefix) {
			t.Fatalf("request %d = %q, want prefix %q", i, requests[i], prefix)
		}
	}
}

func TestServerRejection_UsesEnvelopeMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"Insufficient points"}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "tok", ts.Client())
	_, err := c.Tip(context.Background(), "p1", 10)
	var rejection *RejectionError
	if !errors.As(err, &rejection) {
		t.Fatalf("expected RejectionError, got %T: %v", err, err)
	}
	if Classify(err) != KindRejection {
		t.Fatalf("unexpected classification: %s", Classify(err))
	}
	if UserMessage(err) != "Insufficient points" {
		t.Fatalf("unexpected user message: %s", UserMessage(err))
	}
}

func TestServerRejection_NonSuccessStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid token"}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "bad", ts.Client())
	_, err := c.Me(context.Background())
	var rejection *RejectionError
	if !errors.As(err, &rejection) || rejection.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 rejection, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid token") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNetworkFailure_IsClassified(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "tok", ts.Client())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Like(ctx, "p1")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network failure, got %v", err)
	}
	if Classify(err) != KindNetwork {
		t.Fatalf("unexpected classification: %s", Classify(err))
	}
}

func TestNetworkFailure_UndecodableBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "tok", ts.Client())
	if _, err := c.Me(context.Background()); !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network failure, got %v", err)
	}
}

func TestRateLimit_WaitHonoursContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"u1","balance":1}}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "tok", ts.Client(), WithRateLimit(0.001, 1))
	if _, err := c.Me(context.Background()); err != nil {
		t.Fatalf("first request within burst returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := c.Me(ctx); !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected limiter wait to fail as network failure, got %v", err)
	}
}
