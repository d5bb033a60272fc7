package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glabrego/tipfeed-cli/internal/api"
	"github.com/glabrego/tipfeed-cli/internal/feed"
	"github.com/glabrego/tipfeed-cli/internal/model"
	"github.com/glabrego/tipfeed-cli/internal/storage"
)

func TestIntegration_LoadFeedAndJournal(t *testing.T) {
	if os.Getenv("TIPFEED_INTEGRATION") != "1" {
		t.Skip("set TIPFEED_INTEGRATION=1 to run integration tests")
	}

	token := os.Getenv("TIPFEED_TOKEN")
	if token == "" {
		t.Skip("TIPFEED_TOKEN is required")
	}

	baseURL := os.Getenv("TIPFEED_API_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.tipfeed.app/v1"
	}

	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "tipfeed-integration.db"))
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	if err := repo.Init(ctx); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}

	client := api.NewClient(baseURL, token, nil)
	svc := NewService(client, repo)

	cache := feed.NewCache(model.FeedQuery{Kind: model.FeedForYou})
	fetch := svc.Fetcher(cache.Query(), 10)
	if err := cache.LoadFirstPage(ctx, fetch); err != nil {
		t.Fatalf("LoadFirstPage returned error: %v", err)
	}
	first := cache.Len()

	if cache.Snapshot().HasMore {
		if _, err := cache.LoadMore(ctx, fetch); err != nil {
			t.Fatalf("LoadMore returned error: %v", err)
		}
		if cache.Len() < first {
			t.Fatalf("LoadMore shrank the feed: %d -> %d", first, cache.Len())
		}
	}

	seen := make(map[string]struct{}, cache.Len())
	for _, e := range cache.Snapshot().Entries {
		if _, dup := seen[e.ID]; dup {
			t.Fatalf("duplicate entry id %s", e.ID)
		}
		seen[e.ID] = struct{}{}
	}

	if err := svc.Record(ctx, model.Activity{Kind: model.ActionLike, EntityID: "integration"}); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	recent, err := svc.RecentActivity(ctx, 5)
	if err != nil {
		t.Fatalf("RecentActivity returned error: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 journaled activity, got %d", len(recent))
	}
}
