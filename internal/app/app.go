package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glabrego/tipfeed-cli/internal/feed"
	"github.com/glabrego/tipfeed-cli/internal/metrics"
	"github.com/glabrego/tipfeed-cli/internal/model"
	"github.com/glabrego/tipfeed-cli/internal/storage"
)

const DefaultActivityLimit = 50

type FeedClient interface {
	ListPage(ctx context.Context, q model.FeedQuery, page, limit int) (model.Page, error)
}

type Repository interface {
	SaveActivity(ctx context.Context, a model.Activity) error
	ListActivity(ctx context.Context, limit int) ([]model.Activity, error)
	TotalTipped(ctx context.Context) (int64, error)
	LoadPreferences(ctx context.Context) (storage.Preferences, bool, error)
	SavePreferences(ctx context.Context, prefs storage.Preferences) error
}

type UIPreferences struct {
	Compact      bool
	RelativeTime bool
}

// DefaultUIPreferences is used until the user saves their own.
var DefaultUIPreferences = UIPreferences{RelativeTime: true}

type Service struct {
	client FeedClient
	repo   Repository
	newID  func() string
	now    func() time.Time
}

func NewService(client FeedClient, repo Repository) *Service {
	return &Service{client: client, repo: repo, newID: uuid.NewString, now: time.Now}
}

// Fetcher returns the page loader for one feed. Every call is counted per
// feed kind.
func (s *Service) Fetcher(q model.FeedQuery, limit int) feed.Fetcher {
	return func(ctx context.Context, page int) (model.Page, error) {
		p, err := s.client.ListPage(ctx, q, page, limit)
		if err != nil {
			metrics.RecordFeedLoad(string(q.Kind), metrics.OutcomeFailure)
			return model.Page{}, fmt.Errorf("fetch %s page %d: %w", q, page, err)
		}
		metrics.RecordFeedLoad(string(q.Kind), metrics.OutcomeSuccess)
		return p, nil
	}
}

// Record journals a confirmed action. Missing ids and timestamps are filled in.
func (s *Service) Record(ctx context.Context, a model.Activity) error {
	if a.ID == "" {
		a.ID = s.newID()
	}
	if a.At.IsZero() {
		a.At = s.now().UTC()
	}
	if err := s.repo.SaveActivity(ctx, a); err != nil {
		return fmt.Errorf("save activity to journal: %w", err)
	}
	return nil
}

func (s *Service) RecentActivity(ctx context.Context, limit int) ([]model.Activity, error) {
	if limit < 1 {
		limit = DefaultActivityLimit
	}
	activities, err := s.repo.ListActivity(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load activity from journal: %w", err)
	}
	return activities, nil
}

func (s *Service) TotalTipped(ctx context.Context) (int64, error) {
	total, err := s.repo.TotalTipped(ctx)
	if err != nil {
		return 0, fmt.Errorf("load tip total from journal: %w", err)
	}
	return total, nil
}

func (s *Service) LoadUIPreferences(ctx context.Context) (UIPreferences, error) {
	prefs, ok, err := s.repo.LoadPreferences(ctx)
	if err != nil {
		return DefaultUIPreferences, fmt.Errorf("load preferences: %w", err)
	}
	if !ok {
		return DefaultUIPreferences, nil
	}
	return UIPreferences{Compact: prefs.Compact, RelativeTime: prefs.RelativeTime}, nil
}

func (s *Service) SaveUIPreferences(ctx context.Context, prefs UIPreferences) error {
	err := s.repo.SavePreferences(ctx, storage.Preferences{Compact: prefs.Compact, RelativeTime: prefs.RelativeTime})
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}
