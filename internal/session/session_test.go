package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/glabrego/tipfeed-cli/internal/model"
)

type fakeFetcher struct {
	account model.Account
	err     error
	calls   int
}

func (f *fakeFetcher) Me(context.Context) (model.Account, error) {
	f.calls++
	return f.account, f.err
}

func TestRefreshStoresAccountAndNotifies(t *testing.T) {
	fetcher := &fakeFetcher{account: model.Account{ID: "u1", Username: "ana", Balance: 120}}
	s := New("tok", fetcher)

	if _, ok := s.Account(); ok {
		t.Fatal("expected no account before refresh")
	}

	var got []model.Account
	unsubscribe := s.Subscribe(func(a model.Account) { got = append(got, a) })

	balance, err := s.RefreshBalance(context.Background())
	if err != nil {
		t.Fatalf("RefreshBalance returned error: %v", err)
	}
	if balance != 120 {
		t.Fatalf("expected balance 120, got %d", balance)
	}
	account, ok := s.Account()
	if !ok || account.Username != "ana" {
		t.Fatalf("unexpected account: %+v ok=%v", account, ok)
	}
	if len(got) != 1 {
		t.Fatalf("expected one notification, got %d", len(got))
	}

	unsubscribe()
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected no notification after unsubscribe, got %d", len(got))
	}
}

func TestRefreshFailureKeepsPreviousAccount(t *testing.T) {
	fetcher := &fakeFetcher{account: model.Account{ID: "u1", Balance: 50}}
	s := New("tok", fetcher)
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}

	fetcher.err = errors.New("offline")
	if _, err := s.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	account, _ := s.Account()
	if account.Balance != 50 {
		t.Fatalf("expected previous balance to survive, got %d", account.Balance)
	}
}

// gatedFetcher blocks its first call until release is closed.
type gatedFetcher struct {
	mu       sync.Mutex
	calls    int
	accounts []model.Account
	entered  chan struct{}
	release  chan struct{}
}

func (f *gatedFetcher) Me(context.Context) (model.Account, error) {
	f.mu.Lock()
	n := f.calls
	f.calls++
	f.mu.Unlock()
	if n == 0 {
		close(f.entered)
		<-f.release
	}
	return f.accounts[n], nil
}

func TestRefreshDropsResultOlderThanApplied(t *testing.T) {
	fetcher := &gatedFetcher{
		accounts: []model.Account{{ID: "u1", Balance: 90}, {ID: "u1", Balance: 80}},
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	s := New("tok", fetcher)

	var mu sync.Mutex
	var notified []int64
	s.Subscribe(func(a model.Account) {
		mu.Lock()
		notified = append(notified, a.Balance)
		mu.Unlock()
	})

	slow := make(chan model.Account, 1)
	go func() {
		account, err := s.Refresh(context.Background())
		if err != nil {
			t.Errorf("slow Refresh returned error: %v", err)
		}
		slow <- account
	}()
	<-fetcher.entered

	latest, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if latest.Balance != 80 {
		t.Fatalf("expected balance 80, got %d", latest.Balance)
	}

	close(fetcher.release)
	if got := <-slow; got.Balance != 80 {
		t.Fatalf("expected the older refresh to report the newer account, got %d", got.Balance)
	}
	account, _ := s.Account()
	if account.Balance != 80 {
		t.Fatalf("expected stored balance 80, got %d", account.Balance)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(notified) != 1 || notified[0] != 80 {
		t.Fatalf("expected a single notification with 80, got %v", notified)
	}
}

func TestRefreshWithoutTokenIsRejected(t *testing.T) {
	fetcher := &fakeFetcher{}
	s := New("", fetcher)

	_, err := s.Refresh(context.Background())
	if !errors.Is(err, ErrSignedOut) {
		t.Fatalf("expected ErrSignedOut, got %v", err)
	}
	if fetcher.calls != 0 {
		t.Fatalf("expected no fetch without a token, got %d", fetcher.calls)
	}
}
