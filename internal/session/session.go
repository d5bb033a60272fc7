// Package session holds the signed-in credential and the current account.
// It is created once by the composition root and passed by reference.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/glabrego/tipfeed-cli/internal/model"
)

var ErrSignedOut = errors.New("no credential configured")

type AccountFetcher interface {
	Me(ctx context.Context) (model.Account, error)
}

type Session struct {
	token   string
	fetcher AccountFetcher

	mu      sync.RWMutex
	account model.Account
	loaded  bool
	// started numbers each Refresh; applied is the number of the one whose
	// result is stored. A result older than applied is discarded.
	started uint64
	applied uint64
	nextSub int
	subs    map[int]func(model.Account)
}

func New(token string, fetcher AccountFetcher) *Session {
	return &Session{token: token, fetcher: fetcher, subs: make(map[int]func(model.Account))}
}

func (s *Session) Token() string {
	return s.token
}

func (s *Session) SignedIn() bool {
	return s.token != ""
}

// Account returns the last fetched account. ok is false before the first
// successful Refresh.
func (s *Session) Account() (model.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account, s.loaded
}

// Refresh refetches the account and notifies subscribers. When a newer
// Refresh finished first, its account is returned and nobody is notified.
func (s *Session) Refresh(ctx context.Context) (model.Account, error) {
	if !s.SignedIn() {
		return model.Account{}, ErrSignedOut
	}
	s.mu.Lock()
	s.started++
	seq := s.started
	s.mu.Unlock()

	account, err := s.fetcher.Me(ctx)
	if err != nil {
		return model.Account{}, fmt.Errorf("refresh account: %w", err)
	}

	s.mu.Lock()
	if seq < s.applied {
		latest := s.account
		s.mu.Unlock()
		return latest, nil
	}
	s.account = account
	s.loaded = true
	s.applied = seq
	subs := make([]func(model.Account), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(account)
	}
	return account, nil
}

// RefreshBalance refetches the account and returns its balance.
func (s *Session) RefreshBalance(ctx context.Context) (int64, error) {
	account, err := s.Refresh(ctx)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// Subscribe registers fn for every successful Refresh. The returned func
// removes it.
func (s *Session) Subscribe(fn func(model.Account)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
