// Package balance animates the displayed point balance between two
// server-confirmed values.
package balance

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/glabrego/tipfeed-cli/internal/metrics"
)

const (
	// Budget is the wall-clock length of one transition.
	Budget = 3500 * time.Millisecond
	// MinTick is the shortest spacing between two displayed updates. Ticks
	// still move one unit each; with more units than Budget/MinTick only every
	// n-th tick is reported through OnChange.
	MinTick = 16 * time.Millisecond
)

type Timer interface {
	Stop() bool
}

// Scheduler runs fn once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Refresher fetches the authoritative balance.
type Refresher interface {
	RefreshBalance(ctx context.Context) (int64, error)
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Transition is the active animation. To is always a server-confirmed value.
type Transition struct {
	From        int64
	To          int64
	AmountDelta int64
}

type Option func(*Animator)

func WithScheduler(s Scheduler) Option {
	return func(a *Animator) { a.sched = s }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(a *Animator) { a.log = log }
}

// WithOnChange registers fn to receive every new displayed value. fn is
// called without any lock held and may run on a timer goroutine.
func WithOnChange(fn func(displayed int64)) Option {
	return func(a *Animator) { a.onChange = fn }
}

func WithRefreshTimeout(d time.Duration) Option {
	return func(a *Animator) { a.refreshTimeout = d }
}

type Animator struct {
	sched          Scheduler
	refresher      Refresher
	log            logrus.FieldLogger
	onChange       func(int64)
	refreshTimeout time.Duration

	mu        sync.Mutex
	server    int64
	displayed int64
	active    *Transition
	ticks     int64
	every     int64
	interval  time.Duration
	timer     Timer
	// gen is bumped by every StartTransition; a tick from an older
	// generation is a no-op.
	gen uint64
}

func New(refresher Refresher, opts ...Option) *Animator {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	a := &Animator{
		sched:          wallClock{},
		refresher:      refresher,
		log:            discard,
		refreshTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetServerBalance records the authoritative balance. While idle it is shown
// immediately; during a transition it is kept until the next idle period.
func (a *Animator) SetServerBalance(v int64) {
	a.mu.Lock()
	a.server = v
	if a.active != nil {
		a.mu.Unlock()
		return
	}
	a.displayed = v
	a.mu.Unlock()
	a.notify(v)
}

// StartTransition animates from newBalance+amountSpent down to newBalance.
// A negative amountSpent animates a credit upwards. Any running transition is
// cancelled and its refresh never happens.
func (a *Animator) StartTransition(newBalance, amountSpent int64) {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	if a.active != nil {
		metrics.RecordBalanceTransition(metrics.TransitionSuperseded)
		a.log.WithFields(logrus.Fields{"from": a.active.From, "to": a.active.To}).Debug("balance transition superseded")
	}
	a.gen++
	gen := a.gen

	t := Transition{From: newBalance + amountSpent, To: newBalance, AmountDelta: amountSpent}
	a.server = newBalance
	a.displayed = t.From
	a.active = &t
	metrics.RecordBalanceTransition(metrics.TransitionStarted)

	steps := abs(t.From - t.To)
	if steps == 0 {
		a.mu.Unlock()
		a.settle(gen)
		return
	}
	a.ticks = 0
	a.interval, a.every = pace(steps)
	a.timer = a.sched.AfterFunc(a.interval, func() { a.tick(gen) })
	a.mu.Unlock()
	a.notify(t.From)
}

func (a *Animator) Displayed() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.displayed
}

// Active returns the running transition, if any.
func (a *Animator) Active() (Transition, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active == nil {
		return Transition{}, false
	}
	return *a.active, true
}

func (a *Animator) tick(gen uint64) {
	a.mu.Lock()
	if gen != a.gen || a.active == nil {
		a.mu.Unlock()
		return
	}
	to := a.active.To
	if a.displayed > to {
		a.displayed--
	} else {
		a.displayed++
	}
	a.ticks++
	shown := a.displayed
	report := a.ticks%a.every == 0
	if shown != to {
		a.timer = a.sched.AfterFunc(a.interval, func() { a.tick(gen) })
	} else {
		a.timer = nil
	}
	a.mu.Unlock()

	if shown == to {
		a.settle(gen)
		return
	}
	if report {
		a.notify(shown)
	}
}

// settle clears the transition and pulls the authoritative balance once. The
// refreshed value is dropped if another transition started meanwhile.
func (a *Animator) settle(gen uint64) {
	a.mu.Lock()
	if gen != a.gen || a.active == nil {
		a.mu.Unlock()
		return
	}
	to := a.active.To
	a.active = nil
	a.displayed = to
	a.mu.Unlock()

	a.notify(to)
	metrics.RecordBalanceTransition(metrics.TransitionSettled)
	if a.refresher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.refreshTimeout)
	defer cancel()
	v, err := a.refresher.RefreshBalance(ctx)
	if err != nil {
		a.log.WithError(err).Warn("balance refresh after transition failed")
		return
	}

	a.mu.Lock()
	if gen != a.gen {
		a.mu.Unlock()
		a.log.WithField("stale", v).Debug("balance refresh superseded by a newer transition")
		return
	}
	a.server = v
	a.displayed = v
	a.mu.Unlock()
	if v != to {
		a.log.WithFields(logrus.Fields{"expected": to, "actual": v}).Info("balance drifted during transition")
	}
	a.notify(v)
}

func (a *Animator) notify(v int64) {
	if a.onChange != nil {
		a.onChange(v)
	}
}

// pace splits Budget into steps equal ticks and picks how many ticks pass
// between two reported values so updates are at least MinTick apart.
func pace(steps int64) (interval time.Duration, every int64) {
	interval = max(Budget/time.Duration(steps), time.Nanosecond)
	frames := int64(Budget / MinTick)
	every = max(1, (steps+frames-1)/frames)
	return interval, every
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
