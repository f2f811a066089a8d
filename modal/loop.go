// Package modal keeps a caller's UI thread modally blocked while a peer
// dialog runs elsewhere, using a two-phase latch handshake between the UI
// thread's blocker and the worker that drives the peer.
package modal

import (
	"context"
	"sync"
)

// Thread is a single-threaded UI event queue.
type Thread interface {
	// Post enqueues fn to run on the UI thread. It never blocks and may be
	// called from any goroutine.
	Post(fn func())
}

// Blocker is a UI-thread-owned surrogate that suspends caller interaction.
type Blocker interface {
	// Show makes the blocker visible and services the UI queue until Hide
	// is called. Must be called on the UI thread.
	Show()
	// Hide ends a Show. A Hide that precedes Show makes Show return
	// immediately. Idempotent.
	Hide()
}

// Host provides the UI thread and its blockers.
type Host interface {
	Thread
	NewBlocker(title string) Blocker
}

// Loop is a single-goroutine UI event queue. Its blockers run nested pumps
// on the same queue, like a modal dialog in a desktop toolkit.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
	quit  chan struct{}
	once  sync.Once

	// OnShow and OnHide run on the UI thread when a blocker becomes visible
	// or invisible. Set them before Run.
	OnShow func(title string)
	OnHide func(title string)
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
	}
}

// Post enqueues fn.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run services the queue on the calling goroutine, which becomes the UI
// thread, until Quit or ctx cancellation.
func (l *Loop) Run(ctx context.Context) error {
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-l.quit:
		}
		close(stop)
	}()
	l.pump(stop)
	return ctx.Err()
}

// Quit stops Run after the running task returns.
func (l *Loop) Quit() {
	l.once.Do(func() { close(l.quit) })
}

// Call runs fn on the UI thread and waits for it to return.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewBlocker creates a blocker whose Show pumps this loop.
func (l *Loop) NewBlocker(title string) Blocker {
	return &loopBlocker{loop: l, title: title, hidden: make(chan struct{})}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

// pump runs queued tasks until stop is closed. Tasks still queued at that
// point stay for the enclosing pump.
func (l *Loop) pump(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		if fn, ok := l.next(); ok {
			fn()
			continue
		}
		select {
		case <-stop:
			return
		case <-l.wake:
		}
	}
}

type loopBlocker struct {
	loop   *Loop
	title  string
	hidden chan struct{}
	once   sync.Once
}

func (b *loopBlocker) Show() {
	select {
	case <-b.hidden:
		return
	default:
	}
	if b.loop.OnShow != nil {
		b.loop.OnShow(b.title)
	}
	b.loop.pump(b.hidden)
	if b.loop.OnHide != nil {
		b.loop.OnHide(b.title)
	}
}

func (b *loopBlocker) Hide() {
	b.once.Do(func() { close(b.hidden) })
}
