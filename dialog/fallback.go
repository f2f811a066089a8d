package dialog

import (
	"sync"
)

// Latch records that the peer path is unusable for the rest of the
// process. Once tripped it stays tripped.
type Latch struct {
	mu     sync.Mutex
	reason error
}

var processLatch = &Latch{}

// ProcessLatch returns the latch shared by every Picker that does not set
// Config.Latch.
func ProcessLatch() *Latch {
	return processLatch
}

// Trip disables the peer path. It reports whether this call tripped it.
func (l *Latch) Trip(reason error) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reason != nil {
		return false
	}
	l.reason = reason
	return true
}

// Tripped returns the error that tripped the latch, or nil.
func (l *Latch) Tripped() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reason
}
