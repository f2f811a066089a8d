// Package metrics provides dialog session metrics collection.
//
// The Collector accumulates counters across dialog invocations. It is a leaf
// package with no internal dependencies: failure kinds and modes are recorded
// as strings to keep it free of the peer and types packages.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Session lifecycle
	SessionsStarted   int64
	SessionsSelected  int64
	SessionsCanceled  int64
	SessionsFailed    int64
	SessionsByMode    map[string]int64
	FailuresByKind    map[string]int64
	FallbacksServed   int64
	FallbackLatchTrip int64

	// Peer
	PeerLaunchSuccess int64
	PeerLaunchFailure int64
	PeerCrash         int64
	ProtocolErrors    int64
	BlockerTimeouts   int64

	// Install
	InstallSuccess int64
	InstallFailure int64

	// Dimensions (informational, set at construction)
	App     string
	Toolkit string
}

// Collector accumulates dialog metrics.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	sessionsStarted   int64
	sessionsSelected  int64
	sessionsCanceled  int64
	sessionsFailed    int64
	sessionsByMode    map[string]int64
	failuresByKind    map[string]int64
	fallbacksServed   int64
	fallbackLatchTrip int64

	peerLaunchSuccess int64
	peerLaunchFailure int64
	peerCrash         int64
	protocolErrors    int64
	blockerTimeouts   int64

	installSuccess int64
	installFailure int64

	app     string
	toolkit string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(app, toolkit string) *Collector {
	return &Collector{
		sessionsByMode: make(map[string]int64),
		failuresByKind: make(map[string]int64),
		app:            app,
		toolkit:        toolkit,
	}
}

// --- Session lifecycle ---

// IncSessionStarted records a dialog invocation for mode.
func (c *Collector) IncSessionStarted(mode string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsStarted++
	c.sessionsByMode[mode]++
	c.mu.Unlock()
}

// IncSessionSelected records an invocation that returned a path.
func (c *Collector) IncSessionSelected() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsSelected++
	c.mu.Unlock()
}

// IncSessionCanceled records an invocation that returned nothing.
func (c *Collector) IncSessionCanceled() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsCanceled++
	c.mu.Unlock()
}

// IncSessionFailed records a peer session failure of the given kind.
// The invocation itself may still succeed through the fallback.
func (c *Collector) IncSessionFailed(kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsFailed++
	c.failuresByKind[kind]++
	c.mu.Unlock()
}

// IncFallbackServed records an invocation served by the local dialog.
func (c *Collector) IncFallbackServed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fallbacksServed++
	c.mu.Unlock()
}

// IncFallbackLatchTrip records the process-wide fallback latch tripping.
func (c *Collector) IncFallbackLatchTrip() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fallbackLatchTrip++
	c.mu.Unlock()
}

// --- Peer ---

// IncPeerLaunchSuccess records a successful peer launch.
func (c *Collector) IncPeerLaunchSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.peerLaunchSuccess++
	c.mu.Unlock()
}

// IncPeerLaunchFailure records a failed peer launch.
func (c *Collector) IncPeerLaunchFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.peerLaunchFailure++
	c.mu.Unlock()
}

// IncPeerCrash records a peer whose output ended without EXIT.
func (c *Collector) IncPeerCrash() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.peerCrash++
	c.mu.Unlock()
}

// IncProtocolErrors records a malformed or out-of-order response line.
func (c *Collector) IncProtocolErrors() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.protocolErrors++
	c.mu.Unlock()
}

// IncBlockerTimeouts records a latch wait that expired before the blocker
// was shown.
func (c *Collector) IncBlockerTimeouts() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.blockerTimeouts++
	c.mu.Unlock()
}

// --- Install ---

// IncInstallSuccess records a completed asset installation.
func (c *Collector) IncInstallSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.installSuccess++
	c.mu.Unlock()
}

// IncInstallFailure records a failed asset installation.
func (c *Collector) IncInstallFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.installFailure++
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byMode := make(map[string]int64, len(c.sessionsByMode))
	for k, v := range c.sessionsByMode {
		byMode[k] = v
	}
	byKind := make(map[string]int64, len(c.failuresByKind))
	for k, v := range c.failuresByKind {
		byKind[k] = v
	}

	return Snapshot{
		SessionsStarted:   c.sessionsStarted,
		SessionsSelected:  c.sessionsSelected,
		SessionsCanceled:  c.sessionsCanceled,
		SessionsFailed:    c.sessionsFailed,
		SessionsByMode:    byMode,
		FailuresByKind:    byKind,
		FallbacksServed:   c.fallbacksServed,
		FallbackLatchTrip: c.fallbackLatchTrip,

		PeerLaunchSuccess: c.peerLaunchSuccess,
		PeerLaunchFailure: c.peerLaunchFailure,
		PeerCrash:         c.peerCrash,
		ProtocolErrors:    c.protocolErrors,
		BlockerTimeouts:   c.blockerTimeouts,

		InstallSuccess: c.installSuccess,
		InstallFailure: c.installFailure,

		App:     c.app,
		Toolkit: c.toolkit,
	}
}
