package modal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/justapithecus/peerdialog/log"
	"github.com/justapithecus/peerdialog/metrics"
	"github.com/justapithecus/peerdialog/types"
)

// DefaultLatchTimeout bounds the worker's wait for the blocker to appear.
const DefaultLatchTimeout = 30 * time.Second

// ErrBlockerNotShown is returned when the UI thread did not show the
// blocker within the latch timeout.
var ErrBlockerNotShown = errors.New("blocker not shown")

// State is a step of one modal request.
type State int

const (
	StateIdle State = iota
	StateBlockerRequested
	StateBlockerVisible
	StatePeerFinished
	StateBlockerHidden
	StateFinalized
)

var stateNames = [...]string{
	StateIdle:             "idle",
	StateBlockerRequested: "blocker_requested",
	StateBlockerVisible:   "blocker_visible",
	StatePeerFinished:     "peer_finished",
	StateBlockerHidden:    "blocker_hidden",
	StateFinalized:        "finalized",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Observer receives every transition. StatePeerFinished is reported from
// the worker goroutine; all other states from the UI thread.
type Observer func(State)

// Job is one modal request.
type Job struct {
	// Title names the blocker.
	Title string
	// Work runs on a worker goroutine, never the UI thread.
	Work func(ctx context.Context) error
	// Finalize runs on the UI thread after the blocker is hidden, with
	// the error Run is about to return. Optional.
	Finalize func(err error)
}

// Config configures a Controller.
type Config struct {
	// LatchTimeout bounds the wait for the blocker to become visible.
	// Zero uses DefaultLatchTimeout; negative waits forever.
	LatchTimeout time.Duration
	Observer     Observer
	Logger       *log.Logger
	Collector    *metrics.Collector
}

// Controller runs jobs behind a modal blocker.
type Controller struct {
	host   Host
	config Config
}

// NewController creates a controller for host.
func NewController(host Host, config Config) *Controller {
	if config.LatchTimeout == 0 {
		config.LatchTimeout = DefaultLatchTimeout
	}
	if config.Logger == nil {
		config.Logger = log.Nop()
	}
	return &Controller{host: host, config: config}
}

func (c *Controller) notify(s State) {
	if c.config.Observer != nil {
		c.config.Observer(s)
	}
}

// Run shows a blocker on the UI thread, runs job.Work on a worker, and
// returns once the blocker has been shown, the work has finished and the
// blocker has been hidden again. Must be called on the UI thread.
//
// The worker hides the blocker only after the blocker's own queue has
// confirmed it visible, so a fast Work can never hide a blocker that has
// not yet appeared. Run returns ErrBlockerNotShown if that confirmation
// does not arrive within the latch timeout, and job.Work's error otherwise.
func (c *Controller) Run(ctx context.Context, job Job) error {
	if c.host == nil || job.Work == nil {
		return fmt.Errorf("%w: modal job needs a host and work", types.ErrInvalidArgument)
	}
	c.notify(StateIdle)

	blocker := c.host.NewBlocker(job.Title)
	latch := make(chan struct{})
	var latchOnce sync.Once
	done := make(chan error, 1)

	c.notify(StateBlockerRequested)

	go func() {
		err := job.Work(ctx)
		c.notify(StatePeerFinished)
		if !c.awaitLatch(latch, job.Title) {
			err = ErrBlockerNotShown
		}
		c.host.Post(blocker.Hide)
		done <- err
	}()

	// Queued behind the blocker's appearance: runs from Show's own pump.
	c.host.Post(func() {
		latchOnce.Do(func() {
			c.notify(StateBlockerVisible)
			close(latch)
		})
	})
	blocker.Show()
	c.notify(StateBlockerHidden)

	err := <-done
	if job.Finalize != nil {
		job.Finalize(err)
	}
	c.notify(StateFinalized)
	return err
}

func (c *Controller) awaitLatch(latch <-chan struct{}, title string) bool {
	if c.config.LatchTimeout < 0 {
		<-latch
		return true
	}
	timer := time.NewTimer(c.config.LatchTimeout)
	defer timer.Stop()
	select {
	case <-latch:
		return true
	case <-timer.C:
		c.config.Collector.IncBlockerTimeouts()
		c.config.Logger.Error("blocker never became visible", map[string]any{
			"title":   title,
			"timeout": c.config.LatchTimeout.String(),
		})
		return false
	}
}
