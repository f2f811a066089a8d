// Package dialog is the public file-dialog API. It runs each request
// through the out-of-process peer behind a modal blocker and falls back to
// an in-process dialog when the peer cannot serve it.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justapithecus/peerdialog/filter"
	"github.com/justapithecus/peerdialog/ipc"
	"github.com/justapithecus/peerdialog/log"
	"github.com/justapithecus/peerdialog/metrics"
	"github.com/justapithecus/peerdialog/modal"
	"github.com/justapithecus/peerdialog/peer"
	"github.com/justapithecus/peerdialog/types"
)

// Launcher starts peer sessions. *peer.Launcher implements it.
type Launcher interface {
	Launch(ctx context.Context, req *ipc.Request) (*peer.Session, error)
}

// Prompter shows small blocking prompts on the UI thread.
type Prompter interface {
	// Confirm asks a yes/no question.
	Confirm(title, message string) bool
	// Choose offers options and returns the chosen index, or false if the
	// user canceled.
	Choose(title, message string, options []string) (int, bool)
	// Alert shows an error message and waits for acknowledgement.
	Alert(title, message string)
}

// LocalDialog is an in-process dialog built on the caller's own toolkit.
type LocalDialog interface {
	// Select shows the dialog for req. An empty result means canceled.
	Select(ctx context.Context, req *ipc.Request) ([]string, error)
}

// ErrorHandler receives failures the Picker recovered from. Peer failures
// arrive as *peer.SessionError.
type ErrorHandler func(err error)

// Options are the per-call inputs.
type Options struct {
	Title       string
	InitialPath string
	Filters     []*filter.Filter
}

// Config configures a Picker.
type Config struct {
	// Host is the caller's UI thread (required for the peer path).
	Host modal.Host
	// Launcher starts the peer. If nil, every call uses Local.
	Launcher Launcher
	// Local serves calls the peer cannot.
	Local LocalDialog
	// Prompter asks save-time questions (required).
	Prompter Prompter
	// OnError is called for every recovered failure. Optional.
	OnError ErrorHandler

	AppName    string
	Anchor     *types.Point
	TraceLevel int

	// LatchTimeout bounds the wait for the blocker to appear.
	LatchTimeout time.Duration
	// Latch overrides the process-wide fallback latch.
	Latch *Latch

	Logger    *log.Logger
	Collector *metrics.Collector
}

// Outcome describes one completed call.
type Outcome struct {
	Paths []string
	// Fallback is true when the local dialog served the call.
	Fallback  bool
	SessionID string
	Duration  time.Duration
	// Err is the last failure recovered from, if any.
	Err error
}

// Selected reports whether the call produced a path.
func (o *Outcome) Selected() bool { return len(o.Paths) > 0 }

// Picker shows file dialogs. Its methods must be called on the host's UI
// thread, one at a time.
type Picker struct {
	config     Config
	controller *modal.Controller
}

// NewPicker creates a picker.
func NewPicker(config Config) (*Picker, error) {
	if config.Prompter == nil {
		return nil, fmt.Errorf("%w: picker needs a prompter", types.ErrInvalidArgument)
	}
	if config.Launcher != nil && config.Host == nil {
		return nil, fmt.Errorf("%w: peer path needs a UI host", types.ErrInvalidArgument)
	}
	if config.Launcher == nil && config.Local == nil {
		return nil, fmt.Errorf("%w: picker needs a launcher or a local dialog", types.ErrInvalidArgument)
	}
	if config.Latch == nil {
		config.Latch = ProcessLatch()
	}
	if config.Logger == nil {
		config.Logger = log.Nop()
	}

	p := &Picker{config: config}
	if config.Host != nil {
		p.controller = modal.NewController(config.Host, modal.Config{
			LatchTimeout: config.LatchTimeout,
			Logger:       config.Logger,
			Collector:    config.Collector,
		})
	}
	return p, nil
}

// OpenFile asks for one existing file.
func (p *Picker) OpenFile(ctx context.Context, opts Options) (string, bool) {
	return first(p.show(ctx, types.ModeOpenOne, opts))
}

// OpenFiles asks for one or more existing files.
func (p *Picker) OpenFiles(ctx context.Context, opts Options) ([]string, bool) {
	out := p.show(ctx, types.ModeOpenMany, opts)
	return out.Paths, out.Selected()
}

// SaveFile asks for a file to write. The result carries a filter's
// extension and has been confirmed for overwrite.
func (p *Picker) SaveFile(ctx context.Context, opts Options) (string, bool) {
	return first(p.show(ctx, types.ModeSave, opts))
}

// PickDirectory asks for a directory. Filters are ignored.
func (p *Picker) PickDirectory(ctx context.Context, opts Options) (string, bool) {
	opts.Filters = nil
	return first(p.show(ctx, types.ModePickDirectory, opts))
}

func first(out *Outcome) (string, bool) {
	if !out.Selected() {
		return "", false
	}
	return out.Paths[0], true
}

func (p *Picker) show(ctx context.Context, mode types.Mode, opts Options) *Outcome {
	out, err := p.Do(ctx, mode, opts)
	if err != nil {
		p.report(err)
		return &Outcome{Err: err}
	}
	return out
}

// Do runs one dialog call and describes how it went. The only error is a
// malformed request; every other failure is recovered from and recorded
// in Outcome.Err.
func (p *Picker) Do(ctx context.Context, mode types.Mode, opts Options) (*Outcome, error) {
	req := &ipc.Request{
		Mode:        mode,
		Title:       opts.Title,
		InitialPath: opts.InitialPath,
		Filters:     opts.Filters,
		Anchor:      p.config.Anchor,
		AppName:     p.config.AppName,
		TraceLevel:  p.config.TraceLevel,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	p.config.Collector.IncSessionStarted(mode.Keyword())
	out := &Outcome{}

	sel, err := p.viaPeer(ctx, req, out)
	if err != nil && p.shouldFallBack(ctx, err) {
		if !errors.Is(err, errPeerDisabled) {
			out.Err = err
			p.report(err)
		}
		out.Fallback = true
		p.config.Collector.IncFallbackServed()
		sel, err = p.viaLocal(ctx, req)
	}
	if err != nil {
		out.Err = err
		p.report(err)
	}

	if sel != nil && !sel.canceled && len(sel.paths) > 0 {
		if mode == types.ModeSave {
			if path, ok := p.finalizeSave(sel, req.Filters); ok {
				out.Paths = []string{path}
			}
		} else {
			out.Paths = sel.paths
		}
	}
	out.Duration = time.Since(start)

	switch {
	case out.Selected():
		p.config.Collector.IncSessionSelected()
	case err != nil && ctx.Err() == nil:
		p.config.Collector.IncSessionFailed(failureKind(err))
	default:
		p.config.Collector.IncSessionCanceled()
	}
	p.config.Logger.Info("dialog finished", map[string]any{
		"mode":     mode.Keyword(),
		"selected": out.Selected(),
		"fallback": out.Fallback,
		"duration": out.Duration.String(),
	})
	return out, nil
}

// selection is the raw answer of either dialog path.
type selection struct {
	paths            []string
	canceled         bool
	suggestedExt     string
	overwriteChecked bool
}

// errPeerDisabled marks a call that skipped the peer path.
var errPeerDisabled = errors.New("peer path disabled")

func (p *Picker) viaPeer(ctx context.Context, req *ipc.Request, out *Outcome) (*selection, error) {
	if p.config.Launcher == nil {
		return nil, errPeerDisabled
	}
	if reason := p.config.Latch.Tripped(); reason != nil {
		p.config.Logger.Debug("peer disabled, using local dialog", map[string]any{"reason": reason.Error()})
		return nil, errPeerDisabled
	}

	var session *peer.Session
	err := p.controller.Run(ctx, modal.Job{
		Title: req.DisplayTitle(),
		Work: func(ctx context.Context) error {
			s, err := p.config.Launcher.Launch(ctx, req)
			if err != nil {
				return err
			}
			session = s
			return s.Run(ctx)
		},
	})
	if session != nil {
		out.SessionID = session.ID
	}
	if err != nil {
		return nil, err
	}
	return &selection{
		paths:            session.Paths(),
		canceled:         session.Canceled,
		suggestedExt:     session.SuggestedExtension,
		overwriteChecked: session.OverwriteChecked,
	}, nil
}

// shouldFallBack decides whether a peer-path failure is served locally.
// Failures of a peer that never started also disable the peer path for the
// rest of the process.
func (p *Picker) shouldFallBack(ctx context.Context, err error) bool {
	switch {
	case p.config.Local == nil:
		return false
	case ctx.Err() != nil:
		return false
	case errors.Is(err, modal.ErrBlockerNotShown):
		return false
	case errors.Is(err, errPeerDisabled):
		return true
	}
	if peer.IsNeverStarted(err) && p.config.Latch.Trip(err) {
		p.config.Collector.IncFallbackLatchTrip()
		p.config.Logger.Warn("peer unavailable, disabling it for this process", map[string]any{
			"error": err.Error(),
		})
	}
	return true
}

func (p *Picker) viaLocal(ctx context.Context, req *ipc.Request) (*selection, error) {
	if p.config.Local == nil {
		return nil, errPeerDisabled
	}
	paths, err := p.config.Local.Select(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("local dialog: %w", err)
	}
	if len(paths) == 0 {
		return &selection{canceled: true}, nil
	}
	sel := &selection{paths: paths}
	if req.Mode == types.ModeSave {
		sel.suggestedExt = suggestExtension(req.Filters, paths[0])
	}
	return sel, nil
}

func (p *Picker) report(err error) {
	if errors.Is(err, errPeerDisabled) || errors.Is(err, context.Canceled) {
		return
	}
	if p.config.OnError != nil {
		p.config.OnError(err)
	}
}

func failureKind(err error) string {
	if sErr, ok := peer.AsSessionError(err); ok {
		return sErr.Kind.String()
	}
	switch {
	case errors.Is(err, modal.ErrBlockerNotShown):
		return "blocker_not_shown"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "local_dialog"
	}
}
