package peer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/justapithecus/peerdialog/ipc"
	"github.com/justapithecus/peerdialog/log"
	"github.com/justapithecus/peerdialog/metrics"
	"github.com/justapithecus/peerdialog/types"
)

// maxDiagnostics bounds the unrecognized output kept for error reports.
const maxDiagnostics = 20

// Session is the state of one peer invocation.
//
// Fields are written only by Run. Other goroutines may read them once Run
// has returned and that return has been communicated to them (the modal
// handshake provides the happens-before edge); no lock guards them.
type Session struct {
	ID      string
	Request *ipc.Request

	Canceled bool
	Err      *SessionError
	// ResultDir is set for multi-select results.
	ResultDir string
	// Results holds raw RESULT values, relative to ResultDir for
	// multi-select.
	Results []string
	// OverwriteChecked is true when the peer's toolkit already asked
	// about replacing an existing file.
	OverwriteChecked bool
	// SuggestedExtension is the extension the peer proposes appending to
	// a save name that matches no filter. Empty means none.
	SuggestedExtension string
	Exited             bool
	ExitCode           int

	expected    int
	countSet    bool
	diagnostics []string

	proc           Process
	logger         *log.Logger
	collector      *metrics.Collector
	startupTimeout time.Duration
	exitGrace      time.Duration
	ran            bool
}

// newSession creates a session whose result buffer holds the single
// expected result until a RESULT COUNT says otherwise.
func newSession(id string, req *ipc.Request, proc Process, logger *log.Logger, collector *metrics.Collector) *Session {
	return &Session{
		ID:        id,
		Request:   req,
		expected:  1,
		proc:      proc,
		logger:    logger,
		collector: collector,
	}
}

// Paths returns the selected paths. Multi-select names are joined with
// ResultDir; other modes return Results unchanged.
func (s *Session) Paths() []string {
	if s.ResultDir == "" {
		out := make([]string, len(s.Results))
		copy(out, s.Results)
		return out
	}
	out := make([]string, 0, len(s.Results))
	for _, name := range s.Results {
		if filepath.IsAbs(name) {
			out = append(out, name)
		} else {
			out = append(out, filepath.Join(s.ResultDir, name))
		}
	}
	return out
}

// Succeeded reports whether the session produced a usable result.
func (s *Session) Succeeded() bool {
	return s.Err == nil && !s.Canceled && len(s.Results) > 0
}

func (s *Session) fail(kind ErrorKind, err error, format string, args ...any) {
	if s.Err != nil {
		return
	}
	s.Err = &SessionError{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
	switch kind {
	case KindPeerCrashed:
		s.collector.IncPeerCrash()
	case KindTooManyResults, KindInvalidCount, KindProtocol:
		s.collector.IncProtocolErrors()
	}
}

// apply folds one decoded event into the session.
func (s *Session) apply(ev ipc.Event) {
	switch ev.Kind {
	case ipc.EventResult:
		if len(s.Results) >= s.expected {
			s.fail(KindTooManyResults, nil, "result %d exceeds expected count %d", len(s.Results)+1, s.expected)
			return
		}
		s.Results = append(s.Results, ev.Value)
	case ipc.EventResultDir:
		s.ResultDir = ev.Value
	case ipc.EventResultCount:
		switch {
		case s.countSet:
			s.fail(KindInvalidCount, nil, "result count repeated")
		case len(s.Results) > 0:
			s.fail(KindInvalidCount, nil, "result count after %d results", len(s.Results))
		default:
			s.expected = ev.Count
			s.countSet = true
		}
	case ipc.EventCheckedOverwrite:
		s.OverwriteChecked = true
	case ipc.EventSuggestExtension:
		s.SuggestedExtension = ev.Value
	case ipc.EventStatus:
		s.logger.Debug("peer status", map[string]any{"status": ev.Value})
	case ipc.EventError:
		s.fail(KindPeerError, nil, "%s", ev.Value)
	case ipc.EventCanceled:
		s.Canceled = true
	case ipc.EventExit:
		s.Exited = true
	case ipc.EventDiagnostic:
		s.logger.Debug("peer output", map[string]any{"line": ev.Value})
		if len(s.diagnostics) == maxDiagnostics {
			s.diagnostics = s.diagnostics[1:]
		}
		s.diagnostics = append(s.diagnostics, ev.Value)
	}
}

type decoded struct {
	ev  ipc.Event
	err error
}

// Run decodes the peer's output until EXIT, end of stream, a fatal
// decode error, the startup timeout, or ctx cancellation. It always
// terminates and reaps the process before returning.
//
// Run must be called exactly once, never on the UI thread. It returns
// ctx.Err() when canceled, the session error when the session failed, and
// nil otherwise.
func (s *Session) Run(ctx context.Context) error {
	if s.ran {
		return errors.New("peer session already run")
	}
	s.ran = true

	stop := make(chan struct{})
	defer close(stop)

	events := make(chan decoded)
	go func() {
		defer close(events)
		dec := ipc.NewLineDecoder(s.proc.Output())
		for {
			ev, err := dec.Next()
			if err == io.EOF {
				return
			}
			select {
			case events <- decoded{ev: ev, err: err}:
			case <-stop:
				return
			}
			if ipc.IsFatalProtocolError(err) || (err == nil && ev.Kind == ipc.EventExit) {
				return
			}
		}
	}()

	var startup <-chan time.Time
	if s.startupTimeout > 0 {
		timer := time.NewTimer(s.startupTimeout)
		defer timer.Stop()
		startup = timer.C
	}

	var ctxErr error
	streamEnded := false
loop:
	for {
		select {
		case d, ok := <-events:
			if !ok {
				streamEnded = true
				break loop
			}
			startup = nil
			if d.err != nil {
				s.handleDecodeError(d.err)
				if ipc.IsFatalProtocolError(d.err) {
					break loop
				}
				continue
			}
			s.apply(d.ev)
			if s.Exited {
				break loop
			}
		case <-startup:
			s.fail(KindPeerCrashed, nil, "no output from peer within %s", s.startupTimeout)
			break loop
		case <-ctx.Done():
			ctxErr = ctx.Err()
			s.Canceled = true
			break loop
		}
	}

	result := s.teardown()

	if streamEnded && !s.Exited {
		if result != nil {
			s.fail(KindPeerCrashed, nil, "peer exited with code %d without EXIT", result.ExitCode)
		} else {
			s.fail(KindPeerCrashed, nil, "peer output ended without EXIT")
		}
	}
	if s.Exited && s.Err == nil && s.expected > len(s.Results) && s.countSet {
		s.fail(KindInvalidCount, nil, "expected %d results, got %d", s.expected, len(s.Results))
	}
	if s.Err != nil {
		s.Err.Diagnostics = append([]string(nil), s.diagnostics...)
	}

	fields := map[string]any{
		"exit_code": s.ExitCode,
		"results":   len(s.Results),
		"canceled":  s.Canceled,
	}
	if s.Err != nil {
		fields["error"] = s.Err.Error()
		s.logger.Warn("peer session failed", fields)
	} else {
		s.logger.Info("peer session finished", fields)
	}

	if ctxErr != nil {
		return ctxErr
	}
	if s.Err != nil {
		return s.Err
	}
	return nil
}

func (s *Session) handleDecodeError(err error) {
	var pErr *ipc.ProtocolError
	if !errors.As(err, &pErr) {
		s.fail(KindProtocol, err, "decode failed")
		return
	}
	switch {
	case pErr.Kind == ipc.ProtocolErrorRead:
		s.fail(KindPeerCrashed, err, "peer output unreadable")
	case pErr.Kind == ipc.ProtocolErrorMalformed && errors.Is(err, types.ErrInvalidCount):
		s.fail(KindInvalidCount, err, "malformed result count")
	default:
		s.fail(KindProtocol, err, "malformed peer output")
	}
}

// teardown waits up to exitGrace for a peer that reached EXIT to quit on
// its own, then kills it, and reaps it. Returns nil if Wait failed.
func (s *Session) teardown() *ProcessResult {
	if !s.Exited || s.exitGrace <= 0 {
		_ = s.proc.Kill()
	}

	done := make(chan struct{})
	var result *ProcessResult
	var waitErr error
	go func() {
		defer close(done)
		result, waitErr = s.proc.Wait()
	}()

	if s.Exited && s.exitGrace > 0 {
		timer := time.NewTimer(s.exitGrace)
		select {
		case <-done:
		case <-timer.C:
			s.logger.Warn("peer did not exit after EXIT, killing", map[string]any{
				"grace": s.exitGrace.String(),
			})
			_ = s.proc.Kill()
		}
		timer.Stop()
	}
	<-done

	if waitErr != nil {
		s.logger.Warn("peer wait failed", map[string]any{"error": waitErr.Error()})
		return nil
	}
	s.ExitCode = result.ExitCode
	if s.Exited && result.ExitCode != 0 && s.Err == nil {
		s.logger.Warn("peer exited with non-zero code after EXIT", map[string]any{
			"exit_code": result.ExitCode,
		})
	}
	return result
}
