package peer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/justapithecus/peerdialog/types"
)

// ErrorKind classifies session failures.
type ErrorKind int

const (
	// KindInstallationFailed: the peer could not be located or extracted.
	KindInstallationFailed ErrorKind = iota + 1
	// KindLaunchFailed: the peer process could not be started.
	KindLaunchFailed
	// KindPeerCrashed: the peer started but its output ended without
	// EXIT, or it stayed silent past the startup timeout.
	KindPeerCrashed
	// KindPeerError: the peer reported ERROR.
	KindPeerError
	// KindTooManyResults: more RESULT lines than the expected count.
	KindTooManyResults
	// KindInvalidCount: a malformed, repeated, late, or unmet RESULT COUNT.
	KindInvalidCount
	// KindProtocol: an undecodable response stream.
	KindProtocol
)

var kindNames = map[ErrorKind]string{
	KindInstallationFailed: "installation_failed",
	KindLaunchFailed:       "launch_failed",
	KindPeerCrashed:        "peer_crashed",
	KindPeerError:          "peer_error",
	KindTooManyResults:     "too_many_results",
	KindInvalidCount:       "invalid_count",
	KindProtocol:           "protocol_error",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinel returns the types error the kind matches under errors.Is.
func (k ErrorKind) Sentinel() error {
	switch k {
	case KindInstallationFailed:
		return types.ErrInstallationFailed
	case KindLaunchFailed:
		return types.ErrLaunchFailed
	case KindPeerCrashed:
		return types.ErrPeerCrashed
	case KindPeerError:
		return types.ErrPeerError
	case KindTooManyResults:
		return types.ErrTooManyResults
	case KindInvalidCount:
		return types.ErrInvalidCount
	case KindProtocol:
		return types.ErrInvalidArgument
	default:
		return nil
	}
}

// NeverStarted reports whether the peer never ran, as opposed to a peer
// that started and then failed.
func (k ErrorKind) NeverStarted() bool {
	return k == KindInstallationFailed || k == KindLaunchFailed
}

// SessionError represents a failed peer session.
type SessionError struct {
	Kind ErrorKind
	Msg  string
	Err  error
	// Diagnostics holds the last unrecognized output lines, typically a
	// stack trace or toolkit warning explaining the failure.
	Diagnostics []string
}

func (e *SessionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// Is matches the kind's sentinel.
func (e *SessionError) Is(target error) bool {
	s := e.Kind.Sentinel()
	return s != nil && target == s
}

// Summary is a short user-facing description that distinguishes a peer
// that never started from one that failed while running.
func (e *SessionError) Summary() string {
	if e.Kind.NeverStarted() {
		return "The native file dialog could not be started: " + e.Error()
	}
	return "The native file dialog failed: " + e.Error()
}

// AsSessionError extracts a *SessionError from err.
func AsSessionError(err error) (*SessionError, bool) {
	var sErr *SessionError
	if errors.As(err, &sErr) {
		return sErr, true
	}
	return nil, false
}

// IsNeverStarted returns true if err is a session error for a peer that
// never ran.
func IsNeverStarted(err error) bool {
	if sErr, ok := AsSessionError(err); ok {
		return sErr.Kind.NeverStarted()
	}
	return false
}
