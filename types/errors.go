package types

import "errors"

// Error taxonomy for dialog sessions.
//
// ErrInvalidArgument is local to the caller and surfaces only as a
// precondition failure. The remaining kinds are folded into a session error;
// the dialog facade reacts by falling back to the local dialog.
var (
	// ErrInvalidArgument reports a malformed filter, argument, or protocol line.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInstallationFailed reports that the peer program could not be located or extracted.
	ErrInstallationFailed = errors.New("peer installation failed")
	// ErrLaunchFailed reports that the peer process could not be started.
	ErrLaunchFailed = errors.New("peer launch failed")
	// ErrPeerCrashed reports that the peer output ended without EXIT, or
	// that the peer produced no output before the startup deadline.
	ErrPeerCrashed = errors.New("peer crashed")
	// ErrPeerError reports an ERROR line emitted by the peer.
	ErrPeerError = errors.New("peer reported error")
	// ErrTooManyResults reports a RESULT line beyond the expected count.
	ErrTooManyResults = errors.New("too many results")
	// ErrInvalidCount reports a malformed, repeated, late, or unmet RESULT COUNT.
	ErrInvalidCount = errors.New("invalid result count")
)
