package ipc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/justapithecus/peerdialog/types"
)

// Line prefixes of the peer response stream.
const (
	PrefixResult      = "RESULT: "
	PrefixResultDir   = "RESULT DIR: "
	PrefixResultCount = "RESULT COUNT: "
	PrefixStatus      = "STATUS: "
	PrefixError       = "ERROR: "
	PrefixTrace       = "* "

	LineCanceled = "CANCELED"
	LineExit     = "EXIT"

	StatusCheckedOverwrite = "checked overwrite"
	StatusSuggestExtension = "suggest extension: "
	StatusReady            = "ready"
)

// MaxLineSize bounds a single response line, including the newline.
const MaxLineSize = 1024 * 1024

// EventKind discriminates decoded response lines.
type EventKind int

const (
	// EventDiagnostic is any unrecognized output: peer traces, stack
	// traces, or toolkit noise on the merged stderr.
	EventDiagnostic EventKind = iota
	EventResult
	EventResultDir
	EventResultCount
	EventCheckedOverwrite
	EventSuggestExtension
	EventStatus
	EventError
	EventCanceled
	EventExit
)

var eventKindNames = map[EventKind]string{
	EventDiagnostic:       "diagnostic",
	EventResult:           "result",
	EventResultDir:        "result_dir",
	EventResultCount:      "result_count",
	EventCheckedOverwrite: "checked_overwrite",
	EventSuggestExtension: "suggest_extension",
	EventStatus:           "status",
	EventError:            "error",
	EventCanceled:         "canceled",
	EventExit:             "exit",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is one decoded response line.
type Event struct {
	Kind EventKind
	// Value carries the text after the prefix (path, directory, status
	// text, error message, suggested extension, or the raw diagnostic).
	Value string
	// Count is set for EventResultCount.
	Count int
}

// ProtocolErrorKind classifies decoding errors.
type ProtocolErrorKind int

const (
	// ProtocolErrorRead indicates the stream failed mid-read.
	ProtocolErrorRead ProtocolErrorKind = iota
	// ProtocolErrorTooLong indicates a line exceeding MaxLineSize.
	ProtocolErrorTooLong
	// ProtocolErrorMalformed indicates a recognized line with a bad value.
	ProtocolErrorMalformed
)

// ProtocolError represents a response decoding error.
type ProtocolError struct {
	Kind ProtocolErrorKind
	Line string
	Msg  string
	Err  error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if the stream cannot be decoded further.
// Malformed lines are recoverable: the decoder stays in sync.
func (e *ProtocolError) IsFatal() bool {
	return e.Kind == ProtocolErrorRead || e.Kind == ProtocolErrorTooLong
}

// IsFatalProtocolError returns true if the error is a fatal protocol error.
func IsFatalProtocolError(err error) bool {
	var pErr *ProtocolError
	if errors.As(err, &pErr) {
		return pErr.IsFatal()
	}
	return false
}

// LineDecoder decodes the peer's newline-delimited response stream.
type LineDecoder struct {
	scanner *bufio.Scanner
	exited  bool
}

// NewLineDecoder creates a decoder reading from r.
func NewLineDecoder(r io.Reader) *LineDecoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), MaxLineSize)
	return &LineDecoder{scanner: s}
}

// Next decodes the next line.
//
// Errors:
//   - io.EOF: the stream ended, or EXIT was already returned
//   - *ProtocolError with Kind=ProtocolErrorMalformed: bad RESULT COUNT (recoverable)
//   - *ProtocolError with Kind=ProtocolErrorRead or ProtocolErrorTooLong (fatal)
func (d *LineDecoder) Next() (Event, error) {
	if d.exited {
		return Event{}, io.EOF
	}
	if !d.scanner.Scan() {
		err := d.scanner.Err()
		if err == nil {
			return Event{}, io.EOF
		}
		if errors.Is(err, bufio.ErrTooLong) {
			return Event{}, &ProtocolError{
				Kind: ProtocolErrorTooLong,
				Msg:  fmt.Sprintf("line exceeds maximum %d bytes", MaxLineSize),
				Err:  err,
			}
		}
		return Event{}, &ProtocolError{
			Kind: ProtocolErrorRead,
			Msg:  "failed to read peer output",
			Err:  err,
		}
	}

	ev, err := ParseLine(d.scanner.Text())
	if err == nil && ev.Kind == EventExit {
		d.exited = true
	}
	return ev, err
}

// ParseLine decodes a single line without its newline. A trailing
// carriage return is ignored.
func ParseLine(line string) (Event, error) {
	line = strings.TrimSuffix(line, "\r")

	switch {
	case strings.HasPrefix(line, PrefixResultDir):
		return Event{Kind: EventResultDir, Value: line[len(PrefixResultDir):]}, nil
	case strings.HasPrefix(line, PrefixResultCount):
		raw := line[len(PrefixResultCount):]
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n <= 0 {
			return Event{Kind: EventResultCount, Value: raw}, &ProtocolError{
				Kind: ProtocolErrorMalformed,
				Line: line,
				Msg:  fmt.Sprintf("bad result count %q", raw),
				Err:  types.ErrInvalidCount,
			}
		}
		return Event{Kind: EventResultCount, Value: raw, Count: n}, nil
	case strings.HasPrefix(line, PrefixResult):
		return Event{Kind: EventResult, Value: line[len(PrefixResult):]}, nil
	case strings.HasPrefix(line, PrefixStatus):
		status := line[len(PrefixStatus):]
		switch {
		case status == StatusCheckedOverwrite:
			return Event{Kind: EventCheckedOverwrite}, nil
		case strings.HasPrefix(status, StatusSuggestExtension):
			return Event{Kind: EventSuggestExtension, Value: status[len(StatusSuggestExtension):]}, nil
		default:
			return Event{Kind: EventStatus, Value: status}, nil
		}
	case strings.HasPrefix(line, PrefixError):
		return Event{Kind: EventError, Value: line[len(PrefixError):]}, nil
	case line == LineCanceled:
		return Event{Kind: EventCanceled}, nil
	case line == LineExit:
		return Event{Kind: EventExit}, nil
	default:
		return Event{Kind: EventDiagnostic, Value: line}, nil
	}
}
