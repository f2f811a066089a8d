package ipc

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/justapithecus/peerdialog/types"
)

// Emitter writes the peer side of the response stream. Each call writes
// exactly one line. Safe for concurrent use.
type Emitter struct {
	mu    sync.Mutex
	w     io.Writer
	trace int
}

// NewEmitter creates an emitter writing to w. Trace lines at levels above
// traceLevel are suppressed.
func NewEmitter(w io.Writer, traceLevel int) *Emitter {
	return &Emitter{w: w, trace: traceLevel}
}

func (e *Emitter) line(s string) error {
	if strings.ContainsAny(s, "\r\n") {
		return fmt.Errorf("%w: response value contains a newline: %q", types.ErrInvalidArgument, s)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := io.WriteString(e.w, s+"\n")
	return err
}

// Result writes "RESULT: <path>".
func (e *Emitter) Result(path string) error { return e.line(PrefixResult + path) }

// ResultDir writes "RESULT DIR: <dir>".
func (e *Emitter) ResultDir(dir string) error { return e.line(PrefixResultDir + dir) }

// ResultCount writes "RESULT COUNT: <n>".
func (e *Emitter) ResultCount(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: result count %d", types.ErrInvalidCount, n)
	}
	return e.line(PrefixResultCount + strconv.Itoa(n))
}

// CheckedOverwrite writes "STATUS: checked overwrite".
func (e *Emitter) CheckedOverwrite() error {
	return e.line(PrefixStatus + StatusCheckedOverwrite)
}

// SuggestExtension writes "STATUS: suggest extension: <ext>".
func (e *Emitter) SuggestExtension(ext string) error {
	return e.line(PrefixStatus + StatusSuggestExtension + ext)
}

// Status writes a free-form "STATUS: <text>" line.
func (e *Emitter) Status(text string) error { return e.line(PrefixStatus + text) }

// Error writes "ERROR: <msg>". Newlines in msg are folded into spaces so
// the message always fits on one line.
func (e *Emitter) Error(msg string) error {
	msg = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(msg)
	return e.line(PrefixError + msg)
}

// Canceled writes "CANCELED".
func (e *Emitter) Canceled() error { return e.line(LineCanceled) }

// Exit writes "EXIT".
func (e *Emitter) Exit() error { return e.line(LineExit) }

// Trace writes "* <msg>" if level is enabled.
func (e *Emitter) Trace(level int, msg string) error {
	if level > e.trace {
		return nil
	}
	for _, l := range strings.Split(strings.TrimRight(msg, "\n"), "\n") {
		if err := e.line(PrefixTrace + strings.TrimSuffix(l, "\r")); err != nil {
			return err
		}
	}
	return nil
}

// Tracef formats and writes a trace line.
func (e *Emitter) Tracef(level int, format string, args ...any) error {
	if level > e.trace {
		return nil
	}
	return e.Trace(level, fmt.Sprintf(format, args...))
}
