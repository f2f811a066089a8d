// Package peer spawns and supervises the out-of-process dialog peer and
// decodes its response stream into a Session.
package peer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessConfig configures a peer process.
type ProcessConfig struct {
	// Path is the peer executable.
	Path string
	// Args follow the executable on the command line.
	Args []string
	// Env is appended to the inherited environment.
	Env []string
}

// ProcessResult represents the result of a peer process.
type ProcessResult struct {
	// ExitCode is the process exit code, or -1 if it was signaled.
	ExitCode int
}

// Process abstracts peer process lifecycle for testing.
type Process interface {
	Start(ctx context.Context) error
	// Output is the merged stdout/stderr stream.
	Output() io.Reader
	Wait() (*ProcessResult, error)
	// Kill terminates the process and its descendants. Idempotent.
	Kill() error
	Pid() int
}

// ProcessFactory creates a Process. Used for test injection.
type ProcessFactory func(config *ProcessConfig) Process

// ProcessManager manages a real peer process.
type ProcessManager struct {
	config *ProcessConfig
	cmd    *exec.Cmd
	output *os.File

	killOnce sync.Once
	killErr  error
}

// NewProcessManager creates a new process manager.
func NewProcessManager(config *ProcessConfig) Process {
	return &ProcessManager{config: config}
}

// Start starts the peer. stdout and stderr share one pipe so that every
// diagnostic reaches the same decode loop, in order.
func (m *ProcessManager) Start(ctx context.Context) error {
	m.cmd = exec.CommandContext(ctx, m.config.Path, m.config.Args...)
	if len(m.config.Env) > 0 {
		m.cmd.Env = append(os.Environ(), m.config.Env...)
	}

	r, w, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("failed to create output pipe: %w", err)
	}
	m.cmd.Stdout = w
	m.cmd.Stderr = w

	if err := m.cmd.Start(); err != nil {
		_ = r.Close()
		_ = w.Close()
		return fmt.Errorf("failed to start peer: %w", err)
	}

	// The child holds its own copy; ours must be closed for EOF to arrive.
	_ = w.Close()
	m.output = r
	return nil
}

// Output returns the merged output reader.
func (m *ProcessManager) Output() io.Reader {
	return m.output
}

// Pid returns the process id, or 0 before Start.
func (m *ProcessManager) Pid() int {
	if m.cmd == nil || m.cmd.Process == nil {
		return 0
	}
	return m.cmd.Process.Pid
}

// Wait waits for the peer to exit and closes the output reader.
// Must be called after Start and after the output has been drained.
func (m *ProcessManager) Wait() (*ProcessResult, error) {
	if m.cmd == nil {
		return nil, errors.New("peer not started")
	}

	err := m.cmd.Wait()
	if m.output != nil {
		_ = m.output.Close()
	}

	result := &ProcessResult{}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("peer wait failed: %w", err)
		}
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			result.ExitCode = status.ExitStatus()
		} else {
			result.ExitCode = -1
		}
	}
	return result, nil
}

// Kill terminates the peer and every descendant it spawned. Descendants
// go first so none is reparented and left running.
func (m *ProcessManager) Kill() error {
	m.killOnce.Do(func() {
		if m.cmd == nil || m.cmd.Process == nil {
			return
		}
		killDescendants(int32(m.cmd.Process.Pid))
		if err := m.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			m.killErr = err
		}
	})
	return m.killErr
}

func killDescendants(pid int32) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return
	}
	children, err := p.Children()
	if err != nil {
		return
	}
	for _, child := range children {
		killDescendants(child.Pid)
		_ = child.Kill()
	}
}
