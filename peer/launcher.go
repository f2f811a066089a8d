package peer

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/justapithecus/peerdialog/ipc"
	"github.com/justapithecus/peerdialog/log"
	"github.com/justapithecus/peerdialog/metrics"
)

// Default timeouts.
const (
	DefaultStartupTimeout = 15 * time.Second
	DefaultExitGrace      = 2 * time.Second
)

// Resolver locates the peer executable. install.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context) (string, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context) (string, error) { return f(ctx) }

// LauncherConfig configures a Launcher.
type LauncherConfig struct {
	// Resolver finds the peer executable (required).
	Resolver Resolver
	// ProcessFactory overrides process creation (for testing).
	// If nil, uses NewProcessManager.
	ProcessFactory ProcessFactory
	// StartupTimeout bounds the wait for the peer's first output line.
	// Zero uses DefaultStartupTimeout; negative disables the bound.
	StartupTimeout time.Duration
	// ExitGrace bounds the wait for a peer to quit after EXIT.
	// Zero uses DefaultExitGrace; negative kills immediately.
	ExitGrace time.Duration
	// PlatformFlags precede the request arguments. Nil uses
	// DefaultPlatformFlags.
	PlatformFlags []string
	// Env is appended to the peer's inherited environment.
	Env []string
	// Logger receives session logs. If nil, logging is discarded.
	Logger *log.Logger
	// Collector records launch metrics. If nil, no metrics are recorded.
	Collector *metrics.Collector
}

// DefaultPlatformFlags returns the flags the peer needs on this platform.
// On macOS the native widget must own the process main thread.
func DefaultPlatformFlags() []string {
	if runtime.GOOS == "darwin" {
		return []string{ipc.FlagUIMainThread}
	}
	return nil
}

// Launcher starts peer sessions.
type Launcher struct {
	config LauncherConfig
}

// NewLauncher creates a launcher.
func NewLauncher(config LauncherConfig) *Launcher {
	if config.ProcessFactory == nil {
		config.ProcessFactory = NewProcessManager
	}
	if config.StartupTimeout == 0 {
		config.StartupTimeout = DefaultStartupTimeout
	}
	if config.ExitGrace == 0 {
		config.ExitGrace = DefaultExitGrace
	}
	if config.PlatformFlags == nil {
		config.PlatformFlags = DefaultPlatformFlags()
	}
	if config.Logger == nil {
		config.Logger = log.Nop()
	}
	return &Launcher{config: config}
}

// Command returns the argument vector passed to the peer for req.
func (l *Launcher) Command(req *ipc.Request) []string {
	args := make([]string, 0, len(l.config.PlatformFlags)+16)
	args = append(args, l.config.PlatformFlags...)
	return append(args, ipc.EncodeArgs(req)...)
}

// Launch resolves and starts the peer for req.
//
// Errors:
//   - types.ErrInvalidArgument: req is malformed
//   - *SessionError with KindInstallationFailed: the peer could not be resolved
//   - *SessionError with KindLaunchFailed: the peer process failed to start
func (l *Launcher) Launch(ctx context.Context, req *ipc.Request) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger := l.config.Logger.WithSession(id, req.Mode.Keyword())

	path, err := l.config.Resolver.Resolve(ctx)
	if err != nil {
		l.config.Collector.IncPeerLaunchFailure()
		logger.Error("failed to resolve peer", map[string]any{"error": err.Error()})
		return nil, &SessionError{Kind: KindInstallationFailed, Msg: "peer not available", Err: err}
	}

	args := l.Command(req)
	proc := l.config.ProcessFactory(&ProcessConfig{
		Path: path,
		Args: args,
		Env:  l.config.Env,
	})
	if err := proc.Start(ctx); err != nil {
		l.config.Collector.IncPeerLaunchFailure()
		logger.Error("failed to start peer", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
		return nil, &SessionError{Kind: KindLaunchFailed, Msg: fmt.Sprintf("could not start %s", path), Err: err}
	}

	l.config.Collector.IncPeerLaunchSuccess()
	logger.Info("peer launched", map[string]any{
		"path": path,
		"pid":  proc.Pid(),
		"args": args,
	})

	s := newSession(id, req, proc, logger, l.config.Collector)
	s.startupTimeout = l.config.StartupTimeout
	s.exitGrace = l.config.ExitGrace
	return s, nil
}

// Run launches a session for req and runs it to completion. A launch
// failure is returned as a session error with no Session.
func (l *Launcher) Run(ctx context.Context, req *ipc.Request) (*Session, error) {
	s, err := l.Launch(ctx, req)
	if err != nil {
		return nil, err
	}
	return s, s.Run(ctx)
}
