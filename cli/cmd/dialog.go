package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/peerdialog/adapter"
	"github.com/justapithecus/peerdialog/cli/config"
	"github.com/justapithecus/peerdialog/cli/render"
	"github.com/justapithecus/peerdialog/cli/tui"
	"github.com/justapithecus/peerdialog/dialog"
	"github.com/justapithecus/peerdialog/filter"
	"github.com/justapithecus/peerdialog/iox"
	"github.com/justapithecus/peerdialog/log"
	"github.com/justapithecus/peerdialog/metrics"
	"github.com/justapithecus/peerdialog/modal"
	"github.com/justapithecus/peerdialog/peer"
	"github.com/justapithecus/peerdialog/peerapp"
	"github.com/justapithecus/peerdialog/types"
	"github.com/justapithecus/peerdialog/widget"
)

// DialogCommands returns one command per dialog mode.
func DialogCommands() []*cli.Command {
	return []*cli.Command{
		dialogCommand("open", types.ModeOpenOne, "Choose one existing file"),
		dialogCommand("open-many", types.ModeOpenMany, "Choose one or more existing files"),
		dialogCommand("save", types.ModeSave, "Choose a file name to save to"),
		dialogCommand("pick-dir", types.ModePickDirectory, "Choose a directory"),
	}
}

func dialogCommand(name string, mode types.Mode, usage string) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Description: "Shows the native file dialog in a separate peer process, or a terminal\n" +
			"dialog when the peer is unavailable. Exit codes: 0 selected, 1 canceled or\n" +
			"failed, 2 usage or config error.",
		Flags:  DialogFlags(),
		Action: dialogAction(mode),
	}
}

// FrontEnd supplies the interactive parts of the dialog commands.
type FrontEnd struct {
	Local    dialog.LocalDialog
	Prompter dialog.Prompter
	// Status receives progress messages while a peer dialog is visible.
	// Nil disables them.
	Status io.Writer
}

// NewFrontEnd builds the front end for a command. Tests replace it.
var NewFrontEnd = func(c *cli.Context) FrontEnd {
	fe := FrontEnd{
		Local:    &widget.Local{Widget: &tui.Widget{}},
		Prompter: &tui.Prompter{},
	}
	if isStderrTTY() {
		fe.Status = c.App.ErrWriter
	}
	return fe
}

// settings is the merged flag and config view of one dialog command.
type settings struct {
	appName        string
	title          string
	path           string
	filters        []*filter.Filter
	peerPath       string
	toolkit        string
	noPeer         bool
	startupTimeout time.Duration
	latchTimeout   time.Duration
	debug          int
	clipboard      bool
	noNotify       bool
	install        config.InstallConfig
	notify         config.NotifyConfig
	journal        config.StoreConfig
}

func resolveSettings(c *cli.Context, cfg *config.Config) (*settings, error) {
	filters, err := filter.ParseAll(c.StringSlice("filter"))
	if err != nil {
		return nil, cli.Exit(err.Error(), exitUsage)
	}

	if cfg == nil {
		cfg = &config.Config{}
	}
	s := &settings{
		appName:        resolveString(c, "app-name", cfg.AppName),
		title:          c.String("title"),
		path:           c.String("path"),
		filters:        filters,
		peerPath:       resolveString(c, "peer", cfg.Peer.Path),
		toolkit:        resolveString(c, "toolkit", cfg.Peer.Toolkit),
		noPeer:         resolveBool(c, "no-peer", cfg.Peer.Disabled),
		startupTimeout: resolveDuration(c, "startup-timeout", cfg.Peer.StartupTimeout.Duration),
		latchTimeout:   resolveDuration(c, "latch-timeout", cfg.Peer.LatchTimeout.Duration),
		debug:          resolveInt(c, "debug", cfg.Peer.Debug),
		clipboard:      c.Bool("clipboard"),
		noNotify:       c.Bool("no-notify"),
		install:        cfg.Install,
		notify:         cfg.Notify,
		journal:        cfg.Journal,
	}
	s.journal.Path = resolveString(c, "journal", cfg.Journal.Path)

	switch s.toolkit {
	case "", "native", "zenity":
	default:
		return nil, cli.Exit(fmt.Sprintf("unknown toolkit %q (want native or zenity)", s.toolkit), exitUsage)
	}
	if s.debug < 0 {
		return nil, cli.Exit("--debug must be >= 0", exitUsage)
	}
	return s, nil
}

func dialogAction(mode types.Mode) cli.ActionFunc {
	return func(c *cli.Context) error {
		r, err := render.NewRenderer(c)
		if err != nil {
			return cli.Exit(err.Error(), exitUsage)
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		s, err := resolveSettings(c, cfg)
		if err != nil {
			return err
		}
		publishers, err := buildPublishers(c.Context, s)
		if err != nil {
			return cli.Exit(err.Error(), exitUsage)
		}
		defer closeAll(publishers)

		logger := log.NewLogger(log.Meta{App: s.appName, TraceLevel: s.debug}).WithOutput(c.App.ErrWriter)
		defer iox.DiscardErr(logger.Sync)
		collector := metrics.NewCollector(s.appName, s.toolkit)

		ctx := c.Context
		loop := modal.NewLoop()
		fe := NewFrontEnd(c)
		if fe.Status != nil {
			loop.OnShow = func(title string) { fmt.Fprintf(fe.Status, "Waiting for %q...\n", title) }
		}

		pcfg := dialog.Config{
			Host:         loop,
			Local:        fe.Local,
			Prompter:     fe.Prompter,
			AppName:      s.appName,
			TraceLevel:   s.debug,
			LatchTimeout: s.latchTimeout,
			Logger:       logger,
			Collector:    collector,
			OnError: func(err error) {
				logger.Warn("dialog failure recovered", map[string]any{"error": err.Error()})
			},
		}
		if !s.noPeer {
			launcher, err := buildLauncher(ctx, s, logger, collector)
			if err != nil {
				return err
			}
			pcfg.Launcher = launcher
		}
		picker, err := dialog.NewPicker(pcfg)
		if err != nil {
			return cli.Exit(err.Error(), exitUsage)
		}

		out, err := runOnLoop(ctx, loop, func(ctx context.Context) (*dialog.Outcome, error) {
			return picker.Do(ctx, mode, dialog.Options{Title: s.title, InitialPath: s.path, Filters: s.filters})
		})
		if err != nil && out == nil && ctx.Err() == nil {
			return cli.Exit(err.Error(), exitUsage)
		}
		if out == nil {
			out = &dialog.Outcome{}
		}

		view := newSelectionView(ctx, mode, out)
		if logger.Enabled(2) {
			logMetrics(logger, collector.Snapshot())
		}
		if s.clipboard && view.Outcome == adapter.OutcomeSelected {
			if err := clipboard.WriteAll(strings.Join(view.Paths, "\n")); err != nil {
				logger.Warn("clipboard write failed", map[string]any{"error": err.Error()})
			}
		}
		if len(publishers) > 0 {
			publish(ctx, publishers, view.event(s.appName, time.Now()), logger)
		}

		if err := r.Render(view); err != nil {
			return err
		}
		return exitFor(view)
	}
}

// runOnLoop runs fn on loop's UI thread, servicing the loop on the calling
// goroutine until fn returns or ctx ends.
func runOnLoop(ctx context.Context, loop *modal.Loop, fn func(context.Context) (*dialog.Outcome, error)) (*dialog.Outcome, error) {
	type result struct {
		out *dialog.Outcome
		err error
	}
	done := make(chan result, 2)
	go func() {
		defer loop.Quit()
		err := loop.Call(ctx, func() {
			out, err := fn(ctx)
			done <- result{out, err}
		})
		if err != nil {
			done <- result{err: err}
		}
	}()

	_ = loop.Run(ctx)
	select {
	case r := <-done:
		return r.out, r.err
	default:
		return nil, ctx.Err()
	}
}

func buildLauncher(ctx context.Context, s *settings, logger *log.Logger, collector *metrics.Collector) (*peer.Launcher, error) {
	resolver, err := buildResolver(ctx, s.peerPath, s.install, logger, collector)
	if err != nil {
		return nil, err
	}
	var env []string
	if s.toolkit != "" {
		env = append(env, peerapp.EnvToolkit+"="+s.toolkit)
	}
	return peer.NewLauncher(peer.LauncherConfig{
		Resolver:       resolver,
		StartupTimeout: s.startupTimeout,
		Env:            env,
		Logger:         logger,
		Collector:      collector,
	}), nil
}

// buildPublishers returns the adapters the selection event goes to: the
// configured notifier unless --no-notify, and the journal when it has a path.
func buildPublishers(ctx context.Context, s *settings) ([]adapter.Adapter, error) {
	var out []adapter.Adapter
	if !s.noNotify && s.notify.Type != "" {
		a, err := newAdapter(s.notify)
		if err != nil {
			return nil, fmt.Errorf("notify: %w", err)
		}
		out = append(out, a)
	}
	if s.journal.Path != "" {
		j, err := openJournal(ctx, s.journal)
		if err != nil {
			closeAll(out)
			return nil, fmt.Errorf("journal: %w", err)
		}
		out = append(out, j)
	}
	return out, nil
}

func closeAll(publishers []adapter.Adapter) {
	for _, p := range publishers {
		_ = p.Close()
	}
}

// publish delivers event to every publisher. Failures are logged; the
// dialog result stands regardless.
func publish(ctx context.Context, publishers []adapter.Adapter, event *adapter.SelectionEvent, logger *log.Logger) {
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	for _, p := range publishers {
		if err := p.Publish(ctx, event); err != nil {
			logger.Warn("selection event not published", map[string]any{"error": err.Error()})
		}
	}
}

func logMetrics(logger *log.Logger, snap metrics.Snapshot) {
	logger.Debug("dialog metrics", map[string]any{
		"sessions_started":    snap.SessionsStarted,
		"sessions_selected":   snap.SessionsSelected,
		"sessions_canceled":   snap.SessionsCanceled,
		"sessions_failed":     snap.SessionsFailed,
		"fallbacks_served":    snap.FallbacksServed,
		"peer_launch_success": snap.PeerLaunchSuccess,
		"peer_launch_failure": snap.PeerLaunchFailure,
		"peer_crash":          snap.PeerCrash,
		"protocol_errors":     snap.ProtocolErrors,
		"blocker_timeouts":    snap.BlockerTimeouts,
	})
}

// selectionView is the rendered result of a dialog command.
type selectionView struct {
	Mode       string   `json:"mode" yaml:"mode"`
	Outcome    string   `json:"outcome" yaml:"outcome"`
	Paths      []string `json:"paths" yaml:"paths"`
	Fallback   bool     `json:"fallback" yaml:"fallback"`
	SessionID  string   `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	DurationMs int64    `json:"duration_ms" yaml:"duration_ms"`
	Error      string   `json:"error,omitempty" yaml:"error,omitempty"`
}

func newSelectionView(ctx context.Context, mode types.Mode, out *dialog.Outcome) selectionView {
	v := selectionView{
		Mode:       mode.Keyword(),
		Paths:      out.Paths,
		Fallback:   out.Fallback,
		SessionID:  out.SessionID,
		DurationMs: out.Duration.Milliseconds(),
	}
	if v.Paths == nil {
		v.Paths = []string{}
	}
	switch {
	case out.Selected():
		v.Outcome = adapter.OutcomeSelected
	case out.Err != nil && ctx.Err() == nil:
		v.Outcome = adapter.OutcomeFailed
	default:
		v.Outcome = adapter.OutcomeCanceled
	}
	if out.Err != nil {
		if sErr, ok := peer.AsSessionError(out.Err); ok {
			v.Error = sErr.Summary()
		} else {
			v.Error = out.Err.Error()
		}
	}
	return v
}

// Lines implements render.Liner.
func (v selectionView) Lines() []string { return v.Paths }

// StyleField implements render.Stylist.
func (v selectionView) StyleField(field, value string) (string, bool) {
	if field != "outcome" {
		return "", false
	}
	return render.StyleOutcome(value), true
}

func (v selectionView) event(appName string, now time.Time) *adapter.SelectionEvent {
	return &adapter.SelectionEvent{
		ContractVersion: types.ProtocolVersion,
		EventType:       adapter.EventType,
		SessionID:       v.SessionID,
		AppName:         appName,
		Mode:            v.Mode,
		Outcome:         v.Outcome,
		Paths:           v.Paths,
		Fallback:        v.Fallback,
		Error:           v.Error,
		Timestamp:       now.UTC().Format(time.RFC3339),
		DurationMs:      v.DurationMs,
	}
}

func exitFor(v selectionView) error {
	switch v.Outcome {
	case adapter.OutcomeSelected:
		return nil
	case adapter.OutcomeFailed:
		return cli.Exit("dialog failed: "+v.Error, exitCanceled)
	default:
		return cli.Exit("", exitCanceled)
	}
}

func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
