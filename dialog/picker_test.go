package dialog

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/justapithecus/peerdialog/filter"
	"github.com/justapithecus/peerdialog/ipc"
	"github.com/justapithecus/peerdialog/metrics"
	"github.com/justapithecus/peerdialog/modal"
	"github.com/justapithecus/peerdialog/peer"
	"github.com/justapithecus/peerdialog/types"
)

// scriptedProcess replays a fixed peer output.
type scriptedProcess struct {
	output io.Reader
}

func (p *scriptedProcess) Start(context.Context) error { return nil }
func (p *scriptedProcess) Output() io.Reader           { return p.output }
func (p *scriptedProcess) Wait() (*peer.ProcessResult, error) {
	return &peer.ProcessResult{}, nil
}
func (p *scriptedProcess) Kill() error { return nil }
func (p *scriptedProcess) Pid() int    { return 1 }

// fakePeer counts launches and replays one output per launch.
type fakePeer struct {
	mu         sync.Mutex
	outputs    []string
	resolveErr error
	resolves   int
	lastArgs   []string
}

func (f *fakePeer) launcher() *peer.Launcher {
	return peer.NewLauncher(peer.LauncherConfig{
		Resolver: peer.ResolverFunc(func(context.Context) (string, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.resolves++
			if f.resolveErr != nil {
				return "", f.resolveErr
			}
			return "/opt/peerdialog-peer", nil
		}),
		ProcessFactory: func(config *peer.ProcessConfig) peer.Process {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.lastArgs = config.Args
			out := ""
			if len(f.outputs) > 0 {
				out, f.outputs = f.outputs[0], f.outputs[1:]
			}
			return &scriptedProcess{output: strings.NewReader(out)}
		},
		PlatformFlags: []string{},
	})
}

func (f *fakePeer) resolveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolves
}

// scriptedPrompter answers prompts from fixed values and records them.
type scriptedPrompter struct {
	confirm  bool
	choice   int
	chooseOK bool

	confirms []string
	choices  [][]string
	alerts   []string
}

func (p *scriptedPrompter) Confirm(_, message string) bool {
	p.confirms = append(p.confirms, message)
	return p.confirm
}

func (p *scriptedPrompter) Choose(_, _ string, options []string) (int, bool) {
	p.choices = append(p.choices, options)
	return p.choice, p.chooseOK
}

func (p *scriptedPrompter) Alert(_, message string) {
	p.alerts = append(p.alerts, message)
}

// fakeLocal is an in-process dialog returning fixed paths.
type fakeLocal struct {
	paths []string
	err   error
	calls int
	modes []types.Mode
}

func (l *fakeLocal) Select(_ context.Context, req *ipc.Request) ([]string, error) {
	l.calls++
	l.modes = append(l.modes, req.Mode)
	return l.paths, l.err
}

func startLoop(t *testing.T) *modal.Loop {
	t.Helper()
	loop := modal.NewLoop()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(context.Background())
	}()
	t.Cleanup(func() {
		loop.Quit()
		<-done
	})
	return loop
}

func onUI(t *testing.T, loop *modal.Loop, fn func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()
	if err := loop.Call(ctx, fn); err != nil {
		t.Fatalf("Call failed: %v", err)
	}
}

type harness struct {
	loop     *modal.Loop
	peer     *fakePeer
	prompter *scriptedPrompter
	local    *fakeLocal
	latch    *Latch
	errs     []error
	c        *metrics.Collector
	picker   *Picker
}

func newHarness(t *testing.T, outputs ...string) *harness {
	t.Helper()
	h := &harness{
		loop:     startLoop(t),
		peer:     &fakePeer{outputs: outputs},
		prompter: &scriptedPrompter{},
		local:    &fakeLocal{},
		latch:    &Latch{},
		c:        metrics.NewCollector("test", "fake"),
	}
	picker, err := NewPicker(Config{
		Host:      h.loop,
		Launcher:  h.peer.launcher(),
		Local:     h.local,
		Prompter:  h.prompter,
		OnError:   func(err error) { h.errs = append(h.errs, err) },
		Latch:     h.latch,
		Collector: h.c,
	})
	if err != nil {
		t.Fatalf("NewPicker failed: %v", err)
	}
	h.picker = picker
	return h
}

func (h *harness) save(t *testing.T, opts Options) (string, bool) {
	t.Helper()
	var path string
	var ok bool
	onUI(t, h.loop, func() { path, ok = h.picker.SaveFile(t.Context(), opts) })
	return path, ok
}

func (h *harness) open(t *testing.T, opts Options) (string, bool) {
	t.Helper()
	var path string
	var ok bool
	onUI(t, h.loop, func() { path, ok = h.picker.OpenFile(t.Context(), opts) })
	return path, ok
}

var imageFilters = []*filter.Filter{filter.MustNew("Images", "png", "jpg")}

func TestSaveFile_ExtensionRepair(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{
			name:   "missing extension gains the suggested one",
			output: "STATUS: suggest extension: png\nRESULT: " + filepath.Join(dir, "photo") + "\nEXIT\n",
			want:   filepath.Join(dir, "photo.png"),
		},
		{
			name:   "matching extension is kept",
			output: "RESULT: " + filepath.Join(dir, "photo.jpg") + "\nEXIT\n",
			want:   filepath.Join(dir, "photo.jpg"),
		},
		{
			name:   "matching extension ignores a stray suggestion",
			output: "STATUS: suggest extension: png\nRESULT: " + filepath.Join(dir, "photo.JPG") + "\nEXIT\n",
			want:   filepath.Join(dir, "photo.JPG"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.output)
			got, ok := h.save(t, Options{Filters: imageFilters})
			if !ok || got != tt.want {
				t.Errorf("SaveFile() = (%q, %v), want (%q, true)", got, ok, tt.want)
			}
			if len(h.prompter.choices) != 0 {
				t.Errorf("unexpected choice prompt %v", h.prompter.choices)
			}
		})
	}
}

func TestSaveFile_RepairChoice(t *testing.T) {
	dir := t.TempDir()
	output := "STATUS: suggest extension: png\nRESULT: " + filepath.Join(dir, "photo.bar") + "\nEXIT\n"

	h := newHarness(t, output, output)
	h.prompter.choice, h.prompter.chooseOK = 1, true
	got, ok := h.save(t, Options{Filters: imageFilters})
	if !ok || got != filepath.Join(dir, "photo.bar.png") {
		t.Errorf("SaveFile() = (%q, %v), want double extension", got, ok)
	}
	if want := []string{"photo.png", "photo.bar.png"}; !slices.Equal(h.prompter.choices[0], want) {
		t.Errorf("choices = %v, want %v", h.prompter.choices[0], want)
	}

	h.prompter.chooseOK = false
	if got, ok := h.save(t, Options{Filters: imageFilters}); ok {
		t.Errorf("canceled repair returned %q", got)
	}
}

func TestSaveFile_Overwrite(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(existing, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	plain := "RESULT: " + existing + "\nEXIT\n"
	checked := "STATUS: checked overwrite\nRESULT: " + existing + "\nEXIT\n"

	h := newHarness(t, plain, plain, checked)

	h.prompter.confirm = false
	if got, ok := h.save(t, Options{Filters: imageFilters}); ok {
		t.Errorf("declined overwrite returned %q", got)
	}

	h.prompter.confirm = true
	if got, ok := h.save(t, Options{Filters: imageFilters}); !ok || got != existing {
		t.Errorf("confirmed overwrite = (%q, %v)", got, ok)
	}
	if len(h.prompter.confirms) != 2 {
		t.Fatalf("confirms = %d, want 2", len(h.prompter.confirms))
	}

	if got, ok := h.save(t, Options{Filters: imageFilters}); !ok || got != existing {
		t.Errorf("peer-checked overwrite = (%q, %v)", got, ok)
	}
	if len(h.prompter.confirms) != 2 {
		t.Errorf("confirmed again after peer checked overwrite")
	}
}

func TestSaveFile_DirectoryTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "album.png")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	h := newHarness(t, "RESULT: "+target+"\nEXIT\n")

	if got, ok := h.save(t, Options{Filters: imageFilters}); ok {
		t.Errorf("directory target returned %q", got)
	}
	if len(h.prompter.alerts) != 1 {
		t.Errorf("alerts = %v, want one", h.prompter.alerts)
	}
}

func TestSaveFile_UnwritableTarget(t *testing.T) {
	tests := []struct {
		name string
		// setup returns the save target.
		setup func(t *testing.T, dir string) string
		// needsAccessCheck marks cases the superuser bypasses.
		needsAccessCheck bool
		alert            string
	}{
		{
			name: "write-protected file",
			setup: func(t *testing.T, dir string) string {
				target := filepath.Join(dir, "locked.png")
				if err := os.WriteFile(target, []byte("x"), 0o444); err != nil {
					t.Fatalf("write: %v", err)
				}
				return target
			},
			alert: "locked.png is write-protected.",
		},
		{
			name: "missing folder",
			setup: func(_ *testing.T, dir string) string {
				return filepath.Join(dir, "missing", "new.png")
			},
			alert: "Cannot create new.png",
		},
		{
			name: "write-protected folder",
			setup: func(t *testing.T, dir string) string {
				sealed := filepath.Join(dir, "sealed")
				if err := os.Mkdir(sealed, 0o555); err != nil {
					t.Fatalf("mkdir: %v", err)
				}
				t.Cleanup(func() { _ = os.Chmod(sealed, 0o755) })
				return filepath.Join(sealed, "new.png")
			},
			needsAccessCheck: true,
			alert:            "Cannot create new.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.needsAccessCheck && (runtime.GOOS == "windows" || os.Geteuid() == 0) {
				t.Skip("folder permissions are not enforced for this user")
			}
			target := tt.setup(t, t.TempDir())
			h := newHarness(t, "RESULT: "+target+"\nEXIT\n")
			h.prompter.confirm = true

			if got, ok := h.save(t, Options{Filters: imageFilters}); ok {
				t.Errorf("save returned %q, want absent", got)
			}
			if len(h.prompter.alerts) != 1 || !strings.HasPrefix(h.prompter.alerts[0], tt.alert) {
				t.Errorf("alerts = %v, want one starting with %q", h.prompter.alerts, tt.alert)
			}
			if len(h.prompter.confirms) != 0 {
				t.Errorf("asked to confirm %v after refusing the target", h.prompter.confirms)
			}
		})
	}
}

func TestOpenFiles_JoinsResultDir(t *testing.T) {
	h := newHarness(t, "RESULT COUNT: 2\nRESULT DIR: /tmp\nRESULT: a.txt\nRESULT: b.txt\nEXIT\n")

	var paths []string
	var ok bool
	onUI(t, h.loop, func() { paths, ok = h.picker.OpenFiles(t.Context(), Options{}) })
	want := []string{filepath.Join("/tmp", "a.txt"), filepath.Join("/tmp", "b.txt")}
	if !ok || !slices.Equal(paths, want) {
		t.Errorf("OpenFiles() = (%v, %v), want %v", paths, ok, want)
	}
	if !slices.Contains(h.peer.lastArgs, "openfiles") {
		t.Errorf("peer args %v missing mode keyword", h.peer.lastArgs)
	}
}

func TestOpenFile_Canceled(t *testing.T) {
	h := newHarness(t, "CANCELED\nEXIT\n")
	if got, ok := h.open(t, Options{}); ok {
		t.Errorf("canceled dialog returned %q", got)
	}
	if h.local.calls != 0 {
		t.Error("cancellation fell back to the local dialog")
	}
	if len(h.errs) != 0 {
		t.Errorf("cancellation reported errors %v", h.errs)
	}
	if got := h.c.Snapshot().SessionsCanceled; got != 1 {
		t.Errorf("SessionsCanceled = %d, want 1", got)
	}
}

func TestFallback_NeverStartedTripsLatch(t *testing.T) {
	h := newHarness(t)
	h.peer.resolveErr = errors.New("no peer installed")
	h.local.paths = []string{"/home/u/local.txt"}

	for i := range 2 {
		got, ok := h.open(t, Options{})
		if !ok || got != "/home/u/local.txt" {
			t.Fatalf("call %d: OpenFile() = (%q, %v)", i, got, ok)
		}
	}
	if got := h.peer.resolveCount(); got != 1 {
		t.Errorf("peer resolved %d times, want 1", got)
	}
	if h.latch.Tripped() == nil {
		t.Error("latch not tripped")
	}
	if len(h.errs) != 1 {
		t.Fatalf("errors reported = %v, want one", h.errs)
	}
	sErr, ok := peer.AsSessionError(h.errs[0])
	if !ok || sErr.Kind != peer.KindInstallationFailed {
		t.Errorf("reported error = %v, want installation_failed", h.errs[0])
	}
	snap := h.c.Snapshot()
	if snap.FallbacksServed != 2 || snap.FallbackLatchTrip != 1 {
		t.Errorf("FallbacksServed = %d, FallbackLatchTrip = %d", snap.FallbacksServed, snap.FallbackLatchTrip)
	}
}

func TestFallback_CrashRetriesPeer(t *testing.T) {
	h := newHarness(t, "panic: boom\n", "RESULT: /home/u/peer.txt\nEXIT\n")
	h.local.paths = []string{"/home/u/local.txt"}

	if got, ok := h.open(t, Options{}); !ok || got != "/home/u/local.txt" {
		t.Errorf("crashed call = (%q, %v), want local result", got, ok)
	}
	if h.latch.Tripped() != nil {
		t.Error("crash tripped the latch")
	}
	if len(h.errs) != 1 || !errors.Is(h.errs[0], types.ErrPeerCrashed) {
		t.Errorf("errors reported = %v, want one crash", h.errs)
	}

	if got, ok := h.open(t, Options{}); !ok || got != "/home/u/peer.txt" {
		t.Errorf("second call = (%q, %v), want peer result", got, ok)
	}
	if h.peer.resolveCount() != 2 {
		t.Errorf("peer resolved %d times, want 2", h.peer.resolveCount())
	}
}

func TestLocalOnly_SaveRepairsExtension(t *testing.T) {
	dir := t.TempDir()
	local := &fakeLocal{paths: []string{filepath.Join(dir, "notes")}}
	prompter := &scriptedPrompter{}
	picker, err := NewPicker(Config{Local: local, Prompter: prompter, Latch: &Latch{}})
	if err != nil {
		t.Fatalf("NewPicker failed: %v", err)
	}

	text := filter.MustNew("Text", "txt")
	got, ok := picker.SaveFile(t.Context(), Options{Filters: []*filter.Filter{filter.Any, text}})
	if !ok || got != filepath.Join(dir, "notes") {
		t.Errorf("wildcard save = (%q, %v), want name unchanged", got, ok)
	}

	got, ok = picker.SaveFile(t.Context(), Options{Filters: []*filter.Filter{text}})
	if !ok || got != filepath.Join(dir, "notes.txt") {
		t.Errorf("SaveFile() = (%q, %v), want notes.txt", got, ok)
	}
	if !slices.Equal(local.modes, []types.Mode{types.ModeSave, types.ModeSave}) {
		t.Errorf("local modes = %v", local.modes)
	}
}

func TestPickDirectory_IgnoresFilters(t *testing.T) {
	local := &fakeLocal{paths: []string{"/srv/data"}}
	picker, err := NewPicker(Config{Local: local, Prompter: &scriptedPrompter{}, Latch: &Latch{}})
	if err != nil {
		t.Fatalf("NewPicker failed: %v", err)
	}
	got, ok := picker.PickDirectory(t.Context(), Options{Filters: imageFilters})
	if !ok || got != "/srv/data" {
		t.Errorf("PickDirectory() = (%q, %v)", got, ok)
	}
}

func TestNewPicker_Validation(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"no prompter", Config{Local: &fakeLocal{}}},
		{"launcher without host", Config{Launcher: (&fakePeer{}).launcher(), Prompter: &scriptedPrompter{}}},
		{"nothing to show", Config{Prompter: &scriptedPrompter{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPicker(tt.config); !errors.Is(err, types.ErrInvalidArgument) {
				t.Errorf("NewPicker error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestLatch_TripOnce(t *testing.T) {
	l := &Latch{}
	first := errors.New("first")
	if !l.Trip(first) {
		t.Error("first Trip returned false")
	}
	if l.Trip(errors.New("second")) {
		t.Error("second Trip returned true")
	}
	if l.Tripped() != first {
		t.Errorf("Tripped() = %v, want first reason", l.Tripped())
	}
}
