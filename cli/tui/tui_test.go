package tui

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/justapithecus/peerdialog/filter"
	"github.com/justapithecus/peerdialog/types"
	"github.com/justapithecus/peerdialog/widget"
)

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// feed applies msgs in order and reports whether the model asked to quit.
func feed(m tea.Model, msgs ...tea.Msg) (tea.Model, bool) {
	quit := false
	for _, msg := range msgs {
		var cmd tea.Cmd
		m, cmd = m.Update(msg)
		if cmd != nil {
			if _, ok := cmd().(tea.QuitMsg); ok {
				quit = true
			}
		}
	}
	return m, quit
}

func TestConfirmModel(t *testing.T) {
	tests := []struct {
		name string
		msgs []tea.Msg
		want bool
	}{
		{"y", []tea.Msg{runes("y")}, true},
		{"n", []tea.Msg{runes("n")}, false},
		{"enter defaults to no", []tea.Msg{keyEnter}, false},
		{"toggle then enter", []tea.Msg{keyDown, keyEnter}, true},
		{"esc", []tea.Msg{keyDown, keyEsc}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, quit := feed(NewConfirmModel("Replace", "Replace a.txt?"), tt.msgs...)
			if !quit {
				t.Fatal("expected quit")
			}
			if got := m.(ConfirmModel).Yes(); got != tt.want {
				t.Errorf("Yes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChooseModel(t *testing.T) {
	opts := []string{"photo.png", "photo.bar.png"}

	m, quit := feed(NewChooseModel("Extension", "Pick a name", opts), keyDown, keyDown, keyUp, keyDown, keyEnter)
	if !quit {
		t.Fatal("expected quit")
	}
	if i, ok := m.(ChooseModel).Choice(); !ok || i != 1 {
		t.Errorf("Choice() = %d, %v, want 1, true", i, ok)
	}

	m, _ = feed(NewChooseModel("Extension", "Pick a name", opts), keyEsc)
	if _, ok := m.(ChooseModel).Choice(); ok {
		t.Error("esc should cancel")
	}

	m, _ = feed(NewChooseModel("Extension", "Pick a name", nil), keyEnter)
	if _, ok := m.(ChooseModel).Choice(); ok {
		t.Error("enter with no options should cancel")
	}
}

func TestChooseModel_View(t *testing.T) {
	view := NewChooseModel("Extension", "Pick a name", []string{"a.png", "b.png"}).View()
	if !strings.Contains(view, "> a.png") || !strings.Contains(view, "b.png") {
		t.Errorf("view missing options:\n%s", view)
	}
}

func TestAlertModel(t *testing.T) {
	m, quit := feed(NewAlertModel("Save", "cannot write"), runes("x"))
	if !quit || m.View() != "" {
		t.Errorf("alert should quit on any key and clear its view")
	}
}

func browseDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return dir
}

// enterPath replaces the input and presses enter.
func enterPath(m BrowseModel, path string) (BrowseModel, bool) {
	m.input.SetValue(path)
	next, quit := feed(m, keyEnter)
	return next.(BrowseModel), quit
}

func TestBrowseModel_Validation(t *testing.T) {
	dir := browseDir(t)
	text := []*filter.Filter{filter.MustNew("Text", "txt")}

	tests := []struct {
		name    string
		mode    types.Mode
		filters []*filter.Filter
		path    string
		ok      bool
	}{
		{"open existing", types.ModeOpenOne, text, filepath.Join(dir, "a.txt"), true},
		{"open missing", types.ModeOpenOne, nil, filepath.Join(dir, "missing.txt"), false},
		{"open directory", types.ModeOpenOne, nil, filepath.Join(dir, "sub"), false},
		{"open filtered out", types.ModeOpenOne, text, filepath.Join(dir, "c.png"), false},
		{"save new", types.ModeSave, text, filepath.Join(dir, "new"), true},
		{"save onto directory", types.ModeSave, nil, filepath.Join(dir, "sub"), false},
		{"pick directory", types.ModePickDirectory, nil, filepath.Join(dir, "sub"), true},
		{"pick file as directory", types.ModePickDirectory, nil, filepath.Join(dir, "a.txt"), false},
		{"empty", types.ModeOpenOne, nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewBrowseModel(tt.mode, widget.Options{Title: "Pick", Filters: tt.filters})
			m, quit := enterPath(m, tt.path)
			if quit != tt.ok {
				t.Fatalf("quit = %v, want %v (err %q)", quit, tt.ok, m.err)
			}
			if tt.ok {
				if got := m.Selection(); !slices.Equal(got, []string{tt.path}) {
					t.Errorf("Selection() = %v, want [%s]", got, tt.path)
				}
			} else if m.err == "" {
				t.Error("expected a validation message")
			}
		})
	}
}

func TestBrowseModel_OpenMany(t *testing.T) {
	dir := browseDir(t)
	m := NewBrowseModel(types.ModeOpenMany, widget.Options{Title: "Pick", Dir: dir})

	m, quit := enterPath(m, "")
	if quit || m.err == "" {
		t.Fatal("finishing with nothing picked should be refused")
	}

	m, _ = enterPath(m, filepath.Join(dir, "a.txt"))
	if m.input.Value() != dir+string(filepath.Separator) {
		t.Errorf("input reset to %q, want the file's directory", m.input.Value())
	}
	m, _ = enterPath(m, filepath.Join(dir, "b.txt"))

	next, quit := feed(m, keyEnter)
	if !quit {
		t.Fatal("enter on a directory should finish")
	}
	want := []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}
	if got := next.(BrowseModel).Selection(); !slices.Equal(got, want) {
		t.Errorf("Selection() = %v, want %v", got, want)
	}
}

func TestBrowseModel_Cancel(t *testing.T) {
	m, quit := feed(NewBrowseModel(types.ModeSave, widget.Options{Title: "Save"}), keyEsc)
	if !quit {
		t.Fatal("esc should quit")
	}
	if got := m.(BrowseModel).Selection(); got != nil {
		t.Errorf("Selection() = %v, want nil", got)
	}
}

func TestBrowseModel_Suggestions(t *testing.T) {
	dir := browseDir(t)
	text := []*filter.Filter{filter.MustNew("Text", "txt")}

	m := NewBrowseModel(types.ModeOpenOne, widget.Options{Dir: dir, Filters: text})
	want := []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "sub") + string(filepath.Separator),
	}
	if got := m.input.AvailableSuggestions(); !slices.Equal(got, want) {
		t.Errorf("suggestions = %v, want %v", got, want)
	}

	m = NewBrowseModel(types.ModePickDirectory, widget.Options{Dir: dir})
	if got := m.input.AvailableSuggestions(); len(got) != 1 {
		t.Errorf("pick directory suggestions = %v, want only sub/", got)
	}
}

func TestBrowseModel_StartsAtOptions(t *testing.T) {
	m := NewBrowseModel(types.ModeSave, widget.Options{Dir: "/tmp", Name: "report.csv"})
	if got := m.input.Value(); got != filepath.Join("/tmp", "report.csv") {
		t.Errorf("initial value = %q", got)
	}
}

func TestOutcomeStyle(t *testing.T) {
	if OutcomeStyle("failed").GetForeground() != errorColor {
		t.Error("failed should use the error color")
	}
}
