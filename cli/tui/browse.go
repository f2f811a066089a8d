package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/justapithecus/peerdialog/filter"
	"github.com/justapithecus/peerdialog/types"
	"github.com/justapithecus/peerdialog/widget"
)

// maxSuggestions caps the completions offered for one directory.
const maxSuggestions = 200

func stderr() io.Writer { return os.Stderr }

// BrowseModel is a path-entry dialog. Tab accepts the highlighted
// completion; in multi-select mode each accepted path is collected until
// enter is pressed on an empty line or a directory.
type BrowseModel struct {
	mode     types.Mode
	title    string
	filters  []*filter.Filter
	input    textinput.Model
	picked   []string
	err      string
	done     bool
	canceled bool
}

// NewBrowseModel creates a path-entry dialog for mode, starting at opts.
func NewBrowseModel(mode types.Mode, opts widget.Options) BrowseModel {
	ti := textinput.New()
	ti.Prompt = "path: "
	ti.Placeholder = "type a path, tab completes"
	ti.ShowSuggestions = true
	ti.Width = 60
	ti.Focus()

	start := opts.Dir
	if start != "" && !strings.HasSuffix(start, string(filepath.Separator)) {
		start += string(filepath.Separator)
	}
	ti.SetValue(start + opts.Name)
	ti.CursorEnd()

	m := BrowseModel{
		mode:    mode,
		title:   opts.Title,
		filters: opts.Filters,
		input:   ti,
	}
	m.refreshSuggestions()
	return m
}

// Init implements tea.Model.
func (m BrowseModel) Init() tea.Cmd { return textinput.Blink }

// Update implements tea.Model.
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case km.String() == "esc" || km.String() == "ctrl+c":
			m.canceled = true
			return m, tea.Quit
		case key.Matches(km, keys.Accept):
			return m.accept()
		}
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.err = ""
		m.refreshSuggestions()
	}
	return m, cmd
}

func (m BrowseModel) accept() (tea.Model, tea.Cmd) {
	path := expandHome(strings.TrimSpace(m.input.Value()))

	if m.mode == types.ModeOpenMany && (path == "" || isDir(path)) {
		if len(m.picked) == 0 {
			m.err = "enter at least one file"
			return m, nil
		}
		m.done = true
		return m, tea.Quit
	}
	if err := m.validate(path); err != nil {
		m.err = err.Error()
		return m, nil
	}

	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	if m.mode == types.ModeOpenMany {
		m.picked = append(m.picked, path)
		m.input.SetValue(filepath.Dir(path) + string(filepath.Separator))
		m.input.CursorEnd()
		m.refreshSuggestions()
		return m, nil
	}
	m.picked = []string{path}
	m.done = true
	return m, tea.Quit
}

func (m BrowseModel) validate(path string) error {
	if path == "" {
		return errors.New("enter a path")
	}
	info, statErr := os.Stat(path)
	switch m.mode {
	case types.ModePickDirectory:
		if statErr != nil || !info.IsDir() {
			return fmt.Errorf("%s is not a directory", path)
		}
	case types.ModeSave:
		if statErr == nil && info.IsDir() {
			return fmt.Errorf("%s is a directory", path)
		}
	default:
		if statErr != nil {
			return fmt.Errorf("%s does not exist", path)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", path)
		}
		if len(m.filters) > 0 && !filter.MatchesAny(m.filters, path) {
			return fmt.Errorf("%s matches none of the filters", filepath.Base(path))
		}
	}
	return nil
}

// refreshSuggestions lists the entries of the directory being typed in.
func (m *BrowseModel) refreshSuggestions() {
	value := expandHome(m.input.Value())
	dir := value
	if !strings.HasSuffix(value, string(filepath.Separator)) {
		dir = filepath.Dir(value)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		m.input.SetSuggestions(nil)
		return
	}

	var out []string
	for _, e := range entries {
		if len(out) == maxSuggestions {
			break
		}
		p := filepath.Join(dir, e.Name())
		switch {
		case e.IsDir():
			p += string(filepath.Separator)
		case m.mode == types.ModePickDirectory:
			continue
		case len(m.filters) > 0 && m.mode != types.ModeSave && !filter.MatchesAny(m.filters, p):
			continue
		}
		out = append(out, p)
	}
	sort.Strings(out)
	m.input.SetSuggestions(out)
}

// View implements tea.Model.
func (m BrowseModel) View() string {
	if m.done || m.canceled {
		return ""
	}
	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.title))
	b.WriteString("\n")
	if len(m.filters) > 0 {
		descs := make([]string, len(m.filters))
		for i, f := range m.filters {
			descs[i] = f.Description()
		}
		b.WriteString(LabelStyle.Render("filters:") + " " + ValueStyle.Render(strings.Join(descs, ", ")))
		b.WriteString("\n")
	}
	for _, p := range m.picked {
		b.WriteString(SuccessStyle.Render("+ " + p))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render(m.err))
	}

	help := "tab completes, enter accepts, esc cancels"
	if m.mode == types.ModeOpenMany {
		help = "tab completes, enter adds a file, enter on a directory finishes, esc cancels"
	}
	return BoxStyle.Render(b.String()) + "\n" + HelpStyle.Render(help) + "\n"
}

// Selection returns the accepted paths, or nil if the user canceled.
func (m BrowseModel) Selection() []string {
	if m.canceled || !m.done {
		return nil
	}
	return m.picked
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// Widget is a terminal dialog toolkit. It never checks overwrites itself.
type Widget struct {
	In  io.Reader
	Out io.Writer
}

var _ widget.Widget = (*Widget)(nil)

// Name implements widget.Widget.
func (w *Widget) Name() string { return "terminal" }

// ChecksOverwrite implements widget.Widget.
func (w *Widget) ChecksOverwrite() bool { return false }

// Show implements widget.Widget.
func (w *Widget) Show(ctx context.Context, mode types.Mode, opts widget.Options) (*widget.Result, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: invalid mode %s", types.ErrInvalidArgument, mode)
	}
	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if w.In != nil {
		progOpts = append(progOpts, tea.WithInput(w.In))
	}
	if w.Out != nil {
		progOpts = append(progOpts, tea.WithOutput(w.Out))
	} else {
		progOpts = append(progOpts, tea.WithOutput(stderr()))
	}

	final, err := tea.NewProgram(NewBrowseModel(mode, opts), progOpts...).Run()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	paths := final.(BrowseModel).Selection()
	if len(paths) == 0 {
		return nil, nil
	}
	return &widget.Result{Paths: paths, FilterIndex: -1}, nil
}
