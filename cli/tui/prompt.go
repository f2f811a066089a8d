package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// keyMap defines key bindings shared by the prompts.
type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Accept key.Binding
	Yes    key.Binding
	No     key.Binding
	Cancel key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k", "shift+tab"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j", "tab"),
		key.WithHelp("↓", "down"),
	),
	Accept: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "accept"),
	),
	Yes: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "yes"),
	),
	No: key.NewBinding(
		key.WithKeys("n", "N"),
		key.WithHelp("n", "no"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc", "ctrl+c", "q"),
		key.WithHelp("esc", "cancel"),
	),
}

// ConfirmModel asks a yes/no question. Enter accepts the highlighted
// answer, which starts at "no".
type ConfirmModel struct {
	title    string
	message  string
	yes      bool
	answered bool
}

// NewConfirmModel creates a confirm prompt.
func NewConfirmModel(title, message string) ConfirmModel {
	return ConfirmModel{title: title, message: message}
}

// Init implements tea.Model.
func (m ConfirmModel) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(km, keys.Yes):
		m.yes, m.answered = true, true
		return m, tea.Quit
	case key.Matches(km, keys.No), key.Matches(km, keys.Cancel):
		m.yes, m.answered = false, true
		return m, tea.Quit
	case key.Matches(km, keys.Up), key.Matches(km, keys.Down), km.String() == "left", km.String() == "right":
		m.yes = !m.yes
	case key.Matches(km, keys.Accept):
		m.answered = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m ConfirmModel) View() string {
	if m.answered {
		return ""
	}
	yes, no := "  Yes  ", "  No  "
	if m.yes {
		yes = CursorStyle.Render("[ Yes ]")
	} else {
		no = CursorStyle.Render("[ No ]")
	}
	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(WarningStyle.Render(m.message))
	b.WriteString("\n\n")
	b.WriteString(yes + "  " + no)
	return BoxStyle.Render(b.String()) + "\n" + HelpStyle.Render("y/n, or ←/→ and enter") + "\n"
}

// Yes reports the answer.
func (m ConfirmModel) Yes() bool { return m.answered && m.yes }

// ChooseModel offers a list of options.
type ChooseModel struct {
	title    string
	message  string
	options  []string
	cursor   int
	chosen   bool
	canceled bool
}

// NewChooseModel creates a choice prompt.
func NewChooseModel(title, message string, options []string) ChooseModel {
	return ChooseModel{title: title, message: message, options: options}
}

// Init implements tea.Model.
func (m ChooseModel) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m ChooseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(km, keys.Cancel):
		m.canceled = true
		return m, tea.Quit
	case key.Matches(km, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, keys.Down):
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case key.Matches(km, keys.Accept):
		if len(m.options) > 0 {
			m.chosen = true
		} else {
			m.canceled = true
		}
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m ChooseModel) View() string {
	if m.chosen || m.canceled {
		return ""
	}
	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.message)
	b.WriteString("\n\n")
	for i, opt := range m.options {
		if i == m.cursor {
			b.WriteString(CursorStyle.Render("> " + opt))
		} else {
			b.WriteString("  " + ValueStyle.Render(opt))
		}
		b.WriteString("\n")
	}
	return BoxStyle.Render(b.String()) + "\n" + HelpStyle.Render("↑/↓ to move, enter to choose, esc to cancel") + "\n"
}

// Choice returns the chosen index, or false if the user canceled.
func (m ChooseModel) Choice() (int, bool) {
	if !m.chosen {
		return -1, false
	}
	return m.cursor, true
}

// AlertModel shows a message until any key is pressed.
type AlertModel struct {
	title   string
	message string
	done    bool
}

// NewAlertModel creates an alert.
func NewAlertModel(title, message string) AlertModel {
	return AlertModel{title: title, message: message}
}

// Init implements tea.Model.
func (m AlertModel) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m AlertModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m AlertModel) View() string {
	if m.done {
		return ""
	}
	body := TitleStyle.Render(m.title) + "\n" + ErrorStyle.Render(m.message)
	return BoxStyle.Render(body) + "\n" + HelpStyle.Render("press any key") + "\n"
}

// Prompter asks questions on a terminal. The zero value uses the process's
// stdin and stderr.
type Prompter struct {
	In  io.Reader
	Out io.Writer
}

func (p *Prompter) run(m tea.Model) (tea.Model, error) {
	var opts []tea.ProgramOption
	if p.In != nil {
		opts = append(opts, tea.WithInput(p.In))
	}
	if p.Out != nil {
		opts = append(opts, tea.WithOutput(p.Out))
	} else {
		opts = append(opts, tea.WithOutput(stderr()))
	}
	return tea.NewProgram(m, opts...).Run()
}

// Confirm asks a yes/no question. Errors count as "no".
func (p *Prompter) Confirm(title, message string) bool {
	final, err := p.run(NewConfirmModel(title, message))
	if err != nil {
		return false
	}
	return final.(ConfirmModel).Yes()
}

// Choose offers options and returns the chosen index.
func (p *Prompter) Choose(title, message string, options []string) (int, bool) {
	final, err := p.run(NewChooseModel(title, message, options))
	if err != nil {
		return -1, false
	}
	return final.(ChooseModel).Choice()
}

// Alert shows message and waits for a key press. If the terminal cannot
// run the program, the message is written out plainly.
func (p *Prompter) Alert(title, message string) {
	if _, err := p.run(NewAlertModel(title, message)); err != nil {
		out := p.Out
		if out == nil {
			out = stderr()
		}
		fmt.Fprintf(out, "%s: %s\n", title, message)
	}
}
