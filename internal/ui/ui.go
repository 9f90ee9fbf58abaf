// Package ui provides the interactive pickers used by the CLI. Remote data is
// rendered as plain text only; nothing is passed to a shell.
package ui

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ErrCancelled is returned when the user leaves a picker without choosing.
var ErrCancelled = errors.New("selection cancelled")

var (
	accent      = lipgloss.AdaptiveColor{Light: "#5A3FC0", Dark: "#B8A4FF"}
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(accent).Padding(0, 1)
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle   = lipgloss.NewStyle().Faint(true)
)

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Item is one selectable row.
type Item struct {
	Label  string
	Detail string
	index  int
}

func (i Item) Title() string       { return i.Label }
func (i Item) Description() string { return i.Detail }
func (i Item) FilterValue() string { return i.Label }

// selectModel wraps a bubbles list and records the chosen row.
type selectModel struct {
	list   list.Model
	chosen int
	done   bool
}

func newSelectModel(prompt string, items []Item) selectModel {
	rows := make([]list.Item, len(items))
	for i, it := range items {
		it.index = i
		rows[i] = it
	}
	l := list.New(rows, list.NewDefaultDelegate(), 0, 0)
	l.Title = prompt
	l.Styles.Title = titleStyle
	l.SetShowStatusBar(len(items) > 1)
	return selectModel{list: l, chosen: -1}
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if it, ok := m.list.SelectedItem().(Item); ok {
				m.chosen = it.index
			}
			m.done = true
			return m, tea.Quit
		case "esc", "ctrl+c":
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m selectModel) View() string {
	if m.done {
		return ""
	}
	return m.list.View()
}

// Select presents items and returns the index of the chosen one.
func Select(prompt string, items []Item) (int, error) {
	if len(items) == 0 {
		return -1, fmt.Errorf("no items to select from")
	}

	final, err := tea.NewProgram(newSelectModel(prompt, items), tea.WithAltScreen(), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return -1, fmt.Errorf("running picker: %w", err)
	}
	m, ok := final.(selectModel)
	if !ok || m.chosen < 0 {
		return -1, ErrCancelled
	}
	return m.chosen, nil
}

// Confirm asks the user a yes/no question.
func Confirm(prompt string) (bool, error) {
	idx, err := Select(prompt, []Item{{Label: "Yes"}, {Label: "No"}})
	if err != nil {
		return false, err
	}
	return idx == 0, nil
}

// inputModel is a single-line text prompt.
type inputModel struct {
	prompt    string
	input     textinput.Model
	submitted bool
	done      bool
}

func newInputModel(prompt, placeholder string) inputModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.PromptStyle = promptStyle
	ti.Focus()
	return inputModel{prompt: prompt, input: ti}
}

func (m inputModel) Init() tea.Cmd { return textinput.Blink }

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.submitted = true
			m.done = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s\n%s\n%s\n", promptStyle.Render(m.prompt), m.input.View(), hintStyle.Render("enter to confirm, esc to cancel"))
}

// Input prompts the user for free-text input.
func Input(prompt, placeholder string) (string, error) {
	final, err := tea.NewProgram(newInputModel(prompt, placeholder), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return "", fmt.Errorf("running prompt: %w", err)
	}
	m, ok := final.(inputModel)
	if !ok || !m.submitted {
		return "", ErrCancelled
	}
	if m.input.Value() == "" {
		return "", fmt.Errorf("no input provided")
	}
	return m.input.Value(), nil
}
