package ui

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/sysmon/internal/errors"
)

// Choice is one entry in a picker.
type Choice struct {
	Value  string // returned on selection
	Label  string // shown; defaults to Value
	Detail string // second line
}

type choiceItem struct {
	choice  Choice
	current bool
}

func (i choiceItem) Title() string {
	label := i.choice.Label
	if label == "" {
		label = i.choice.Value
	}
	if i.current {
		label += " (current)"
	}
	return label
}

func (i choiceItem) Description() string { return i.choice.Detail }

func (i choiceItem) FilterValue() string {
	return strings.Join([]string{i.choice.Value, i.choice.Label, i.choice.Detail}, " ")
}

var pickerKeys = struct {
	Enter key.Binding
	Quit  key.Binding
}{
	Enter: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Quit:  key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q/esc", "cancel")),
}

// PickerModel is a filterable Bubble Tea list that ends on the first
// selection or cancel.
type PickerModel struct {
	list     list.Model
	selected *Choice
	quitting bool
}

// NewPickerModel builds a picker with the cursor on current, if present.
func NewPickerModel(title string, choices []Choice, current string) PickerModel {
	items := make([]list.Item, len(choices))
	cursor := 0
	for i, c := range choices {
		isCurrent := current != "" && c.Value == current
		if isCurrent {
			cursor = i
		}
		items[i] = choiceItem{choice: c, current: isCurrent}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorPrimary).
		BorderForeground(ColorAccent)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorMuted).
		BorderForeground(ColorAccent)

	l := list.New(items, delegate, 80, 15)
	l.Title = title
	l.SetShowStatusBar(len(choices) > 10)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().Foreground(ColorTitle).Bold(true).Padding(0, 0, 1, 0)
	l.Styles.HelpStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	l.Select(cursor)

	return PickerModel{list: l}
}

// Init implements tea.Model.
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, pickerKeys.Enter):
			if item, ok := m.list.SelectedItem().(choiceItem); ok {
				c := item.choice
				m.selected = &c
			}
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, pickerKeys.Quit):
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m PickerModel) View() string {
	if m.quitting {
		return ""
	}
	return m.list.View()
}

// Selected returns the chosen entry, or nil if the picker was cancelled.
func (m PickerModel) Selected() *Choice {
	return m.selected
}

// Pick runs a picker on the terminal and returns the chosen entry, or nil if
// the user cancels.
func Pick(title string, choices []Choice, current string) (*Choice, error) {
	return PickWithIO(title, choices, current, os.Stdout, os.Stdin)
}

// PickWithIO is Pick on the given streams.
func PickWithIO(title string, choices []Choice, current string, out io.Writer, in io.Reader) (*Choice, error) {
	if len(choices) == 0 {
		return nil, errors.New(errors.ErrInput, "Nothing to pick from", "")
	}
	if len(choices) == 1 {
		return &choices[0], nil
	}

	p := tea.NewProgram(NewPickerModel(title, choices, current), tea.WithOutput(out), tea.WithInput(in))
	final, err := p.Run()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTerminal, "Picker failed",
			"Pass the value on the command line instead")
	}
	if m, ok := final.(PickerModel); ok {
		return m.Selected(), nil
	}
	return nil, nil
}
