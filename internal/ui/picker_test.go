package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var themeChoices = []Choice{
	{Value: "Default", Detail: "built in"},
	{Value: "nord", Detail: "themes/nord.theme"},
	{Value: "+mine", Label: "mine", Detail: "user_themes/mine.theme"},
}

func press(m PickerModel, msgs ...tea.KeyMsg) (PickerModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(PickerModel)
	}
	return m, cmd
}

func TestChoiceItem(t *testing.T) {
	item := choiceItem{choice: themeChoices[2], current: true}
	assert.Equal(t, "mine (current)", item.Title())
	assert.Equal(t, "user_themes/mine.theme", item.Description())
	assert.Contains(t, item.FilterValue(), "+mine")

	assert.Equal(t, "nord", choiceItem{choice: themeChoices[1]}.Title())
}

func TestPickerModel(t *testing.T) {
	t.Run("enter picks the current entry", func(t *testing.T) {
		m, cmd := press(NewPickerModel("Pick a theme", themeChoices, "nord"), tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, m.Selected())
		assert.Equal(t, "nord", m.Selected().Value)
		assert.NotNil(t, cmd)
		assert.Empty(t, m.View())
	})

	t.Run("cursor moves before picking", func(t *testing.T) {
		m, _ := press(NewPickerModel("Pick a theme", themeChoices, ""),
			tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, m.Selected())
		assert.Equal(t, "+mine", m.Selected().Value)
	})

	t.Run("escape cancels", func(t *testing.T) {
		m, cmd := press(NewPickerModel("Pick a theme", themeChoices, ""), tea.KeyMsg{Type: tea.KeyEsc})
		assert.Nil(t, m.Selected())
		assert.NotNil(t, cmd)
	})

	t.Run("view lists entries", func(t *testing.T) {
		m := NewPickerModel("Pick a theme", themeChoices, "")
		view := m.View()
		assert.Contains(t, view, "Pick a theme")
		assert.Contains(t, view, "nord")
	})
}

func TestPickWithIO_Shortcuts(t *testing.T) {
	_, err := PickWithIO("x", nil, "", nil, nil)
	assert.Error(t, err)

	c, err := PickWithIO("x", themeChoices[:1], "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Default", c.Value)
}
