package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Status colors.
const (
	ColorSuccess lipgloss.Color = "2"
	ColorError   lipgloss.Color = "1"
	ColorWarning lipgloss.Color = "3"
)

// Text colors.
const (
	ColorPrimary lipgloss.Color = "7"
	ColorAccent  lipgloss.Color = "6"
	ColorTitle   lipgloss.Color = "5"
	ColorMuted   lipgloss.Color = "8"
)

// DisableColors switches lipgloss to plain output, for pipes and NO_COLOR.
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
