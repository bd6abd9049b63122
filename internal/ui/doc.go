// Package ui renders sysmon's command line output outside the monitor
// itself: the doctor report, tables, the theme preview, the connect
// spinner and the interactive pickers.
//
// Colors are ANSI codes so output follows the terminal's own palette:
//
//	ColorSuccess (green)  - passing checks, healthy values
//	ColorError   (red)    - failures
//	ColorWarning (yellow) - warnings
//	ColorAccent  (cyan)   - titles and highlights
//	ColorMuted   (gray)   - secondary text, timings
//
// Pickers run as small Bubble Tea programs and return nil when the user
// cancels.
package ui
