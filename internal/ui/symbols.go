package ui

const (
	SymbolPass    = "✓"
	SymbolFail    = "✗"
	SymbolWarn    = "!"
	SymbolPending = "○"
	SymbolDot     = "●"
)

// Braille wheel for spinners.
var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
