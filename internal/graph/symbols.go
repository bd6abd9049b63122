package graph

// Glyph tables are indexed [left][right] with fill levels 0-4.
var (
	graphUp = [5][5]string{
		{" ", "⢀", "⢠", "⢰", "⢸"},
		{"⡀", "⣀", "⣠", "⣰", "⣸"},
		{"⡄", "⣄", "⣤", "⣴", "⣼"},
		{"⡆", "⣆", "⣦", "⣶", "⣾"},
		{"⡇", "⣇", "⣧", "⣷", "⣿"},
	}

	graphDown = [5][5]string{
		{" ", "⠈", "⠘", "⠸", "⢸"},
		{"⠁", "⠉", "⠙", "⠹", "⢹"},
		{"⠃", "⠋", "⠛", "⠻", "⢻"},
		{"⠇", "⠏", "⠟", "⠿", "⢿"},
		{"⡇", "⡏", "⡟", "⡿", "⣿"},
	}

	graphUpSmall   = withZero(graphUp, cursorRight1)
	graphDownSmall = withZero(graphDown, cursorRight1)
)

// cursorRight1 replaces the blank glyph in single-row graphs so empty cells
// don't paint over the background.
const cursorRight1 = "\033[1C"

// MeterGlyph is the cell used by meters.
const MeterGlyph = "■"

func withZero(t [5][5]string, zero string) [5][5]string {
	t[0][0] = zero
	return t
}

// Glyph returns the upward braille glyph for a left/right fill pair.
func Glyph(left, right int) string {
	return graphUp[clampLevel(left)][clampLevel(right)]
}

func clampLevel(v int) int {
	if v < 0 {
		return 0
	}
	if v > 4 {
		return 4
	}
	return v
}
