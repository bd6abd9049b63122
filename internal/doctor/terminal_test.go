package doctor

import (
	"errors"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"github.com/rileyhilliard/sysmon/internal/layout"
)

func TestTerminalCheck_NotATerminal(t *testing.T) {
	r := (&TerminalCheck{In: -1, Out: -1}).Run()
	assert.Equal(t, StatusFail, r.Status)
}

func TestTerminalSizeCheck(t *testing.T) {
	minW, minH := layout.MinSize(layout.AllPanels)

	tests := []struct {
		name        string
		cols, lines int
		err         error
		want        CheckStatus
	}{
		{"big enough", minW + 20, minH + 10, nil, StatusPass},
		{"exact minimum", minW, minH, nil, StatusPass},
		{"too narrow", minW - 1, minH, nil, StatusWarn},
		{"too short", minW, minH - 1, nil, StatusWarn},
		{"unknown", 0, 0, errors.New("not a tty"), StatusWarn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &TerminalSizeCheck{
				Visible: layout.AllPanels,
				Size:    func() (int, int, error) { return tt.cols, tt.lines, tt.err },
			}
			assert.Equal(t, tt.want, c.Run().Status)
		})
	}
}

func TestColorCheck(t *testing.T) {
	tests := []struct {
		mode    string
		profile termenv.Profile
		want    CheckStatus
	}{
		{"truecolor", termenv.TrueColor, StatusPass},
		{"truecolor", termenv.ANSI256, StatusWarn},
		{"256", termenv.ANSI256, StatusPass},
		{"256", termenv.Ascii, StatusWarn},
		{"greyscale", termenv.Ascii, StatusPass},
	}
	for _, tt := range tests {
		t.Run(tt.mode+"/"+profileName(tt.profile), func(t *testing.T) {
			c := &ColorCheck{Mode: tt.mode, Profile: func() termenv.Profile { return tt.profile }}
			assert.Equal(t, tt.want, c.Run().Status)
		})
	}
}
