package app

import (
	"io"
	"os"

	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/input"
	"github.com/rileyhilliard/sysmon/internal/term"
)

// Terminal is the screen the UI draws on and reads keys from.
type Terminal interface {
	io.Writer
	Size() (cols, lines int, err error)
	// Enter switches to the alternate screen with raw input, a hidden
	// cursor and mouse reporting.
	Enter() error
	// Leave undoes Enter. Calling it when not entered is a no-op.
	Leave() error
	Source() input.Source
}

// TTY is the Terminal backed by the process's stdin and stdout.
type TTY struct {
	in    *os.File
	out   *os.File
	title string

	raw     *term.RawGuard
	entered bool
}

// NewTTY returns a terminal over in and out. title is shown in the window
// title while the UI runs.
func NewTTY(in, out *os.File, title string) *TTY {
	return &TTY{in: in, out: out, title: title}
}

func (t *TTY) Write(p []byte) (int, error) {
	return t.out.Write(p)
}

func (t *TTY) Size() (int, int, error) {
	return term.Size(int(t.out.Fd()))
}

func (t *TTY) Source() input.Source {
	return input.NewTTY(int(t.in.Fd()))
}

func (t *TTY) Enter() error {
	if t.entered {
		return nil
	}
	if !term.IsTerminal(int(t.in.Fd())) || !term.IsTerminal(int(t.out.Fd())) {
		return errors.New(errors.ErrTerminal,
			"sysmon needs an interactive terminal",
			"Run it directly in a terminal, not through a pipe or redirect")
	}
	raw, err := term.MakeRaw(int(t.in.Fd()))
	if err != nil {
		return err
	}
	t.raw = raw
	t.entered = true

	_, err = io.WriteString(t.out, term.AltScreen+term.Clear+term.HideCursor+term.MouseOn+term.Title(t.title))
	if err != nil {
		_ = t.Leave()
		return errors.WrapWithCode(err, errors.ErrTerminal, "Couldn't write to the terminal", "")
	}
	return nil
}

func (t *TTY) Leave() error {
	if !t.entered {
		return nil
	}
	t.entered = false
	_, werr := io.WriteString(t.out, term.MouseOff+term.MouseDirectOff+term.Reset+term.Clear+term.NormalScreen+term.ShowCursor+term.Title(""))
	if err := t.raw.Restore(); err != nil {
		return err
	}
	return werr
}
