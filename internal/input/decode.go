package input

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Event is one decoded key or mouse action. X and Y are set for mouse events.
type Event struct {
	Key string
	X   int
	Y   int
}

// Key names produced by the decoder besides literal characters.
const (
	KeyEscape          = "escape"
	KeyEnter           = "enter"
	KeyBackspace       = "backspace"
	KeyTab             = "tab"
	KeyShiftTab        = "shift_tab"
	KeySpace           = "space"
	KeyUp              = "up"
	KeyDown            = "down"
	KeyLeft            = "left"
	KeyRight           = "right"
	KeyInsert          = "insert"
	KeyDelete          = "delete"
	KeyHome            = "home"
	KeyEnd             = "end"
	KeyPageUp          = "page_up"
	KeyPageDown        = "page_down"
	KeyCtrlC           = "ctrl_c"
	KeyCtrlZ           = "ctrl_z"
	KeyMouseClick      = "mouse_click"
	KeyMouseRelease    = "mouse_release"
	KeyMouseScrollUp   = "mouse_scroll_up"
	KeyMouseScrollDown = "mouse_scroll_down"
)

// escapeTable maps sequences following ESC to key names. Entries are
// matched as prefixes, in order.
var escapeTable = []struct {
	seq string
	key string
}{
	{"[A", KeyUp}, {"OA", KeyUp},
	{"[B", KeyDown}, {"OB", KeyDown},
	{"[D", KeyLeft}, {"OD", KeyLeft},
	{"[C", KeyRight}, {"OC", KeyRight},
	{"[2~", KeyInsert},
	{"[3~", KeyDelete},
	{"[H", KeyHome}, {"[1~", KeyHome},
	{"[F", KeyEnd}, {"[4~", KeyEnd},
	{"[5~", KeyPageUp},
	{"[6~", KeyPageDown},
	{"[Z", KeyShiftTab},
	{"OP", "f1"}, {"OQ", "f2"}, {"OR", "f3"}, {"OS", "f4"},
	{"[15", "f5"}, {"[17", "f6"}, {"[18", "f7"}, {"[19", "f8"},
	{"[20", "f9"}, {"[21", "f10"}, {"[23", "f11"}, {"[24", "f12"},
}

const mousePrefix = "[<"

// decoded is the result of classifying one input sequence.
type decoded struct {
	event Event
	// move is a pointer motion report: position only, nothing to queue.
	move bool
	ok   bool
}

// decode classifies one sequence: a lone byte, a UTF-8 character, or ESC
// followed by its continuation.
func decode(seq string) decoded {
	if seq == "" {
		return decoded{}
	}
	if seq[0] == 0x1b {
		rest := seq[1:]
		if rest == "" {
			return key(KeyEscape)
		}
		if strings.HasPrefix(rest, mousePrefix) {
			return decodeMouse(rest[len(mousePrefix):])
		}
		for _, e := range escapeTable {
			if strings.HasPrefix(rest, e.seq) {
				return key(e.key)
			}
		}
		return decoded{}
	}

	switch seq {
	case "\r", "\n":
		return key(KeyEnter)
	case "\x7f", "\x08":
		return key(KeyBackspace)
	case "\t":
		return key(KeyTab)
	case " ":
		return key(KeySpace)
	case "\x03":
		return key(KeyCtrlC)
	case "\x1a":
		return key(KeyCtrlZ)
	}

	r, size := utf8.DecodeRuneInString(seq)
	if r == utf8.RuneError || size != len(seq) || r < 0x20 || r == 0x7f {
		return decoded{}
	}
	return key(seq)
}

func key(k string) decoded {
	return decoded{event: Event{Key: k}, ok: true}
}

// decodeMouse parses the SGR body "b;x;y" plus its M or m terminator.
func decodeMouse(body string) decoded {
	if body == "" {
		return decoded{}
	}
	final := body[len(body)-1]
	if final != 'M' && final != 'm' {
		return decoded{}
	}
	parts := strings.Split(body[:len(body)-1], ";")
	if len(parts) != 3 {
		return decoded{}
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return decoded{}
		}
		nums[i] = n
	}
	ev := Event{X: nums[1], Y: nums[2]}
	switch {
	case nums[0] == 0 && final == 'M':
		ev.Key = KeyMouseClick
	case nums[0] == 0 && final == 'm':
		ev.Key = KeyMouseRelease
	case nums[0] == 64:
		ev.Key = KeyMouseScrollUp
	case nums[0] == 65:
		ev.Key = KeyMouseScrollDown
	case nums[0] == 32 || nums[0] == 35:
		return decoded{event: ev, move: true, ok: true}
	default:
		return decoded{}
	}
	return decoded{event: ev, ok: true}
}

// split breaks raw input into sequences: each ESC starts a new one, and
// bytes outside escape sequences are one character each.
func split(raw string) []string {
	var out []string
	for len(raw) > 0 {
		if raw[0] == 0x1b {
			end := strings.IndexByte(raw[1:], 0x1b)
			if end < 0 {
				out = append(out, raw)
				break
			}
			out = append(out, raw[:end+1])
			raw = raw[end+1:]
			continue
		}
		_, size := utf8.DecodeRuneInString(raw)
		out = append(out, raw[:size])
		raw = raw[size:]
	}
	return out
}
