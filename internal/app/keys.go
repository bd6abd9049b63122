package app

import (
	"strings"
	"unicode/utf8"

	"github.com/rileyhilliard/sysmon/internal/config"
	"github.com/rileyhilliard/sysmon/internal/input"
	"github.com/rileyhilliard/sysmon/internal/layout"
	"github.com/rileyhilliard/sysmon/internal/metrics"
)

const (
	minUpdateMS  = 100
	updateMSStep = 100
)

// processKeys handles every queued event.
func (u *UI) processKeys() {
	for !u.quitting {
		ev, ok := u.reader.Next()
		if !ok {
			return
		}
		if ev.Key == keyWake {
			continue
		}
		if u.proc.Filtering() {
			u.filterKey(ev)
			continue
		}
		u.handleKey(ev)
		if u.next != nil {
			u.runMenu()
		}
	}
}

// filterKey edits the process filter. Every change re-collects the list.
func (u *UI) filterKey(ev input.Event) {
	filter := u.proc.Filter()
	switch ev.Key {
	case input.KeyEnter, input.KeyEscape:
		u.proc.SetFiltering(false)
		u.drawProc()
		return
	case input.KeyBackspace:
		if filter == "" {
			return
		}
		_, size := utf8.DecodeLastRuneInString(filter)
		filter = filter[:len(filter)-size]
	case input.KeySpace:
		filter += " "
	default:
		if utf8.RuneCountInString(ev.Key) != 1 {
			return
		}
		filter += ev.Key
	}
	u.proc.SetFilter(filter)
	u.collectProc(true)
}

// handleKey runs the action bound to one key.
func (u *UI) handleKey(ev input.Event) {
	l := u.engine.Layout()
	procShown := l.Visible(layout.Proc)

	switch ev.Key {
	case "q", input.KeyCtrlC:
		u.quitting = true
	case input.KeyEscape, "m", "M":
		u.next = &mainMenu{}
	case "o", "O", "f2":
		u.next = newOptionsMenu(u)
	case "h", "H", "f1":
		u.next = &helpMenu{}
	case "+":
		u.changeInterval(u.cfg.UpdateMS + updateMSStep)
	case "-":
		u.changeInterval(u.cfg.UpdateMS - updateMSStep)
	case "1", "2", "3", "4":
		u.toggleBox(config.AllBoxes[ev.Key[0]-'1'])
	case input.KeyCtrlZ:
		u.suspendNow()

	case "g":
		u.cfg.MemGraphs = !u.cfg.MemGraphs
		u.layoutChanged()
	case "s":
		u.cfg.ShowSwap = !u.cfg.ShowSwap
		u.layoutChanged()
	case "d":
		u.cfg.ShowDisks = !u.cfg.ShowDisks
		u.layoutChanged()

	case "n":
		u.net.Switch(1)
		u.collectNet(true)
	case "b":
		u.net.Switch(-1)
		u.collectNet(true)
	case "a":
		u.cfg.NetAuto = !u.cfg.NetAuto
		u.applyConfig()
		u.collectNet(true)
	case "y":
		u.cfg.NetSync = !u.cfg.NetSync
		u.applyConfig()
		u.collectNet(true)
	case "z":
		u.net.ToggleReset()
		u.collectNet(true)

	default:
		if procShown {
			u.procKey(ev)
		}
	}
}

// procKey handles keys that act on the process list.
func (u *UI) procKey(ev input.Event) {
	switch ev.Key {
	case input.KeyLeft, input.KeyRight:
		u.cycleSorting(ev.Key == input.KeyRight)
		u.collectProc(true)
	case "r":
		u.cfg.ProcReversed = !u.cfg.ProcReversed
		u.applyConfig()
		u.collectProc(true)
	case "e":
		u.cfg.ProcTree = !u.cfg.ProcTree
		u.applyConfig()
		u.collectProc(true)
	case "c":
		u.cfg.ProcPerCore = !u.cfg.ProcPerCore
		u.applyConfig()
		u.collectProc(true)
	case input.KeySpace:
		if u.cfg.ProcTree && u.proc.ToggleCollapse() {
			u.collectProc(true)
		}
	case "f":
		u.proc.SetFiltering(true)
		u.drawProc()
	case input.KeyDelete:
		if u.proc.Filter() != "" {
			u.proc.SetFilter("")
			u.collectProc(true)
		}
	case input.KeyEnter:
		if u.proc.ToggleDetail() {
			u.collectProc(true)
		}
	case input.KeyUp, input.KeyDown, input.KeyPageUp, input.KeyPageDown,
		input.KeyHome, input.KeyEnd, input.KeyMouseScrollUp, input.KeyMouseScrollDown:
		if u.proc.Select(ev.Key) {
			u.drawProc()
		}
	case "t", "T":
		u.signalTarget(metrics.SignalTerm)
	case "k", "K":
		u.signalTarget(metrics.SignalKill)
	case "i", "I":
		u.signalTarget(metrics.SignalInt)
	case input.KeyMouseClick:
		l := u.engine.Layout()
		b := l.Box(layout.Proc)
		inside := ev.X >= b.X && ev.X < b.X+b.Width && ev.Y >= b.Y && ev.Y < b.Y+b.Height
		if inside && u.proc.Click(ev.X, ev.Y) {
			u.drawProc()
		} else if !inside && u.proc.Select("mouse_unselect") {
			u.drawProc()
		}
	}
}

// cycleSorting moves proc_sorting one step through SortKeys, wrapping.
func (u *UI) cycleSorting(forward bool) {
	i := u.cfg.SortIndex()
	if i < 0 {
		i = 0
	}
	n := len(config.SortKeys)
	if forward {
		i = (i + 1) % n
	} else {
		i = (i - 1 + n) % n
	}
	u.cfg.ProcSorting = config.SortKeys[i]
	u.applyConfig()
}

// toggleBox shows or hides a panel. The last visible panel stays.
func (u *UI) toggleBox(name string) {
	if u.cfg.BoxShown(name) && len(u.cfg.ShownBoxes) == 1 {
		return
	}
	u.cfg.ToggleBox(name)
	u.applyConfig()
	u.resizer.SetVisible(layout.ParsePanels(u.cfg.ShownBoxes))
	u.relayout(true)
}

// layoutChanged applies a setting that moves panel internals.
func (u *UI) layoutChanged() {
	u.applyConfig()
	u.relayout(true)
}

func (u *UI) signalTarget(sig metrics.Signal) {
	pid := u.proc.Target()
	if pid == 0 {
		return
	}
	u.next = &signalMenu{pid: pid, name: u.targetName(pid), sig: sig}
}

func (u *UI) targetName(pid int32) string {
	for _, r := range u.proc.Rows() {
		if r.PID == pid {
			return strings.TrimSpace(r.Name)
		}
	}
	if d, ok := u.proc.Detailed(); ok && d.PID == pid {
		return d.Name
	}
	return ""
}
