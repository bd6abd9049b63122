// Package layout computes panel geometry from the terminal size and the set
// of visible panels, draws the static frames, and runs the resize state
// machine.
package layout

import "strings"

// PanelID identifies one of the four panels.
type PanelID int

const (
	CPU PanelID = iota
	Mem
	Net
	Proc
	numPanels
)

// AllPanels lists panels in calculation order.
var AllPanels = []PanelID{CPU, Mem, Net, Proc}

var panelNames = [numPanels]string{"cpu", "mem", "net", "proc"}

func (p PanelID) String() string {
	if p < 0 || p >= numPanels {
		return "unknown"
	}
	return panelNames[p]
}

// Num is the panel's toggle key number, 1-4.
func (p PanelID) Num() int { return int(p) + 1 }

// ParsePanel maps a config box name to a PanelID.
func ParsePanel(name string) (PanelID, bool) {
	for i, n := range panelNames {
		if strings.EqualFold(name, n) {
			return PanelID(i), true
		}
	}
	return 0, false
}

// ParsePanels converts config box names, skipping unknown ones.
func ParsePanels(names []string) []PanelID {
	var out []PanelID
	seen := [numPanels]bool{}
	for _, n := range names {
		if id, ok := ParsePanel(n); ok && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Box is the rectangle of one panel in 1-based terminal cells.
type Box struct {
	ID      PanelID
	Name    string
	Visible bool
	X, Y    int
	Width   int
	Height  int
	WidthP  int
	HeightP int
	MinW    int
	MinH    int
	// Resized is set by every size calculation; panels clear it when they
	// have rebuilt their graphs.
	Resized bool
}

// CPUGeometry places the per-core sub-box inside the CPU panel.
type CPUGeometry struct {
	BoxX, BoxY  int
	BoxWidth    int
	BoxHeight   int
	BoxColumns  int
	ColumnSize  int
	GraphWidth  int
	GraphHeight int
}

// MemGeometry splits the memory panel between memory items and disks.
type MemGeometry struct {
	MemWidth    int
	DisksWidth  int
	Divider     int
	MemSize     int
	MemMeter    int
	GraphHeight int
	DiskMeter   int
}

// NetGeometry places the stats sub-box and the two graphs.
type NetGeometry struct {
	BoxX, BoxY   int
	BoxWidth     int
	BoxHeight    int
	GraphWidth   int
	GraphHeight  int
	GraphHeight2 int
}

// ProcGeometry is the process list area.
type ProcGeometry struct {
	SelectMax int
}

// Layout is one full calculation result.
type Layout struct {
	Cols, Lines int
	Boxes       [numPanels]Box
	CPU         CPUGeometry
	Mem         MemGeometry
	Net         NetGeometry
	Proc        ProcGeometry
}

// Box returns the box for id.
func (l *Layout) Box(id PanelID) *Box {
	return &l.Boxes[id]
}

// Visible reports whether id is shown.
func (l *Layout) Visible(id PanelID) bool {
	return id >= 0 && id < numPanels && l.Boxes[id].Visible
}

// VisibleIDs lists the shown panels in order.
func (l *Layout) VisibleIDs() []PanelID {
	var out []PanelID
	for _, id := range AllPanels {
		if l.Boxes[id].Visible {
			out = append(out, id)
		}
	}
	return out
}
