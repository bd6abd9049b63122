package collector

import (
	"context"
	"strings"

	"github.com/rileyhilliard/sysmon/internal/metrics"
)

// treeBuilder arranges processes by parent. Siblings keep the sort order of
// procs. Nodes deeper than maxDepth start collapsed; a collapsed node shows
// the summed threads, memory and cpu of its subtree.
type treeBuilder struct {
	procs     []metrics.ProcessInfo
	match     matcher
	cpuOf     func(*metrics.ProcessInfo) float64
	collapsed map[int32]bool
	maxDepth  int
	ctx       context.Context

	// decided holds collapse states chosen for nodes seen the first time.
	decided  map[int32]bool
	info     map[int32]*metrics.ProcessInfo
	children map[int32][]int32
	rows     []Row
	index    map[int32]int
}

// treeRoot is the pseudo parent of processes whose parent is not listed.
const treeRoot int32 = 0

func (t *treeBuilder) build() []Row {
	t.decided = make(map[int32]bool)
	t.info = make(map[int32]*metrics.ProcessInfo, len(t.procs))
	t.children = make(map[int32][]int32)
	t.index = make(map[int32]int)
	for i := range t.procs {
		t.info[t.procs[i].PID] = &t.procs[i]
	}
	for i := range t.procs {
		pr := &t.procs[i]
		parent := pr.PPID
		if _, ok := t.info[parent]; !ok || parent == pr.PID {
			parent = treeRoot
		}
		if pr.PID == treeRoot {
			continue
		}
		t.children[parent] = append(t.children[parent], pr.PID)
	}
	t.walk(treeRoot, "", " ", false, 0, 0)
	return t.rows
}

func (t *treeBuilder) interrupted() bool {
	return t.ctx != nil && t.ctx.Err() != nil
}

// walk visits pid and its children. collapseTo is the collapsed ancestor
// that absorbs this subtree, zero when none.
func (t *treeBuilder) walk(pid int32, indent, inindent string, found bool, depth int, collapseTo int32) {
	if t.interrupted() {
		return
	}
	pr, ok := t.info[pid]
	show := ok
	if ok && pr.Name == "idle" {
		return
	}

	if ok && t.match.active() && !found {
		if t.match.matchProcess(pr) {
			found = true
		} else {
			show = false
		}
	}

	collapse := false
	if show {
		if v, seen := t.collapsed[pid]; seen {
			collapse = v
		} else if v, seen := t.decided[pid]; seen {
			collapse = v
		} else {
			collapse = depth > t.maxDepth
			t.decided[pid] = collapse
		}

		cpu := t.cpuOf(pr)
		if collapseTo != 0 && !t.match.active() {
			if i, ok := t.index[collapseTo]; ok {
				r := &t.rows[i]
				r.Threads += int(pr.NumThreads)
				r.Mem += pr.MemPercent
				r.MemBytes += pr.MemRSS
				r.CPU += cpu
			}
		} else {
			if len(t.children[pid]) > 0 {
				sign := "-"
				if collapse {
					sign = "+"
				}
				inindent = strings.NewReplacer(" ├─ ", "["+sign+"]─", " └─ ", "["+sign+"]─").Replace(inindent)
			}
			t.index[pid] = len(t.rows)
			t.rows = append(t.rows, Row{
				PID:      pid,
				Indent:   inindent,
				Name:     pr.Name,
				Cmd:      cleanCmd(pr.Cmdline, pr.Name),
				Threads:  int(pr.NumThreads),
				User:     pr.Username,
				Mem:      pr.MemPercent,
				MemBytes: pr.MemRSS,
				CPU:      cpu,
				Depth:    depth,
			})
		}
	}

	if t.match.active() {
		collapse = false
	} else if collapse && collapseTo == 0 {
		collapseTo = pid
	}

	kids := t.children[pid]
	for i, child := range kids {
		if i == len(kids)-1 {
			t.walk(child, indent+"  ", indent+" └─ ", found, depth+1, collapseTo)
		} else {
			t.walk(child, indent+" │ ", indent+" ├─ ", found, depth+1, collapseTo)
		}
	}
}
