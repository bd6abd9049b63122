package metrics

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// psLayout names the columns requested from ps, in order, before args.
type psLayout []string

var (
	linuxPsLayout  = psLayout{"pid", "ppid", "nlwp", "rss", "pcpu", "pmem", "etimes", "time", "stat", "user"}
	darwinPsLayout = psLayout{"pid", "ppid", "rss", "pcpu", "pmem", "etime", "time", "stat", "user"}
)

// parsePs converts ps rows. Everything after the fixed columns is the
// command line; the process name is taken from its first word.
func parsePs(s string, layout psLayout, now time.Time) []ProcessInfo {
	var out []ProcessInfo
	for _, line := range strings.Split(s, "\n") {
		fields := strings.Fields(line)
		if len(fields) <= len(layout) {
			continue
		}
		var p ProcessInfo
		ok := true
		for i, col := range layout {
			v := fields[i]
			switch col {
			case "pid":
				n, err := strconv.ParseInt(v, 10, 32)
				ok = err == nil
				p.PID = int32(n)
			case "ppid":
				n, _ := strconv.ParseInt(v, 10, 32)
				p.PPID = int32(n)
			case "nlwp":
				n, _ := strconv.ParseInt(v, 10, 32)
				p.NumThreads = int32(n)
			case "rss":
				n, _ := strconv.ParseUint(v, 10, 64)
				p.MemRSS = n * 1024
			case "pcpu":
				p.CPUPercent, _ = strconv.ParseFloat(v, 64)
			case "pmem":
				p.MemPercent, _ = strconv.ParseFloat(v, 64)
			case "etimes":
				n, _ := strconv.ParseInt(v, 10, 64)
				p.CreateTime = now.Add(-time.Duration(n) * time.Second)
			case "etime":
				p.CreateTime = now.Add(-time.Duration(parseClock(v) * float64(time.Second)))
			case "time":
				p.CPUTime = parseClock(v)
			case "stat":
				p.Status = v[:1]
			case "user":
				p.Username = v
			}
			if !ok {
				break
			}
		}
		if !ok {
			continue
		}
		args := fields[len(layout):]
		p.Cmdline = strings.Join(args, " ")
		p.Name = processName(args[0])
		out = append(out, p)
	}
	return out
}

// processName strips kernel-thread brackets and directories.
func processName(arg0 string) string {
	if strings.HasPrefix(arg0, "[") {
		return strings.Trim(arg0, "[]")
	}
	return filepath.Base(arg0)
}

// parseClock reads ps time columns: [[dd-]hh:]mm:ss with optional
// fractional seconds. It returns seconds.
func parseClock(s string) float64 {
	var days float64
	if d, rest, ok := strings.Cut(s, "-"); ok {
		n, err := strconv.ParseFloat(d, 64)
		if err != nil {
			return 0
		}
		days, s = n, rest
	}
	var secs float64
	for _, part := range strings.Split(s, ":") {
		n, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0
		}
		secs = secs*60 + n
	}
	return days*86400 + secs
}
