package metrics

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// jiffies is one cpu line of /proc/stat reduced to busy-relevant totals.
type jiffies struct {
	total uint64
	idle  uint64
}

// parseProcStat returns the aggregate cpu line and one entry per core.
func parseProcStat(procStat string) (jiffies, []jiffies, error) {
	var agg jiffies
	var cores []jiffies
	found := false
	scanner := bufio.NewScanner(strings.NewReader(procStat))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "cpu") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			return agg, nil, fmt.Errorf("invalid /proc/stat cpu line: %s", line)
		}
		var j jiffies
		// user nice system idle iowait irq softirq steal; guest time is
		// already counted in user.
		for i := 1; i < len(fields) && i <= 8; i++ {
			v, err := strconv.ParseUint(fields[i], 10, 64)
			if err != nil {
				return agg, nil, fmt.Errorf("failed to parse cpu field %d: %w", i, err)
			}
			j.total += v
			if i == 4 || i == 5 {
				j.idle += v
			}
		}
		if fields[0] == "cpu" {
			agg = j
			found = true
		} else {
			cores = append(cores, j)
		}
	}
	if err := scanner.Err(); err != nil {
		return agg, nil, fmt.Errorf("error scanning /proc/stat: %w", err)
	}
	if !found {
		return agg, nil, fmt.Errorf("no aggregate cpu line in /proc/stat")
	}
	return agg, cores, nil
}

// busyPercent is the busy share between two readings. Without a previous
// reading it is the share since boot.
func busyPercent(now, prev jiffies) float64 {
	if now.total < prev.total || now.idle < prev.idle {
		prev = jiffies{}
	}
	total := now.total - prev.total
	if total == 0 {
		return 0
	}
	idle := now.idle - prev.idle
	if idle > total {
		return 0
	}
	return float64(total-idle) / float64(total) * 100
}

func parseLoadavg(s string) [3]float64 {
	var out [3]float64
	fields := strings.Fields(s)
	for i := 0; i < 3 && i < len(fields); i++ {
		out[i], _ = strconv.ParseFloat(fields[i], 64)
	}
	return out
}

func parseProcUptime(s string) time.Duration {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

// parseCPUInfo returns the first model name and the mean of the MHz lines.
func parseCPUInfo(s string) (model string, mhz float64) {
	var sum float64
	var n int
	for _, line := range strings.Split(s, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		switch key {
		case "model name":
			if model == "" {
				model = value
			}
		case "cpu MHz":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				sum += f
				n++
			}
		}
	}
	if n > 0 {
		mhz = sum / float64(n)
	}
	return model, mhz
}

// parseMeminfo reads memory and swap from /proc/meminfo. Used is total minus
// available, matching the local provider.
func parseMeminfo(s string) (MemorySample, SwapSample, error) {
	values := make(map[string]uint64)
	for _, line := range strings.Split(s, "\n") {
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		v, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			continue
		}
		values[strings.TrimSuffix(parts[0], ":")] = v * 1024
	}
	total, ok := values["MemTotal"]
	if !ok || total == 0 {
		return MemorySample{}, SwapSample{}, fmt.Errorf("MemTotal missing from /proc/meminfo")
	}
	available, ok := values["MemAvailable"]
	if !ok {
		available = values["MemFree"] + values["Buffers"] + values["Cached"]
	}
	if available > total {
		available = total
	}
	mem := MemorySample{
		Total:     total,
		Available: available,
		Free:      values["MemFree"],
		Cached:    values["Cached"] + values["SReclaimable"],
		Used:      total - available,
	}
	swapTotal, swapFree := values["SwapTotal"], values["SwapFree"]
	swap := SwapSample{Total: swapTotal, Free: swapFree}
	if swapTotal >= swapFree {
		swap.Used = swapTotal - swapFree
	}
	return mem, swap, nil
}

// parseDf reads `df -kP` output, or `df -kPT` when typed. Only filesystems
// backed by a device path are kept.
func parseDf(s string, typed bool) []DiskSample {
	var out []DiskSample
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		minFields := 6
		if typed {
			minFields = 7
		}
		if len(fields) < minFields || !strings.HasPrefix(fields[0], "/") {
			continue
		}
		d := DiskSample{Device: fields[0]}
		nums := fields[1:]
		if typed {
			d.Fstype = fields[1]
			nums = fields[2:]
		}
		total, err1 := strconv.ParseUint(nums[0], 10, 64)
		used, err2 := strconv.ParseUint(nums[1], 10, 64)
		free, err3 := strconv.ParseUint(nums[2], 10, 64)
		if err1 != nil || err2 != nil || err3 != nil || total == 0 {
			continue
		}
		d.Total, d.Used, d.Free = total*1024, used*1024, free*1024
		d.Mountpoint = strings.Join(nums[4:], " ")
		out = append(out, d)
	}
	return out
}

// parseDiskstats returns cumulative read and write bytes per device name.
func parseDiskstats(s string) map[string][2]uint64 {
	out := make(map[string][2]uint64)
	for _, line := range strings.Split(s, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 10 {
			continue
		}
		read, err1 := strconv.ParseUint(fields[5], 10, 64)
		written, err2 := strconv.ParseUint(fields[9], 10, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		out[fields[2]] = [2]uint64{read * 512, written * 512}
	}
	return out
}

// parseNetDev returns counters per interface and the interface order.
func parseNetDev(s string) (map[string]NetSample, []string) {
	out := make(map[string]NetSample)
	var names []string
	for i, line := range strings.Split(s, "\n") {
		if i < 2 {
			continue
		}
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) < 16 {
			continue
		}
		in, err1 := strconv.ParseUint(fields[0], 10, 64)
		outBytes, err2 := strconv.ParseUint(fields[8], 10, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		name = strings.TrimSpace(name)
		out[name] = NetSample{BytesRecv: in, BytesSent: outBytes}
		names = append(names, name)
	}
	return out, names
}

// parseOperstate reads "iface state" lines. Loopback reports "unknown",
// which counts as up.
func parseOperstate(s string) map[string]bool {
	out := make(map[string]bool)
	for _, line := range strings.Split(s, "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		out[fields[0]] = fields[1] == "up" || fields[1] == "unknown"
	}
	return out
}

// parseThermal returns the hottest thermal zone in degrees Celsius.
func parseThermal(s string) (float64, bool) {
	var hottest float64
	found := false
	for _, line := range strings.Fields(s) {
		milli, err := strconv.ParseFloat(line, 64)
		if err != nil {
			continue
		}
		if c := milli / 1000; !found || c > hottest {
			hottest = c
			found = true
		}
	}
	return hottest, found
}
