package metrics

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseTop reads total CPU usage and load averages from `top -l 1 -n 0`.
func parseTop(topOutput string) (float64, [3]float64) {
	var usage float64
	var load [3]float64
	for _, line := range strings.Split(topOutput, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "CPU usage:"):
			// CPU usage: 5.26% user, 10.52% sys, 84.21% idle
			for _, part := range strings.Split(line, ",") {
				if !strings.Contains(part, "idle") {
					continue
				}
				fields := strings.Fields(part)
				if idle, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], "%"), 64); err == nil {
					usage = 100 - idle
				}
			}
		case strings.HasPrefix(line, "Load Avg:"):
			_, values, _ := strings.Cut(line, ":")
			parts := strings.Split(values, ",")
			for i := 0; i < 3 && i < len(parts); i++ {
				load[i], _ = strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
			}
		}
	}
	return usage, load
}

// parseSysctl reads "key: value" lines.
func parseSysctl(s string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(s, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out
}

// parseBoottime reads kern.boottime, "{ sec = 1700000000, usec = 0 } ...",
// and returns the uptime at now.
func parseBoottime(v string, now time.Time) time.Duration {
	_, rest, ok := strings.Cut(v, "sec =")
	if !ok {
		return 0
	}
	rest = strings.TrimSpace(rest)
	if i := strings.IndexAny(rest, ", }"); i >= 0 {
		rest = rest[:i]
	}
	sec, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || sec <= 0 {
		return 0
	}
	return now.Sub(time.Unix(sec, 0))
}

// parseSwapUsage reads vm.swapusage, "total = 2048.00M  used = 1024.50M  free = 1023.50M".
func parseSwapUsage(v string) SwapSample {
	var swap SwapSample
	fields := strings.Fields(v)
	for i := 0; i+2 < len(fields); i++ {
		if fields[i+1] != "=" {
			continue
		}
		size := parseSizeSuffix(fields[i+2])
		switch fields[i] {
		case "total":
			swap.Total = size
		case "used":
			swap.Used = size
		case "free":
			swap.Free = size
		}
	}
	return swap
}

// parseSizeSuffix reads sizes like "2048.00M".
func parseSizeSuffix(s string) uint64 {
	if s == "" {
		return 0
	}
	mult := 1.0
	switch s[len(s)-1] {
	case 'K':
		mult = 1 << 10
	case 'M':
		mult = 1 << 20
	case 'G':
		mult = 1 << 30
	case 'T':
		mult = 1 << 40
	}
	if mult != 1 {
		s = s[:len(s)-1]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return uint64(f * mult)
}

// parseVMStat reads vm_stat page counts. total comes from hw.memsize since
// vm_stat does not report it.
func parseVMStat(vmStatOutput string, total uint64) (MemorySample, error) {
	pageSize := uint64(16384)
	pages := make(map[string]uint64)
	scanner := bufio.NewScanner(strings.NewReader(vmStatOutput))
	for scanner.Scan() {
		line := scanner.Text()
		if _, rest, ok := strings.Cut(line, "page size of"); ok {
			if fields := strings.Fields(rest); len(fields) > 0 {
				if size, err := strconv.ParseUint(fields[0], 10, 64); err == nil {
					pageSize = size
				}
			}
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimSpace(value), "."), 10, 64)
		if err != nil {
			continue
		}
		pages[strings.TrimSpace(key)] = n
	}
	if err := scanner.Err(); err != nil {
		return MemorySample{}, fmt.Errorf("error scanning vm_stat output: %w", err)
	}
	if len(pages) == 0 {
		return MemorySample{}, fmt.Errorf("no page counts in vm_stat output")
	}

	available := (pages["Pages free"] + pages["Pages inactive"] + pages["Pages purgeable"] + pages["Pages speculative"]) * pageSize
	if total == 0 {
		used := pages["Pages active"] + pages["Pages wired down"] + pages["Pages occupied by compressor"]
		total = used*pageSize + available
	}
	if available > total {
		available = total
	}
	return MemorySample{
		Total:     total,
		Available: available,
		Free:      pages["Pages free"] * pageSize,
		Cached:    pages["File-backed pages"] * pageSize,
		Used:      total - available,
	}, nil
}

// parseNetstat reads link-level rows of `netstat -ib`.
func parseNetstat(netstatOutput string) (map[string]NetSample, []string) {
	out := make(map[string]NetSample)
	var names []string
	headerSkipped := false
	for _, line := range strings.Split(netstatOutput, "\n") {
		if !headerSkipped {
			headerSkipped = strings.HasPrefix(line, "Name")
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 8 {
			continue
		}
		name := fields[0]
		if _, seen := out[name]; seen || !strings.HasPrefix(fields[2], "<Link#") {
			continue
		}
		// Numeric columns after the name: mtu ipkts ierrs ibytes opkts oerrs obytes coll.
		var nums []uint64
		for _, f := range fields[1:] {
			if v, err := strconv.ParseUint(f, 10, 64); err == nil {
				nums = append(nums, v)
			}
		}
		if len(nums) < 7 {
			continue
		}
		out[name] = NetSample{BytesRecv: nums[3], BytesSent: nums[6]}
		names = append(names, name)
	}
	return out, names
}

// parseIfconfigUp reads the space separated names from `ifconfig -lu`.
func parseIfconfigUp(s string) map[string]bool {
	out := make(map[string]bool)
	for _, name := range strings.Fields(s) {
		out[name] = true
	}
	return out
}
