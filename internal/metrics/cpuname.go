package metrics

import "strings"

// Removed in order; "Intel " only matches once "(R)" is gone.
var cpuNameNoise = []string{"Processor ", "CPU ", "(R)", "(TM)", "Intel "}

// CleanCPUName shortens a vendor model string to the part worth showing,
// e.g. "AMD Ryzen 7 5800X 8-Core Processor" becomes "Ryzen 7 5800X".
func CleanCPUName(model string) string {
	words := strings.Fields(model)
	name := strings.Join(words, " ")
	index := func(w string) int {
		for i, word := range words {
			if word == w {
				return i
			}
		}
		return -1
	}

	switch {
	case strings.Contains(name, "Xeon") && index("CPU") >= 0 && index("CPU")+1 < len(words):
		name = words[index("CPU")+1]
	case index("Ryzen") >= 0:
		i := index("Ryzen")
		end := i + 3
		if end > len(words) {
			end = len(words)
		}
		name = strings.Join(words[i:end], " ")
	case strings.Contains(name, "Duo") && index("@") >= 0:
		name = strings.Join(words[:index("@")], " ")
	case index("CPU") > 0 && !strings.HasSuffix(name, "CPU"):
		name = words[index("CPU")-1]
	}
	for _, noise := range cpuNameNoise {
		name = strings.ReplaceAll(name, noise, "")
	}
	return strings.TrimSpace(name)
}
