package metrics

import "strings"

// Platform is the operating system of a remote host.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformDarwin  Platform = "darwin"
	PlatformUnknown Platform = "unknown"
)

// OutputSeparator splits the sections of a batched command's output.
const OutputSeparator = "--sysmon--"

// Linux sections, in output order.
const (
	linuxStat = iota
	linuxLoadavg
	linuxUptime
	linuxCPUInfo
	linuxMeminfo
	linuxDf
	linuxDiskstats
	linuxNetDev
	linuxOperstate
	linuxThermal
	linuxPs
	linuxSections
)

// Darwin sections, in output order.
const (
	darwinTop = iota
	darwinSysctl
	darwinVMStat
	darwinDf
	darwinNetstat
	darwinIfconfig
	darwinPs
	darwinSections
)

var linuxCommands = [linuxSections]string{
	"cat /proc/stat",
	"cat /proc/loadavg",
	"cat /proc/uptime",
	"grep -E '^(model name|cpu MHz)' /proc/cpuinfo",
	"cat /proc/meminfo",
	"df -kPT 2>/dev/null",
	"cat /proc/diskstats 2>/dev/null",
	"cat /proc/net/dev",
	`for f in /sys/class/net/*/operstate; do n=${f%/operstate}; echo "${n##*/} $(cat $f)"; done 2>/dev/null`,
	"cat /sys/class/thermal/thermal_zone*/temp 2>/dev/null || true",
	"ps -eo pid=,ppid=,nlwp=,rss=,pcpu=,pmem=,etimes=,time=,stat=,user:32=,args= 2>/dev/null",
}

var darwinCommands = [darwinSections]string{
	"top -l 1 -n 0 2>/dev/null",
	"sysctl hw.ncpu hw.memsize hw.cpufrequency machdep.cpu.brand_string kern.boottime vm.swapusage 2>/dev/null",
	"vm_stat",
	"df -kP 2>/dev/null",
	"netstat -ib",
	"ifconfig -lu",
	"ps -axo pid=,ppid=,rss=,pcpu=,pmem=,etime=,time=,stat=,user=,args= 2>/dev/null",
}

// BuildMetricsCommand joins every section command for platform into one
// shell line so a full sample costs a single SSH exec. Unknown platforms
// get the Linux command.
func BuildMetricsCommand(platform Platform) string {
	cmds := linuxCommands[:]
	if platform == PlatformDarwin {
		cmds = darwinCommands[:]
	}
	return strings.Join(cmds, `; echo "`+OutputSeparator+`"; `)
}

// PlatformDetectCommand prints the kernel name.
func PlatformDetectCommand() string {
	return "uname -s"
}

// ParsePlatform converts uname output to a Platform.
func ParsePlatform(uname string) Platform {
	switch strings.TrimSpace(uname) {
	case "Linux":
		return PlatformLinux
	case "Darwin":
		return PlatformDarwin
	default:
		return PlatformUnknown
	}
}

// splitSections cuts batched output into n sections, padding missing ones
// with empty strings.
func splitSections(output string, n int) []string {
	parts := strings.Split(output, OutputSeparator+"\n")
	out := make([]string, n)
	for i := 0; i < n && i < len(parts); i++ {
		out[i] = strings.TrimSpace(parts[i])
	}
	return out
}
