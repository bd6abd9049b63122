package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProcStat = `cpu  100 0 100 800 0 0 0 0 0 0
cpu0 50 0 50 400 0 0 0 0 0 0
cpu1 50 0 50 400 0 0 0 0 0 0
intr 12345 0 0
ctxt 67890`

const sampleMeminfo = `MemTotal:       16384000 kB
MemFree:         2048000 kB
MemAvailable:    8192000 kB
Buffers:          512000 kB
Cached:          4096000 kB
SReclaimable:     256000 kB
SwapTotal:       2048000 kB
SwapFree:        1024000 kB`

const sampleDfTyped = `Filesystem     Type   1024-blocks     Used Available Capacity Mounted on
/dev/sda1      ext4      41152736 20576368  18462720      53% /
tmpfs          tmpfs      8192000        0   8192000       0% /dev/shm
/dev/sdb1      ext4     103081248     1024  98765432       1% /mnt/my data`

const sampleDiskstats = `   8       0 sda 1500 0 3000 100 800 0 6000 200 0 300 300
   8       1 sda1 1000 0 2000 100 500 0 4000 200 0 300 300`

const sampleNetDev = `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
    lo:    1000      10    0    0    0     0          0         0     1000      10    0    0    0     0       0          0
  eth0:    5000      50    0    0    0     0          0         0     3000      30    0    0    0     0       0          0`

const sampleLinuxPs = `    1     0     1  1024  0.1  0.0  3600 00:00:05 Ss   root     /sbin/init splash
    2     0     1     0  0.0  0.0  3600 00:00:00 S    root     [kthreadd]
  500     1     4 20480 12.5  1.2   120 01:02:03 R+   alice    /usr/bin/python3 -m http.server`

func TestParseProcStat(t *testing.T) {
	agg, cores, err := parseProcStat(sampleProcStat)
	require.NoError(t, err)
	assert.Equal(t, jiffies{total: 1000, idle: 800}, agg)
	require.Len(t, cores, 2)
	assert.Equal(t, jiffies{total: 500, idle: 400}, cores[0])

	_, _, err = parseProcStat("intr 1 2 3")
	assert.Error(t, err)

	_, _, err = parseProcStat("cpu a b c d")
	assert.Error(t, err)
}

func TestBusyPercent(t *testing.T) {
	tests := []struct {
		name string
		now  jiffies
		prev jiffies
		want float64
	}{
		{"since boot", jiffies{total: 1000, idle: 800}, jiffies{}, 20},
		{"interval", jiffies{total: 1600, idle: 1100}, jiffies{total: 1000, idle: 800}, 50},
		{"no progress", jiffies{total: 1000, idle: 800}, jiffies{total: 1000, idle: 800}, 0},
		{"counter reset", jiffies{total: 100, idle: 50}, jiffies{total: 1000, idle: 800}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, busyPercent(tt.now, tt.prev), 0.001)
		})
	}
}

func TestParseLoadavgAndUptime(t *testing.T) {
	assert.Equal(t, [3]float64{0.52, 0.58, 0.59}, parseLoadavg("0.52 0.58 0.59 1/467 12345"))
	assert.Equal(t, [3]float64{}, parseLoadavg(""))
	assert.Equal(t, 12345*time.Second+500*time.Millisecond, parseProcUptime("12345.50 45678.90"))
	assert.Equal(t, time.Duration(0), parseProcUptime("garbage"))
}

func TestParseCPUInfo(t *testing.T) {
	model, mhz := parseCPUInfo("model name\t: Intel(R) Core(TM) i7-8700K CPU @ 3.70GHz\n" +
		"cpu MHz\t\t: 3700.000\n" +
		"model name\t: Intel(R) Core(TM) i7-8700K CPU @ 3.70GHz\n" +
		"cpu MHz\t\t: 3500.000\n")
	assert.Equal(t, "Intel(R) Core(TM) i7-8700K CPU @ 3.70GHz", model)
	assert.InDelta(t, 3600, mhz, 0.001)
}

func TestParseMeminfo(t *testing.T) {
	mem, swap, err := parseMeminfo(sampleMeminfo)
	require.NoError(t, err)
	assert.Equal(t, uint64(16384000*1024), mem.Total)
	assert.Equal(t, uint64(8192000*1024), mem.Available)
	assert.Equal(t, uint64(8192000*1024), mem.Used)
	assert.Equal(t, uint64(4352000*1024), mem.Cached)
	assert.Equal(t, uint64(2048000*1024), mem.Free)
	assert.Equal(t, SwapSample{Total: 2048000 * 1024, Used: 1024000 * 1024, Free: 1024000 * 1024}, swap)

	_, _, err = parseMeminfo("MemFree: 100 kB")
	assert.Error(t, err)
}

func TestParseMeminfo_NoMemAvailable(t *testing.T) {
	mem, _, err := parseMeminfo("MemTotal: 1000 kB\nMemFree: 100 kB\nBuffers: 50 kB\nCached: 250 kB\n")
	require.NoError(t, err)
	assert.Equal(t, uint64(400*1024), mem.Available)
	assert.Equal(t, uint64(600*1024), mem.Used)
}

func TestParseDf(t *testing.T) {
	disks := parseDf(sampleDfTyped, true)
	require.Len(t, disks, 2)
	assert.Equal(t, DiskSample{
		Mountpoint: "/",
		Device:     "/dev/sda1",
		Fstype:     "ext4",
		Total:      41152736 * 1024,
		Used:       20576368 * 1024,
		Free:       18462720 * 1024,
	}, disks[0])
	assert.Equal(t, "/mnt/my data", disks[1].Mountpoint)

	untyped := parseDf("Filesystem 1024-blocks Used Available Capacity Mounted on\n"+
		"/dev/disk3s1s1 482797652 10000000 300000000 4% /\n"+
		"map auto_home 0 0 0 100% /System/Volumes/Data/home", false)
	require.Len(t, untyped, 1)
	assert.Equal(t, "/", untyped[0].Mountpoint)
	assert.Empty(t, untyped[0].Fstype)
}

func TestParseDiskstats(t *testing.T) {
	io := parseDiskstats(sampleDiskstats)
	assert.Equal(t, [2]uint64{2000 * 512, 4000 * 512}, io["sda1"])
	assert.Equal(t, [2]uint64{3000 * 512, 6000 * 512}, io["sda"])
	assert.Len(t, parseDiskstats("short line"), 0)
}

func TestParseNetDev(t *testing.T) {
	counters, names := parseNetDev(sampleNetDev)
	assert.Equal(t, []string{"lo", "eth0"}, names)
	assert.Equal(t, NetSample{BytesRecv: 5000, BytesSent: 3000}, counters["eth0"])
}

func TestParseOperstate(t *testing.T) {
	state := parseOperstate("eth0 up\nlo unknown\nwlan0 down\nbroken")
	assert.Equal(t, map[string]bool{"eth0": true, "lo": true, "wlan0": false}, state)
}

func TestParseThermal(t *testing.T) {
	c, ok := parseThermal("45000\n52000\n")
	assert.True(t, ok)
	assert.InDelta(t, 52, c, 0.001)

	_, ok = parseThermal("")
	assert.False(t, ok)
}

func TestParsePs_Linux(t *testing.T) {
	now := time.Unix(1700000000, 0)
	procs := parsePs(sampleLinuxPs, linuxPsLayout, now)
	require.Len(t, procs, 3)

	assert.Equal(t, ProcessInfo{
		PID:        1,
		PPID:       0,
		Name:       "init",
		Cmdline:    "/sbin/init splash",
		Username:   "root",
		Status:     "S",
		NumThreads: 1,
		MemRSS:     1024 * 1024,
		CPUPercent: 0.1,
		CPUTime:    5,
		CreateTime: now.Add(-time.Hour),
	}, procs[0])
	assert.Equal(t, "kthreadd", procs[1].Name)
	assert.Equal(t, "python3", procs[2].Name)
	assert.Equal(t, "R", procs[2].Status)
	assert.Equal(t, int32(4), procs[2].NumThreads)
	assert.InDelta(t, 3723, procs[2].CPUTime, 0.001)
}

func TestParsePs_DarwinAndBadRows(t *testing.T) {
	now := time.Unix(1700000000, 0)
	procs := parsePs("    1     0  1234   0.0  0.1 10-02:03:04   1:23.45 Ss   root  /sbin/launchd\n"+
		"  abc     0  1234   0.0  0.1 00:01   0:00.01 S    root  /bin/bad\n"+
		"   77     1  12\n", darwinPsLayout, now)
	require.Len(t, procs, 1)
	assert.Equal(t, "launchd", procs[0].Name)
	assert.InDelta(t, 83.45, procs[0].CPUTime, 0.001)
	assert.Equal(t, now.Add(-871384*time.Second), procs[0].CreateTime)
	assert.Zero(t, procs[0].NumThreads)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"05", 5},
		{"01:30", 90},
		{"1:23.45", 83.45},
		{"01:02:03", 3723},
		{"10-02:03:04", 871384},
		{"bad", 0},
		{"x-01:00", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, parseClock(tt.in), 0.001)
		})
	}
}

const sampleTop = `Processes: 400 total, 2 running, 398 sleeping, 2000 threads
Load Avg: 1.23, 2.34, 3.45
CPU usage: 5.26% user, 10.52% sys, 84.22% idle`

const sampleSysctl = `hw.ncpu: 8
hw.memsize: 17179869184
hw.cpufrequency: 3200000000
machdep.cpu.brand_string: Apple M1
kern.boottime: { sec = 1700000000, usec = 0 } Tue Nov 14 22:13:20 2023
vm.swapusage: total = 2048.00M  used = 1024.50M  free = 1023.50M  (encrypted)`

const sampleVMStat = `Mach Virtual Memory Statistics: (page size of 16384 bytes)
Pages free:                               10000.
Pages active:                            200000.
Pages inactive:                          190000.
Pages speculative:                         5000.
Pages wired down:                        100000.
Pages purgeable:                           5000.
File-backed pages:                       150000.
Pages occupied by compressor:             50000.`

const sampleNetstat = `Name       Mtu   Network       Address            Ipkts Ierrs     Ibytes    Opkts Oerrs     Obytes  Coll
lo0        16384 <Link#1>                         100     0      20000      100     0      20000     0
en0        1500  <Link#4>      aa:bb:cc:dd:ee:ff  1234    0    5678901     4321     0    1234567     0
en0        1500  192.168.1     192.168.1.10       1234    -    5678901     4321     -    1234567     -`

func TestParseTop(t *testing.T) {
	usage, load := parseTop(sampleTop)
	assert.InDelta(t, 15.78, usage, 0.001)
	assert.Equal(t, [3]float64{1.23, 2.34, 3.45}, load)
}

func TestParseSysctl(t *testing.T) {
	values := parseSysctl(sampleSysctl)
	assert.Equal(t, "8", values["hw.ncpu"])
	assert.Equal(t, "Apple M1", values["machdep.cpu.brand_string"])

	now := time.Unix(1700003600, 0)
	assert.Equal(t, time.Hour, parseBoottime(values["kern.boottime"], now))
	assert.Equal(t, time.Duration(0), parseBoottime("nonsense", now))

	swap := parseSwapUsage(values["vm.swapusage"])
	assert.Equal(t, uint64(2048<<20), swap.Total)
	assert.Equal(t, uint64(1024.5*(1<<20)), swap.Used)
	assert.Equal(t, uint64(1023.5*(1<<20)), swap.Free)
}

func TestParseSizeSuffix(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"512", 512},
		{"1.00K", 1024},
		{"2.00M", 2 << 20},
		{"1G", 1 << 30},
		{"", 0},
		{"xM", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSizeSuffix(tt.in))
		})
	}
}

func TestParseVMStat(t *testing.T) {
	mem, err := parseVMStat(sampleVMStat, 17179869184)
	require.NoError(t, err)
	available := uint64(210000 * 16384)
	assert.Equal(t, uint64(17179869184), mem.Total)
	assert.Equal(t, available, mem.Available)
	assert.Equal(t, uint64(17179869184)-available, mem.Used)
	assert.Equal(t, uint64(150000*16384), mem.Cached)

	approx, err := parseVMStat(sampleVMStat, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(350000*16384)+available, approx.Total)

	_, err = parseVMStat("nothing here", 0)
	assert.Error(t, err)
}

func TestParseNetstat(t *testing.T) {
	counters, names := parseNetstat(sampleNetstat)
	assert.Equal(t, []string{"lo0", "en0"}, names)
	assert.Equal(t, NetSample{BytesRecv: 5678901, BytesSent: 1234567}, counters["en0"])
	assert.Equal(t, NetSample{BytesRecv: 20000, BytesSent: 20000}, counters["lo0"])
}

func TestParseIfconfigUp(t *testing.T) {
	assert.Equal(t, map[string]bool{"lo0": true, "en0": true}, parseIfconfigUp("lo0 en0\n"))
}
