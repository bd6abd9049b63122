package config

import "strings"

// CurrentConfigVersion is the schema version for the config file.
const CurrentConfigVersion = 1

// Box names accepted in shown_boxes.
const (
	BoxCPU  = "cpu"
	BoxMem  = "mem"
	BoxNet  = "net"
	BoxProc = "proc"
)

// AllBoxes is the fixed box order used by the layout engine.
var AllBoxes = []string{BoxCPU, BoxMem, BoxNet, BoxProc}

// SortKeys are the process sort options, in the order left/right cycles them.
var SortKeys = []string{"pid", "program", "arguments", "threads", "user", "memory", "cpu lazy", "cpu responsive"}

// ColorModes are the supported output color modes.
var ColorModes = []string{"truecolor", "256", "greyscale"}

// Config represents the complete sysmon.yaml configuration file.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// Appearance
	ColorTheme      string   `yaml:"color_theme" mapstructure:"color_theme"`
	ColorMode       string   `yaml:"color_mode" mapstructure:"color_mode"`
	ThemeBackground bool     `yaml:"theme_background" mapstructure:"theme_background"`
	DrawClock       string   `yaml:"draw_clock" mapstructure:"draw_clock"`
	ShownBoxes      []string `yaml:"shown_boxes" mapstructure:"shown_boxes"`

	// Timing
	UpdateMS         int  `yaml:"update_ms" mapstructure:"update_ms"`
	ProcUpdateMult   int  `yaml:"proc_update_mult" mapstructure:"proc_update_mult"`
	BackgroundUpdate bool `yaml:"background_update" mapstructure:"background_update"`

	// Processes
	ProcSorting          string `yaml:"proc_sorting" mapstructure:"proc_sorting"`
	ProcReversed         bool   `yaml:"proc_reversed" mapstructure:"proc_reversed"`
	ProcTree             bool   `yaml:"proc_tree" mapstructure:"proc_tree"`
	TreeDepth            int    `yaml:"tree_depth" mapstructure:"tree_depth"`
	ProcColors           bool   `yaml:"proc_colors" mapstructure:"proc_colors"`
	ProcGradient         bool   `yaml:"proc_gradient" mapstructure:"proc_gradient"`
	ProcPerCore          bool   `yaml:"proc_per_core" mapstructure:"proc_per_core"`
	ProcMemBytes         bool   `yaml:"proc_mem_bytes" mapstructure:"proc_mem_bytes"`
	ProcFilterIgnoreCase bool   `yaml:"proc_filter_ignore_case" mapstructure:"proc_filter_ignore_case"`

	// CPU
	CheckTemp     bool   `yaml:"check_temp" mapstructure:"check_temp"`
	CustomCPUName string `yaml:"custom_cpu_name" mapstructure:"custom_cpu_name"`

	// Memory and disks
	MemGraphs   bool   `yaml:"mem_graphs" mapstructure:"mem_graphs"`
	ShowSwap    bool   `yaml:"show_swap" mapstructure:"show_swap"`
	SwapDisk    bool   `yaml:"swap_disk" mapstructure:"swap_disk"`
	ShowDisks   bool   `yaml:"show_disks" mapstructure:"show_disks"`
	DisksFilter string `yaml:"disks_filter" mapstructure:"disks_filter"`

	// Network
	NetDownload string `yaml:"net_download" mapstructure:"net_download"`
	NetUpload   string `yaml:"net_upload" mapstructure:"net_upload"`
	NetAuto     bool   `yaml:"net_auto" mapstructure:"net_auto"`
	NetSync     bool   `yaml:"net_sync" mapstructure:"net_sync"`
	NetIface    string `yaml:"net_iface" mapstructure:"net_iface"`

	LogLevel   string `yaml:"log_level" mapstructure:"log_level"`
	RemoteHost string `yaml:"remote_host" mapstructure:"remote_host"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:          CurrentConfigVersion,
		ColorTheme:       "Default",
		ColorMode:        "truecolor",
		ThemeBackground:  true,
		DrawClock:        "15:04:05",
		ShownBoxes:       []string{BoxCPU, BoxMem, BoxNet, BoxProc},
		UpdateMS:         2500,
		ProcUpdateMult:   2,
		BackgroundUpdate: true,
		ProcSorting:      "cpu lazy",
		TreeDepth:        3,
		ProcColors:       true,
		ProcGradient:     true,
		ProcMemBytes:     true,
		CheckTemp:        true,
		MemGraphs:        true,
		SwapDisk:         true,
		ShowDisks:        true,
		NetDownload:      "10M",
		NetUpload:        "10M",
		NetAuto:          true,
		LogLevel:         "WARNING",
	}
}

// BoxShown reports whether the named box is in shown_boxes.
func (c *Config) BoxShown(name string) bool {
	for _, b := range c.ShownBoxes {
		if b == name {
			return true
		}
	}
	return false
}

// ToggleBox adds or removes name from shown_boxes, keeping AllBoxes order.
func (c *Config) ToggleBox(name string) {
	shown := make(map[string]bool, len(c.ShownBoxes))
	for _, b := range c.ShownBoxes {
		shown[b] = true
	}
	shown[name] = !shown[name]

	c.ShownBoxes = c.ShownBoxes[:0]
	for _, b := range AllBoxes {
		if shown[b] {
			c.ShownBoxes = append(c.ShownBoxes, b)
		}
	}
}

// SortIndex returns the position of proc_sorting in SortKeys, or -1.
func (c *Config) SortIndex() int {
	for i, k := range SortKeys {
		if k == c.ProcSorting {
			return i
		}
	}
	return -1
}

// normalize lowercases enum-like values and drops duplicate boxes.
func (c *Config) normalize() {
	c.ProcSorting = strings.ToLower(strings.TrimSpace(c.ProcSorting))
	c.ColorMode = strings.ToLower(strings.TrimSpace(c.ColorMode))
	c.LogLevel = strings.ToUpper(strings.TrimSpace(c.LogLevel))

	seen := make(map[string]bool)
	boxes := make([]string, 0, len(c.ShownBoxes))
	for _, entry := range c.ShownBoxes {
		// "cpu mem net" is accepted as a single entry
		for _, f := range strings.Fields(entry) {
			b := strings.ToLower(f)
			if seen[b] {
				continue
			}
			seen[b] = true
			boxes = append(boxes, b)
		}
	}
	c.ShownBoxes = boxes
}
