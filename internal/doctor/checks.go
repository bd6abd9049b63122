// Package doctor runs diagnostic checks for the things sysmon depends on:
// the terminal, the config file, the theme, the metrics sources and, when
// monitoring over SSH, the remote host.
package doctor

import (
	"fmt"

	"github.com/rileyhilliard/sysmon/internal/util"
)

// Category names, in the order reports print them.
const (
	CategoryTerminal = "TERMINAL"
	CategoryConfig   = "CONFIG"
	CategoryTheme    = "THEME"
	CategoryMetrics  = "METRICS"
	CategoryRemote   = "REMOTE"
)

// Categories lists every category in report order.
var Categories = []string{CategoryTerminal, CategoryConfig, CategoryTheme, CategoryMetrics, CategoryRemote}

// CheckStatus is the outcome of one check.
type CheckStatus int

const (
	StatusPass CheckStatus = iota
	StatusWarn
	StatusFail
)

func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// MarshalText lets JSON reports carry the status name.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText reads a status name written by MarshalText.
func (s *CheckStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "pass":
		*s = StatusPass
	case "warn":
		*s = StatusWarn
	case "fail":
		*s = StatusFail
	default:
		return fmt.Errorf("unknown check status %q", b)
	}
	return nil
}

// CheckResult is what a check found.
type CheckResult struct {
	Name       string      `json:"name"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// Check is one diagnostic.
type Check interface {
	Name() string
	// Category is one of the Category constants.
	Category() string
	Run() CheckResult
}

// RunAll runs checks in order. Results line up with checks by index.
func RunAll(checks []Check) []CheckResult {
	results := make([]CheckResult, len(checks))
	for i, check := range checks {
		results[i] = check.Run()
	}
	return results
}

// GroupByCategory returns the indices of checks per category.
func GroupByCategory(checks []Check) map[string][]int {
	grouped := make(map[string][]int)
	for i, check := range checks {
		cat := check.Category()
		grouped[cat] = append(grouped[cat], i)
	}
	return grouped
}

// CountByStatus counts results by status.
func CountByStatus(results []CheckResult) map[CheckStatus]int {
	counts := make(map[CheckStatus]int)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}

// HasFailures reports whether any check failed.
func HasFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.Status == StatusFail {
			return true
		}
	}
	return false
}

// HasIssues reports whether any check warned or failed.
func HasIssues(results []CheckResult) bool {
	for _, r := range results {
		if r.Status != StatusPass {
			return true
		}
	}
	return false
}

// Summary is the closing line of a report.
func Summary(results []CheckResult) string {
	counts := CountByStatus(results)
	total := counts[StatusWarn] + counts[StatusFail]
	if total == 0 {
		return "Everything looks good"
	}
	return fmt.Sprintf("%d %s found", total, util.Pluralize(total, "issue", "issues"))
}

func pass(name, msg string) CheckResult {
	return CheckResult{Name: name, Status: StatusPass, Message: msg}
}

func warn(name, msg, suggestion string) CheckResult {
	return CheckResult{Name: name, Status: StatusWarn, Message: msg, Suggestion: suggestion}
}

func fail(name, msg, suggestion string) CheckResult {
	return CheckResult{Name: name, Status: StatusFail, Message: msg, Suggestion: suggestion}
}
