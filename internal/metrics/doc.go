// Package metrics defines the Provider that collectors sample from and two
// implementations of it: Local, backed by gopsutil, and Remote, which runs a
// batched shell command over SSH and parses the output.
//
// Providers report optional features that cannot be read on the current
// system with an errors.ErrMetricUnavailable error. Collectors disable the
// feature on the first such error instead of failing the cycle.
package metrics
