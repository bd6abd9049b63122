package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinOrNone(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		want  string
	}{
		{"nil", nil, "(none)"},
		{"empty", []string{}, "(none)"},
		{"single", []string{"cpu"}, "cpu"},
		{"several", []string{"cpu", "mem", "net"}, "cpu, mem, net"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinOrNone(tt.items))
		})
	}
}

func TestJoinOrDefault(t *testing.T) {
	assert.Equal(t, "all", JoinOrDefault(nil, "all"))
	assert.Equal(t, "", JoinOrDefault([]string{}, ""))
	assert.Equal(t, "eth0, wlan0", JoinOrDefault([]string{"eth0", "wlan0"}, "all"))
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "issue", Pluralize(1, "issue", "issues"))
	assert.Equal(t, "issues", Pluralize(0, "issue", "issues"))
	assert.Equal(t, "issues", Pluralize(2, "issue", "issues"))
}
