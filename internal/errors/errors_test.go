package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrTerminal,
		ErrTheme,
		ErrMetrics,
		ErrSSH,
		ErrInput,
		ErrCollector,
		ErrMetricUnavailable,
		ErrProcessNotFound,
		ErrPermissionDenied,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "config error",
			code:       ErrConfig,
			message:    "Invalid update_ms in sysmon.yaml",
			suggestion: "Use a value of at least 100",
		},
		{
			name:       "terminal error",
			code:       ErrTerminal,
			message:    "Not attached to a terminal",
			suggestion: "Run sysmon from an interactive shell",
		},
		{
			name:    "no suggestion",
			code:    ErrTheme,
			message: "Theme not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	t.Run("message only", func(t *testing.T) {
		err := New(ErrConfig, "Bad config", "")
		assert.Equal(t, "✗ Bad config\n", err.Error())
	})

	t.Run("message cause and suggestion", func(t *testing.T) {
		err := WrapWithCode(fmt.Errorf("permission denied"), ErrConfig, "Cannot write config", "Check directory permissions")
		out := err.Error()
		assert.True(t, strings.HasPrefix(out, "✗ Cannot write config\n"))
		assert.Contains(t, out, "\n  permission denied\n")
		assert.Contains(t, out, "\n  Check directory permissions\n")
	})
}

func TestWrapDefaultsToMetrics(t *testing.T) {
	cause := fmt.Errorf("read /proc/stat: no such file")
	err := Wrap(cause, "cpu sample failed")

	assert.Equal(t, ErrMetrics, err.Code)
	assert.True(t, errors.Is(err, cause))
}

func TestUnavailable(t *testing.T) {
	err := Unavailable("temperature sensors", nil)
	assert.True(t, IsCode(err, ErrMetricUnavailable))
	assert.Equal(t, "temperature sensors not available", err.Short())
}

func TestIsCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		want bool
	}{
		{"nil error", nil, ErrConfig, false},
		{"plain error", fmt.Errorf("boom"), ErrConfig, false},
		{"matching", New(ErrProcessNotFound, "gone", ""), ErrProcessNotFound, true},
		{"mismatch", New(ErrPermissionDenied, "denied", ""), ErrProcessNotFound, false},
		{"wrapped", fmt.Errorf("outer: %w", New(ErrSSH, "ssh", "")), ErrSSH, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCode(tt.err, tt.code))
		})
	}
}

func TestOneline(t *testing.T) {
	assert.Equal(t, "", Oneline(nil))
	assert.Equal(t, "a b", Oneline(fmt.Errorf("a\nb")))
	assert.Equal(t, "kill failed: no such process",
		Oneline(WrapWithCode(fmt.Errorf("no such process"), ErrProcessNotFound, "kill failed", "")))
}
