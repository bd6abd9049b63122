package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/sysmon/internal/doctor"
)

type stubCheck struct {
	name, category string
	result         doctor.CheckResult
}

func (s stubCheck) Name() string            { return s.name }
func (s stubCheck) Category() string        { return s.category }
func (s stubCheck) Run() doctor.CheckResult { return s.result }

func stubChecks() []doctor.Check {
	return []doctor.Check{
		stubCheck{"theme", doctor.CategoryTheme, doctor.CheckResult{Name: "theme", Status: doctor.StatusPass, Message: "Theme nord"}},
		stubCheck{"config_file", doctor.CategoryConfig, doctor.CheckResult{
			Name: "config_file", Status: doctor.StatusWarn, Message: "No config file, using defaults", Suggestion: "Run 'sysmon config init'",
		}},
		stubCheck{"terminal", doctor.CategoryTerminal, doctor.CheckResult{Name: "terminal", Status: doctor.StatusPass, Message: "Interactive terminal"}},
	}
}

func TestGroupResults_CategoryOrder(t *testing.T) {
	checks := stubChecks()
	groups := groupResults(checks, doctor.RunAll(checks))

	require.Len(t, groups, 3)
	assert.Equal(t, doctor.CategoryTerminal, groups[0].Name)
	assert.Equal(t, doctor.CategoryConfig, groups[1].Name)
	assert.Equal(t, doctor.CategoryTheme, groups[2].Name)
}

func TestWriteDoctorJSON(t *testing.T) {
	checks := stubChecks()
	var buf bytes.Buffer
	require.NoError(t, writeDoctorJSON(&buf, checks, doctor.RunAll(checks)))

	var out DoctorOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Len(t, out.Categories, 3)
	assert.Equal(t, SummaryOutput{Pass: 2, Warn: 1}, out.Summary)
	assert.Contains(t, buf.String(), `"status": "warn"`)
}

func TestWriteDoctorText(t *testing.T) {
	checks := stubChecks()
	var buf bytes.Buffer
	writeDoctorText(&buf, checks, doctor.RunAll(checks))
	out := buf.String()

	assert.Contains(t, out, "Diagnostic report")
	assert.Contains(t, out, "TERMINAL")
	assert.Contains(t, out, "Interactive terminal")
	assert.Contains(t, out, "Run 'sysmon config init'")
	assert.Contains(t, out, "1 issue found")
	assert.NotContains(t, out, "REMOTE")
}
