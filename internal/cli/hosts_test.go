package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/sysmon/pkg/sshutil"
)

var testHosts = []sshutil.HostEntry{
	{Alias: "gpu-box", Hostname: "10.0.0.5", User: "ml"},
	{Alias: "nas"},
}

func TestHostChoices(t *testing.T) {
	choices := hostChoices(testHosts)
	require.Len(t, choices, 3)
	assert.Equal(t, localChoice, choices[0].Value)
	assert.Equal(t, "gpu-box", choices[1].Value)
	assert.Equal(t, "10.0.0.5, user: ml", choices[1].Detail)
}

func TestListHosts(t *testing.T) {
	var buf bytes.Buffer
	listHosts(&buf, nil, "")
	assert.Contains(t, buf.String(), "No hosts")

	buf.Reset()
	listHosts(&buf, testHosts, "nas")
	out := buf.String()
	assert.Contains(t, out, "gpu-box")
	assert.Contains(t, out, "10.0.0.5")
	assert.Contains(t, out, "nas")
}
