package doctor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/pkg/sshutil"
	sshtesting "github.com/rileyhilliard/sysmon/pkg/sshutil/testing"
)

func TestSSHKeyCheck(t *testing.T) {
	tests := []struct {
		name string
		keys map[string]os.FileMode
		want CheckStatus
	}{
		{"no keys", nil, StatusWarn},
		{"private key", map[string]os.FileMode{"id_ed25519": 0o600}, StatusPass},
		{"readable by others", map[string]os.FileMode{"id_rsa": 0o644}, StatusWarn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			sshDir := filepath.Join(home, ".ssh")
			require.NoError(t, os.MkdirAll(sshDir, 0o700))
			for name, mode := range tt.keys {
				path := filepath.Join(sshDir, name)
				require.NoError(t, os.WriteFile(path, []byte("key"), mode))
				require.NoError(t, os.Chmod(path, mode))
			}

			r := (&SSHKeyCheck{Home: home}).Run()
			assert.Equal(t, tt.want, r.Status, r.Message)
		})
	}
}

func TestSSHAgentCheck_NoAgent(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	r := (&SSHAgentCheck{}).Run()
	assert.Equal(t, StatusWarn, r.Status)

	t.Setenv("SSH_AUTH_SOCK", filepath.Join(t.TempDir(), "agent.sock"))
	r = (&SSHAgentCheck{}).Run()
	assert.Equal(t, StatusWarn, r.Status)
	assert.Contains(t, r.Message, "not accessible")
}

func dialMock(m *sshtesting.MockClient) func(string, time.Duration) (sshutil.Runner, error) {
	return func(string, time.Duration) (sshutil.Runner, error) { return m, nil }
}

func TestRemoteHostCheck(t *testing.T) {
	t.Run("linux host", func(t *testing.T) {
		m := sshtesting.NewMockClient("box").On("uname -s", sshtesting.Response{Stdout: []byte("Linux\n")})
		r := (&RemoteHostCheck{Host: "box", Dial: dialMock(m)}).Run()
		assert.Equal(t, StatusPass, r.Status, r.Message)
		assert.Contains(t, r.Message, "Linux")
		assert.True(t, m.Closed())
	})

	t.Run("unsupported os", func(t *testing.T) {
		m := sshtesting.NewMockClient("box").On("uname -s", sshtesting.Response{Stdout: []byte("FreeBSD\n")})
		r := (&RemoteHostCheck{Host: "box", Dial: dialMock(m)}).Run()
		assert.Equal(t, StatusFail, r.Status)
		assert.Contains(t, r.Message, "FreeBSD")
	})

	t.Run("uname fails", func(t *testing.T) {
		m := sshtesting.NewMockClient("box").On("uname -s", sshtesting.Response{Err: errors.New("session closed")})
		r := (&RemoteHostCheck{Host: "box", Dial: dialMock(m)}).Run()
		assert.Equal(t, StatusFail, r.Status)
		assert.Contains(t, r.Message, "uname failed")
	})

	t.Run("dial error keeps suggestion", func(t *testing.T) {
		dial := func(string, time.Duration) (sshutil.Runner, error) {
			return nil, serrors.New(serrors.ErrSSH, "Can't reach 'box'", "Is SSH running on that host?")
		}
		r := (&RemoteHostCheck{Host: "box", Dial: dial}).Run()
		assert.Equal(t, StatusFail, r.Status)
		assert.Equal(t, "Is SSH running on that host?", r.Suggestion)
	})
}

func TestNewRemoteChecks(t *testing.T) {
	checks := NewRemoteChecks("box")
	require.Len(t, checks, 3)
	for _, c := range checks {
		assert.Equal(t, CategoryRemote, c.Category())
	}
}
