package doctor

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh/agent"

	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/util"
	"github.com/rileyhilliard/sysmon/pkg/sshutil"
)

const dialTimeout = 10 * time.Second

var keyNames = []string{"id_ed25519", "id_rsa", "id_ecdsa"}

// SSHKeyCheck looks for a default key pair.
type SSHKeyCheck struct {
	Home string // defaults to the user's home directory
}

func (c *SSHKeyCheck) Name() string     { return "ssh_key" }
func (c *SSHKeyCheck) Category() string { return CategoryRemote }

func (c *SSHKeyCheck) Run() CheckResult {
	home := c.Home
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return fail(c.Name(), "Cannot determine home directory", "Check the HOME environment variable")
		}
	}

	var insecure []string
	found := ""
	for _, name := range keyNames {
		info, err := os.Stat(filepath.Join(home, ".ssh", name))
		if err != nil {
			continue
		}
		if found == "" {
			found = name
		}
		if info.Mode().Perm()&0o077 != 0 {
			insecure = append(insecure, name)
		}
	}

	switch {
	case found == "":
		return warn(c.Name(), "No default SSH key found",
			"Keys from the agent or ~/.ssh/config still work. To create one: ssh-keygen -t ed25519")
	case len(insecure) > 0:
		return warn(c.Name(), fmt.Sprintf("Insecure permissions on: %s", strings.Join(insecure, ", ")),
			"Fix: chmod 600 ~/.ssh/<keyfile>")
	}
	return pass(c.Name(), fmt.Sprintf("SSH key found: ~/.ssh/%s", found))
}

// SSHAgentCheck verifies the agent is reachable and holds keys.
type SSHAgentCheck struct{}

func (c *SSHAgentCheck) Name() string     { return "ssh_agent" }
func (c *SSHAgentCheck) Category() string { return CategoryRemote }

func (c *SSHAgentCheck) Run() CheckResult {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return warn(c.Name(), "SSH agent not running", "Fix: eval $(ssh-agent) && ssh-add")
	}
	conn, err := net.Dial("unix", socket)
	if err != nil {
		return warn(c.Name(), "SSH agent socket not accessible", "Fix: eval $(ssh-agent) && ssh-add")
	}
	defer conn.Close() //nolint:errcheck

	keys, err := agent.NewClient(conn).List()
	if err != nil {
		return warn(c.Name(), "Cannot query SSH agent", "Check the agent with: ssh-add -l")
	}
	if len(keys) == 0 {
		return warn(c.Name(), "SSH agent running but no keys loaded", "Add a key with: ssh-add")
	}
	return pass(c.Name(), fmt.Sprintf("SSH agent running with %d %s loaded", len(keys), util.Pluralize(len(keys), "key", "keys")))
}

// RemoteHostCheck connects to the monitored host and checks it is a
// system the remote provider can read.
type RemoteHostCheck struct {
	Host string
	// Dial defaults to sshutil.Dial.
	Dial func(host string, timeout time.Duration) (sshutil.Runner, error)
}

func (c *RemoteHostCheck) Name() string     { return "remote_host" }
func (c *RemoteHostCheck) Category() string { return CategoryRemote }

func (c *RemoteHostCheck) Run() CheckResult {
	dial := c.Dial
	if dial == nil {
		dial = func(host string, timeout time.Duration) (sshutil.Runner, error) {
			return sshutil.Dial(host, timeout)
		}
	}

	start := time.Now()
	client, err := dial(c.Host, dialTimeout)
	if err != nil {
		suggestion := "Check the host with: ssh " + c.Host
		var sErr *errors.Error
		if errors.As(err, &sErr) && sErr.Suggestion != "" {
			suggestion = sErr.Suggestion
		}
		return fail(c.Name(), fmt.Sprintf("Can't connect to %s", c.Host), suggestion)
	}
	defer client.Close() //nolint:errcheck
	latency := time.Since(start).Round(time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), sampleTimeout)
	defer cancel()
	out, err := client.Run(ctx, "uname -s")
	if err != nil {
		return fail(c.Name(), fmt.Sprintf("%s: uname failed: %s", c.Host, errors.Oneline(err)), "")
	}

	osName := strings.TrimSpace(string(out))
	switch osName {
	case "Linux", "Darwin":
		return pass(c.Name(), fmt.Sprintf("%s reachable (%s, %s)", c.Host, osName, latency))
	}
	return fail(c.Name(), fmt.Sprintf("%s runs %s", c.Host, osName), "Remote monitoring supports Linux and macOS hosts")
}

// NewRemoteChecks creates the SSH checks for host.
func NewRemoteChecks(host string) []Check {
	return []Check{
		&SSHKeyCheck{},
		&SSHAgentCheck{},
		&RemoteHostCheck{Host: host},
	}
}
