// Package testing provides a scripted sshutil.Runner for tests that would
// otherwise need a live SSH host.
package testing

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/rileyhilliard/sysmon/pkg/sshutil"
)

// Response is the canned result for a command.
type Response struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Err      error
}

// MockClient answers commands from registered responses. Exact matches are
// tried first, then patterns in registration order.
type MockClient struct {
	mu       sync.Mutex
	host     string
	closed   bool
	dead     bool
	exact    map[string]Response
	patterns []pattern
	calls    []string
}

type pattern struct {
	re   *regexp.Regexp
	resp Response
}

var _ sshutil.Runner = (*MockClient)(nil)

// NewMockClient returns an open client for host.
func NewMockClient(host string) *MockClient {
	return &MockClient{host: host, exact: make(map[string]Response)}
}

// On registers a response for an exact command.
func (m *MockClient) On(cmd string, resp Response) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exact[cmd] = resp
	return m
}

// OnMatch registers a response for commands matching expr.
func (m *MockClient) OnMatch(expr string, resp Response) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, pattern{re: regexp.MustCompile(expr), resp: resp})
	return m
}

// Kill makes Alive report false, as if the connection dropped.
func (m *MockClient) Kill() {
	m.mu.Lock()
	m.dead = true
	m.mu.Unlock()
}

// Calls returns every command run so far.
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Closed reports whether Close was called.
func (m *MockClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockClient) lookup(cmd string) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Response{}, errors.New("connection closed")
	}
	m.calls = append(m.calls, cmd)
	if r, ok := m.exact[cmd]; ok {
		return r, nil
	}
	for _, p := range m.patterns {
		if p.re.MatchString(cmd) {
			return p.resp, nil
		}
	}
	return Response{ExitCode: 127, Stderr: []byte("command not found")}, nil
}

func (m *MockClient) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	r, err := m.lookup(cmd)
	if err != nil {
		return nil, nil, -1, err
	}
	if r.Err != nil {
		return nil, nil, -1, r.Err
	}
	return r.Stdout, r.Stderr, r.ExitCode, nil
}

func (m *MockClient) Run(ctx context.Context, cmd string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, stderr, code, err := m.Exec(cmd)
	if err != nil {
		return nil, err
	}
	if code != 0 {
		return out, fmt.Errorf("exit status %d: %s", code, stderr)
	}
	return out, nil
}

func (m *MockClient) Alive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed && !m.dead
}

func (m *MockClient) GetHost() string { return m.host }

func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
