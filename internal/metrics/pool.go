package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/sysmon/pkg/sshutil"
)

// DialFunc opens a connection to host.
type DialFunc func(host string, timeout time.Duration) (sshutil.Runner, error)

// DialSSH is the DialFunc backed by sshutil.Dial.
func DialSSH(host string, timeout time.Duration) (sshutil.Runner, error) {
	c, err := sshutil.Dial(host, timeout)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Pool keeps one connection per host alive between samples and redials
// when a connection stops answering.
type Pool struct {
	mu      sync.Mutex
	conns   map[string]*poolEntry
	timeout time.Duration
	dial    DialFunc
}

type poolEntry struct {
	client   sshutil.Runner
	platform Platform
	lastUsed time.Time
}

// NewPool returns an empty pool. A nil dial uses DialSSH.
func NewPool(timeout time.Duration, dial DialFunc) *Pool {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	if dial == nil {
		dial = DialSSH
	}
	return &Pool{conns: make(map[string]*poolEntry), timeout: timeout, dial: dial}
}

// Get returns a live connection to host, dialing if needed.
func (p *Pool) Get(host string) (sshutil.Runner, error) {
	p.mu.Lock()
	entry, ok := p.conns[host]
	p.mu.Unlock()

	if ok && entry.client != nil {
		if entry.client.Alive() {
			p.mu.Lock()
			entry.lastUsed = time.Now()
			p.mu.Unlock()
			return entry.client, nil
		}
		p.CloseOne(host)
	}

	client, err := p.dial(host, p.timeout)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.conns[host] = &poolEntry{client: client, lastUsed: time.Now()}
	p.mu.Unlock()
	return client, nil
}

// GetWithPlatform returns a connection and the host's platform, detecting
// and caching it on first use. Detection failures leave PlatformUnknown.
func (p *Pool) GetWithPlatform(ctx context.Context, host string) (sshutil.Runner, Platform, error) {
	client, err := p.Get(host)
	if err != nil {
		return nil, PlatformUnknown, err
	}

	p.mu.Lock()
	platform := PlatformUnknown
	if e, ok := p.conns[host]; ok && e.platform != "" {
		platform = e.platform
	}
	p.mu.Unlock()
	if platform != PlatformUnknown {
		return client, platform, nil
	}

	out, err := client.Run(ctx, PlatformDetectCommand())
	if err == nil {
		platform = ParsePlatform(string(out))
	}
	p.mu.Lock()
	if e, ok := p.conns[host]; ok {
		e.platform = platform
	}
	p.mu.Unlock()
	return client, platform, nil
}

// CloseOne drops the connection to host.
func (p *Pool) CloseOne(host string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.conns[host]; ok {
		if e.client != nil {
			_ = e.client.Close()
		}
		delete(p.conns, host)
	}
}

// Close drops every connection.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for host, e := range p.conns {
		if e.client != nil {
			_ = e.client.Close()
		}
		delete(p.conns, host)
	}
}

// Size returns the number of open connections.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}
