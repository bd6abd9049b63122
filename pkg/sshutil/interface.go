package sshutil

import "context"

// Runner executes commands on a remote host. Client implements it, and
// sshutil/testing provides a scripted fake.
type Runner interface {
	// Run executes cmd and returns stdout. A non-zero exit is an error.
	Run(ctx context.Context, cmd string) ([]byte, error)
	// Exec executes cmd and reports the exit code instead of failing on it.
	// Exit code is -1 if the command couldn't be started.
	Exec(cmd string) (stdout, stderr []byte, exitCode int, err error)
	// Alive reports whether the connection still answers.
	Alive() bool
	GetHost() string
	Close() error
}

var _ Runner = (*Client)(nil)
