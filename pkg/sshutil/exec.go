package sshutil

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"

	"golang.org/x/crypto/ssh"

	"github.com/rileyhilliard/sysmon/internal/errors"
)

func sessionError(err error) error {
	return errors.WrapWithCode(err, errors.ErrSSH,
		"Failed to create SSH session",
		"The connection may have been closed. Try reconnecting.")
}

// Exec runs cmd and returns its output and exit status.
func (c *Client) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	session, err := c.NewSession()
	if err != nil {
		return nil, nil, -1, sessionError(err)
	}
	defer session.Close()

	var out, errOut bytes.Buffer
	session.Stdout = &out
	session.Stderr = &errOut
	if err := session.Run(cmd); err != nil {
		var exitErr *ssh.ExitError
		if stderrors.As(err, &exitErr) {
			return out.Bytes(), errOut.Bytes(), exitErr.ExitStatus(), nil
		}
		return nil, nil, -1, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Failed to execute command: %s", cmd),
			"Check the command exists on the remote host.")
	}
	return out.Bytes(), errOut.Bytes(), 0, nil
}

// Run executes cmd, closing the session when ctx is done.
func (c *Client) Run(ctx context.Context, cmd string) ([]byte, error) {
	session, err := c.NewSession()
	if err != nil {
		return nil, sessionError(err)
	}
	defer session.Close()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := session.Output(cmd)
		done <- result{out, err}
	}()

	select {
	case <-ctx.Done():
		_ = session.Close()
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return r.out, errors.WrapWithCode(r.err, errors.ErrSSH,
				fmt.Sprintf("Remote command failed on %s", c.Host), "")
		}
		return r.out, nil
	}
}
