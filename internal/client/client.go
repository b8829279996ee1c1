// Package client implements the daemon side of the so binary: attach
// to a running sohs instance over its local socket and exchange framed
// command/response pairs.
package client

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/lionkor/ServerOrganizer/internal/exitcode"
	"github.com/lionkor/ServerOrganizer/internal/protocol"
	"github.com/lionkor/ServerOrganizer/internal/util"
)

// Client is one attached session. It is not safe for concurrent use;
// the shell serializes every command as request-then-response.
type Client struct {
	conn net.Conn
}

// Attach connects to the daemon's socket. A missing socket file means
// the daemon isn't running and is reported as such without dialing.
// Transient connect failures (daemon mid-startup, backlog full) are
// retried briefly.
func Attach(ctx context.Context, socketPath string) (*Client, error) {
	if _, err := os.Stat(socketPath); err != nil {
		return nil, exitcode.Newf(exitcode.ErrSocketAbsent,
			"could not attach - ensure that the server is running")
	}
	conn, err := util.Retry(ctx, util.DefaultRetryConfig(), func() (net.Conn, error) {
		return net.Dial("unix", socketPath)
	})
	if err != nil {
		return nil, exitcode.Wrapf(exitcode.ErrConnect, err, "failed to connect")
	}
	return &Client{conn: conn}, nil
}

// Send frames one command and writes it to the daemon.
func (c *Client) Send(command string) error {
	return protocol.WriteFrame(c.conn, protocol.Encode(command))
}

// Recv reads one response frame and decodes it.
func (c *Client) Recv() (string, error) {
	frame, err := protocol.ReadFrame(c.conn)
	if err != nil {
		return "", err
	}
	return protocol.Decode(frame), nil
}

// Roundtrip sends one command and returns its reply. The caller must
// check the reply against protocol.Detach and detach if it matches.
func (c *Client) Roundtrip(command string) (string, error) {
	if err := c.Send(command); err != nil {
		return "", fmt.Errorf("send: %w", err)
	}
	reply, err := c.Recv()
	if err != nil {
		return "", fmt.Errorf("recv: %w", err)
	}
	return reply, nil
}

// Detach closes the connection. Safe to call more than once.
func (c *Client) Detach() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
