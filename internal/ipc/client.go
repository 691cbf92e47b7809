package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

// DefaultTimeout bounds a call when the caller's context has no deadline.
const DefaultTimeout = 2 * time.Second

// ErrPeer is wrapped by errors the remote gizmo reported itself.
var ErrPeer = errors.New("gizmo error")

// Client talks to a single gizmo socket. It implements Gizmo.
type Client struct {
	socketPath string
	timeout    time.Duration
}

var _ Gizmo = (*Client)(nil)

// NewClient creates a client for the gizmo listening on socketPath.
func NewClient(socketPath string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		socketPath: socketPath,
		timeout:    timeout,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(ctx context.Context, req *Request) (*Response, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}

	dialer := net.Dialer{Deadline: deadline}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to gizmo: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(deadline)

	// Unblock reads and writes if ctx is cancelled before the deadline.
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == StatusError {
		return nil, fmt.Errorf("%w: %s", ErrPeer, resp.Error)
	}

	return &resp, nil
}

// Ping asks the gizmo to identify itself.
func (c *Client) Ping(ctx context.Context) (*PingData, error) {
	resp, err := c.sendRequest(ctx, &Request{Command: CommandPing})
	if err != nil {
		return nil, err
	}

	var data PingData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse ping data: %w", err)
	}
	return &data, nil
}

// Activate brings the gizmo window to the front.
func (c *Client) Activate(ctx context.Context) error {
	_, err := c.sendRequest(ctx, &Request{Command: CommandActivate})
	return err
}

// Close asks the gizmo to close its window.
func (c *Client) Close(ctx context.Context) error {
	_, err := c.sendRequest(ctx, &Request{Command: CommandClose})
	return err
}

// ScreenRectangle returns the gizmo window's current geometry.
func (c *Client) ScreenRectangle(ctx context.Context) (ScreenRectangle, error) {
	resp, err := c.sendRequest(ctx, &Request{Command: CommandGetScreenRectangle})
	if err != nil {
		return ScreenRectangle{}, err
	}

	var rect ScreenRectangle
	if err := json.Unmarshal(resp.Data, &rect); err != nil {
		return ScreenRectangle{}, fmt.Errorf("failed to parse screen rectangle: %w", err)
	}
	return rect, nil
}

// MoveTo moves the gizmo window's top-left corner.
func (c *Client) MoveTo(ctx context.Context, left, top int) error {
	payload, err := json.Marshal(MoveToPayload{Left: left, Top: top})
	if err != nil {
		return fmt.Errorf("failed to marshal move payload: %w", err)
	}

	_, err = c.sendRequest(ctx, &Request{
		Command: CommandMoveTo,
		Payload: payload,
	})
	return err
}
