package ipc

import (
	"context"
	"encoding/json"
	"fmt"
)

// CommandType represents the remote operations a gizmo answers.
type CommandType string

const (
	CommandPing               CommandType = "PING"
	CommandActivate           CommandType = "ACTIVATE"
	CommandClose              CommandType = "CLOSE"
	CommandGetScreenRectangle CommandType = "GET_SCREEN_RECTANGLE"
	CommandMoveTo             CommandType = "MOVE_TO"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Request is sent from the coordinator to a gizmo, one per connection.
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the gizmo's reply.
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ScreenRectangle is a window's outer geometry in screen coordinates.
type ScreenRectangle struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Right returns the x coordinate just past the rectangle.
func (r ScreenRectangle) Right() int {
	return r.Left + r.Width
}

// MoveToPayload is the payload for MOVE_TO.
type MoveToPayload struct {
	Left int `json:"left"`
	Top  int `json:"top"`
}

// PingData identifies the gizmo answering a PING.
type PingData struct {
	Name     string `json:"name"`
	Contract string `json:"contract"`
	PID      int    `json:"pid"`
	Title    string `json:"title,omitempty"`
}

// Gizmo is the remote-control surface of one peer window. The peer side
// implements it against a real window; the coordinator side gets a stub
// that forwards each call over the socket.
type Gizmo interface {
	Activate(ctx context.Context) error
	Close(ctx context.Context) error
	ScreenRectangle(ctx context.Context) (ScreenRectangle, error)
	MoveTo(ctx context.Context, left, top int) error
}

// Titled is implemented by gizmos that can describe themselves.
type Titled interface {
	Title() string
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: StatusError,
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
