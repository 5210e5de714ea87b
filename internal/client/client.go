// Package client is the HTTP client for the signaling server. It implements
// the call core's Transport and Directory interfaces over the REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/driftchat/call-signaling/internal/call"
	"github.com/driftchat/call-signaling/internal/handlers"
	"github.com/driftchat/call-signaling/internal/models"
)

const requestTimeout = 10 * time.Second

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Login authenticates and stores the token for subsequent requests.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp handlers.LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", handlers.LoginRequest{
		Username: username,
		Password: password,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	c.token = resp.Token
	return resp.UserID, nil
}

func (c *Client) StartCall(ctx context.Context, conversationID string) (string, error) {
	var resp models.StartCallResponse
	err := c.do(ctx, http.MethodPost, "/api/calls", models.StartCallRequest{
		ConversationID: conversationID,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("start call: %w", err)
	}
	return resp.RoomID, nil
}

func (c *Client) GetCallByRoomID(ctx context.Context, roomID string) (*models.CallRoom, error) {
	var room models.CallRoom
	err := c.do(ctx, http.MethodGet, "/api/calls/"+roomID, nil, &room)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, call.ErrCallNotFound
		}
		return nil, fmt.Errorf("get call: %w", err)
	}
	return &room, nil
}

func (c *Client) GetActiveCall(ctx context.Context, conversationID string) (*models.CallRoom, error) {
	var room models.CallRoom
	err := c.do(ctx, http.MethodGet, "/api/conversations/"+conversationID+"/call", nil, &room)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, call.ErrCallNotFound
		}
		return nil, fmt.Errorf("get active call: %w", err)
	}
	return &room, nil
}

func (c *Client) EndCall(ctx context.Context, roomID string) error {
	err := c.do(ctx, http.MethodPost, "/api/calls/"+roomID+"/end", nil, nil)
	if err != nil {
		if isStatus(err, http.StatusForbidden) {
			return call.ErrNotAuthorized
		}
		return fmt.Errorf("end call: %w", err)
	}
	return nil
}

func (c *Client) Append(ctx context.Context, roomID string, signalType models.SignalType, payload string) error {
	err := c.do(ctx, http.MethodPost, "/api/rooms/"+roomID+"/signals", models.AppendSignalRequest{
		Type:    signalType,
		Payload: payload,
	}, nil)
	if err != nil {
		return fmt.Errorf("append signal: %w", err)
	}
	return nil
}

func (c *Client) List(ctx context.Context, roomID string, limit int) ([]models.SignalMessage, error) {
	var resp models.ListSignalsResponse
	path := "/api/rooms/" + roomID + "/signals?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	return resp.Signals, nil
}

// statusError carries the HTTP status so callers can map well-known ones to
// sentinel errors.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.status, e.body)
}

func isStatus(err error, status int) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == status
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", call.ErrAuth, string(data))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{status: resp.StatusCode, body: string(data)}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
