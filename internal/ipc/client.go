package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/intellidock/internal/geometry"
	"github.com/1broseidon/intellidock/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the runtime socket.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for an explicit socket path.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

func (c *Client) sendRequest(command CommandType, payload any) (*Response, error) {
	req := Request{Command: command}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", command, err)
		}
		req.Payload = data
	}

	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	respData, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == StatusError {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return &resp, nil
}

func (c *Client) call(command CommandType, payload, out any) error {
	resp, err := c.sendRequest(command, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", command, err)
	}
	return nil
}

// Reload asks the daemon to re-read its configuration.
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetMonitors retrieves monitor information
func (c *Client) GetMonitors() (*MonitorsData, error) {
	var monitors MonitorsData
	if err := c.call(CommandGetMonitors, nil, &monitors); err != nil {
		return nil, err
	}
	return &monitors, nil
}

// Recheck forces an immediate obstruction check.
func (c *Client) Recheck() (*RecheckData, error) {
	var data RecheckData
	if err := c.call(CommandRecheck, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// SetAutoHide changes the auto-hide setting and returns the new value.
func (c *Client) SetAutoHide(mode AutoHideMode) (bool, error) {
	var data AutoHideData
	if err := c.call(CommandSetAutoHide, SetAutoHidePayload{Mode: mode}, &data); err != nil {
		return false, err
	}
	return data.AutoHide, nil
}

// ListGeometry returns the saved window geometry.
func (c *Client) ListGeometry() ([]geometry.Entry, error) {
	var data GeometryData
	if err := c.call(CommandListGeometry, nil, &data); err != nil {
		return nil, err
	}
	return data.Entries, nil
}

// ForgetGeometry deletes the saved geometry for appID.
func (c *Client) ForgetGeometry(appID string) error {
	return c.call(CommandForgetGeometry, ForgetGeometryPayload{AppID: appID}, nil)
}

// ClearGeometry deletes all saved geometry and returns the number removed.
func (c *Client) ClearGeometry() (int, error) {
	var data ClearGeometryData
	if err := c.call(CommandClearGeometry, nil, &data); err != nil {
		return 0, err
	}
	return data.Removed, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
