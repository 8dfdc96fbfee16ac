package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/wlframe/internal/window"
)

// Client handles IPC communication with a running session
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the socket at socketPath
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    DefaultTimeout,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session: %w (is wlframe replay --serve running?)", err)
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

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("session error: %s", resp.Error)
	}

	return &resp, nil
}

// do sends cmd with an optional payload and decodes the reply into out.
func (c *Client) do(cmd CommandType, payload any, out any) error {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// GetStatus retrieves the session summary
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.do(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetWindows retrieves snapshots of every live window
func (c *Client) GetWindows() (*WindowsData, error) {
	var data WindowsData
	if err := c.do(CommandGetWindows, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetWindow retrieves one window by id
func (c *Client) GetWindow(id uint32) (*window.Info, error) {
	var info window.Info
	if err := c.do(CommandGetWindow, WindowPayload{ID: id}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetOffers retrieves the live data offers
func (c *Client) GetOffers() (*OffersData, error) {
	var data OffersData
	if err := c.do(CommandGetOffers, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Ping checks if the session is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
