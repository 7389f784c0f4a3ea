package daemon

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Client talks to a running daemon over its unix socket.
type Client struct {
	conn    net.Conn
	reader  *bufio.Reader
	encoder *json.Encoder
	reqID   uint64
	pending map[string]chan Response
	mu      sync.Mutex
	closed  bool
}

// Connect dials the daemon socket.
func Connect() (*Client, error) {
	conn, err := net.Dial("unix", SocketPath())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is it running?)", err)
	}

	c := &Client{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		encoder: json.NewEncoder(conn),
		pending: make(map[string]chan Response),
	}

	go c.readLoop()

	return c, nil
}

// Close closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}

// readLoop routes responses to their waiting requests
func (c *Client) readLoop() {
	for {
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			return
		}

		var resp Response
		if err := json.Unmarshal(line, &resp); err != nil || resp.Type == "" {
			continue
		}
		if resp.ID == "" {
			continue
		}

		c.mu.Lock()
		if ch, ok := c.pending[resp.ID]; ok {
			ch <- resp
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()
	}
}

// request sends a request and waits for its response
func (c *Client) request(req Request, timeout time.Duration) (Response, error) {
	id := fmt.Sprintf("%d", atomic.AddUint64(&c.reqID, 1))
	req.ID = id

	respChan := make(chan Response, 1)
	c.mu.Lock()
	c.pending[id] = respChan
	c.mu.Unlock()

	if err := c.encoder.Encode(req); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return Response{}, fmt.Errorf("failed to send request: %w", err)
	}

	select {
	case resp := <-respChan:
		if resp.Type == RespError {
			return resp, fmt.Errorf("%s", resp.Error)
		}
		return resp, nil
	case <-time.After(timeout):
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return Response{}, fmt.Errorf("request timed out")
	}
}

// Ping checks if the daemon is responsive
func (c *Client) Ping() error {
	_, err := c.request(Request{Type: ReqPing}, 5*time.Second)
	return err
}

// Status returns the daemon's status snapshot
func (c *Client) Status() (*Status, error) {
	resp, err := c.request(Request{Type: ReqStatus}, 5*time.Second)
	if err != nil {
		return nil, err
	}
	if resp.Status == nil {
		return nil, fmt.Errorf("daemon returned no status")
	}
	return resp.Status, nil
}

// Scan asks the daemon for an immediate reminder pass (non-blocking)
func (c *Client) Scan() error {
	_, err := c.request(Request{Type: ReqScan}, 5*time.Second)
	return err
}

// Shutdown tells the daemon to stop
func (c *Client) Shutdown() error {
	_, err := c.request(Request{Type: ReqShutdown}, 5*time.Second)
	return err
}
