package ipc

import (
	"encoding/json"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Start requests the daemon to start processing.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Collator.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Collator.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Collator.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Submit queues an aggregation request payload with the daemon.
func (c *Client) Submit(payload json.RawMessage) (*SubmitResponse, error) {
	var resp SubmitResponse
	req := SubmitRequest{Payload: payload}
	if err := c.client.Call("Collator.Submit", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobList returns jobs optionally filtered by statuses.
func (c *Client) JobList(statuses []string) (*JobListResponse, error) {
	var resp JobListResponse
	req := JobListRequest{Statuses: statuses}
	if err := c.client.Call("Collator.JobList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobDescribe returns details for a single job.
func (c *Client) JobDescribe(id int64) (*JobDescribeResponse, error) {
	var resp JobDescribeResponse
	req := JobDescribeRequest{ID: id}
	if err := c.client.Call("Collator.JobDescribe", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobClear removes jobs, optionally restricted to the given statuses.
func (c *Client) JobClear(statuses []string) (*JobClearResponse, error) {
	var resp JobClearResponse
	req := JobClearRequest{Statuses: statuses}
	if err := c.client.Call("Collator.JobClear", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobReset resets jobs stuck mid-aggregation.
func (c *Client) JobReset() (*JobResetResponse, error) {
	var resp JobResetResponse
	if err := c.client.Call("Collator.JobReset", JobResetRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobRetry retries failed jobs.
func (c *Client) JobRetry(ids []int64) (*JobRetryResponse, error) {
	var resp JobRetryResponse
	req := JobRetryRequest{IDs: ids}
	if err := c.client.Call("Collator.JobRetry", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobHealth returns job queue diagnostics.
func (c *Client) JobHealth() (*JobHealthResponse, error) {
	var resp JobHealthResponse
	if err := c.client.Call("Collator.JobHealth", JobHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DatabaseHealth retrieves detailed database diagnostics.
func (c *Client) DatabaseHealth() (*DatabaseHealthResponse, error) {
	var resp DatabaseHealthResponse
	if err := c.client.Call("Collator.DatabaseHealth", DatabaseHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Collator.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail returns log lines from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Collator.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
