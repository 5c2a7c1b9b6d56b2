// Package toolhost calls tools on a remote JSON-RPC tool host over HTTP.
//
// A call is one POST carrying a tools/call request. The host may answer with
// a single JSON document or a buffered event stream; either way the last
// parsable document is checked for protocol and tool errors, and the payload
// is returned after passing through jsonsafe.Normalize.
package toolhost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/venturelab/adsgw/internal/jsonsafe"
	"github.com/venturelab/adsgw/internal/logger"
)

const (
	// DefaultTimeout bounds a whole call, including reading the body.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxResponseBytes caps the buffered response body.
	DefaultMaxResponseBytes int64 = 32 << 20

	// DefaultServerID labels the tool host in RPC logs.
	DefaultServerID = "toolhost"
)

var logClient = logger.New("toolhost:client")

// lastID is shared by every client so ids stay unique within the process.
var lastID atomic.Int64

func init() {
	lastID.Store(time.Now().UnixMilli())
}

func nextID() int64 {
	return lastID.Add(1)
}

// Client invokes tools on a single tool host endpoint. It is safe for
// concurrent use.
type Client struct {
	url        string
	serverID   string
	searchTool string
	maxBody    int64
	headers    http.Header
	httpClient *http.Client
	custom     *http.Client
	timeout    time.Duration
	retries    int
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-call timeout. Zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRetries sets how many extra attempts are made when the request could
// not be delivered at all. Calls that reached the host are never repeated.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		c.retries = n
	}
}

// WithHeader adds a static header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Add(key, value) }
}

// WithBearerToken authenticates every request with the given token.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		if token != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithHTTPClient replaces the retrying transport with hc. Timeout and retry
// options are ignored when it is set.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.custom = hc }
}

// WithMaxResponseBytes caps how much of a response body is read.
func WithMaxResponseBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithServerID sets the label used for this host in RPC logs.
func WithServerID(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.serverID = id
		}
	}
}

// WithSearchTool sets the tool name used by Search.
func WithSearchTool(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.searchTool = name
		}
	}
}

// NewClient returns a client for the tool host at endpoint.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("tool host URL is empty")
	}

	c := &Client{
		url:        endpoint,
		serverID:   DefaultServerID,
		searchTool: DefaultSearchTool,
		maxBody:    DefaultMaxResponseBytes,
		headers:    http.Header{},
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.custom != nil {
		c.httpClient = c.custom
	} else {
		c.httpClient = c.newRetryingClient()
	}
	if len(c.headers) > 0 {
		base := c.httpClient.Transport
		hc := *c.httpClient
		hc.Transport = &headerTransport{Base: base, Headers: c.headers}
		c.httpClient = &hc
	}

	logClient.Printf("Created tool host client: url=%s, timeout=%s, retries=%d, headers=%d", c.url, c.timeout, c.retries, len(c.headers))
	return c, nil
}

func (c *Client) newRetryingClient() *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = c.retries
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = logClient
	rc.CheckRetry = retryUndelivered
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	hc := rc.StandardClient()
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	return hc
}

// retryUndelivered retries only when no response was received. Any response,
// whatever its status, ends the call.
func retryUndelivered(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if resp != nil || err == nil {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// URL returns the tool host endpoint.
func (c *Client) URL() string {
	return c.url
}

// SearchTool returns the tool name used by Search.
func (c *Client) SearchTool() string {
	return c.searchTool
}

// Invoke calls toolName with args and returns the normalized payload.
// Errors are one of *NetworkError, *ParseError, *ProtocolError or
// *ApplicationError.
func (c *Client) Invoke(ctx context.Context, toolName string, args map[string]any) (any, error) {
	id := nextID()
	logClient.Printf("Invoking tool: name=%s, id=%d", toolName, id)

	payload, err := encodeRequest(id, toolName, args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tools/call request: %w", err)
	}
	logger.LogRPCRequest(logger.RPCDirectionOutbound, c.serverID, MethodToolsCall, payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", acceptHeader)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.LogError("toolhost", "Tool host request failed: tool=%s, id=%d, error=%v", toolName, id, err)
		netErr := &NetworkError{Err: err}
		logger.LogRPCResponse(logger.RPCDirectionInbound, c.serverID, nil, netErr)
		return nil, netErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		netErr := &NetworkError{Err: fmt.Errorf("failed to read response body: %w", err)}
		logger.LogRPCResponse(logger.RPCDirectionInbound, c.serverID, nil, netErr)
		return nil, netErr
	}
	if int64(len(body)) > c.maxBody {
		tooLarge := newParseError(string(body[:c.maxBody]), resp.StatusCode, fmt.Sprintf("response exceeds %d bytes", c.maxBody))
		logger.LogWarn("toolhost", "Tool host response too large: tool=%s, id=%d, limit=%d", toolName, id, c.maxBody)
		logger.LogRPCResponse(logger.RPCDirectionInbound, c.serverID, nil, tooLarge)
		return nil, tooLarge
	}
	logClient.Printf("Received response: id=%d, status=%d, size=%d, elapsed=%s", id, resp.StatusCode, len(body), time.Since(start))

	doc, err := parseBody(body, resp.StatusCode)
	if err != nil {
		logger.LogRPCResponse(logger.RPCDirectionInbound, c.serverID, body, err)
		return nil, err
	}

	result, err := extractResult(doc)
	logger.LogRPCResponse(logger.RPCDirectionInbound, c.serverID, body, err)
	if err != nil {
		logger.LogWarn("toolhost", "Tool call failed: tool=%s, id=%d, error=%v", toolName, id, err)
		return nil, err
	}
	return jsonsafe.Normalize(result), nil
}

// encodeRequest builds the JSON-RPC 2.0 tools/call envelope.
func encodeRequest(id int64, toolName string, args map[string]any) ([]byte, error) {
	arguments := jsonsafe.Normalize(args)
	if arguments == nil {
		arguments = jsonsafe.NewObject()
	}
	params, err := json.Marshal(&sdk.CallToolParams{Name: toolName, Arguments: arguments})
	if err != nil {
		return nil, err
	}
	// MakeID takes ids in their decoded JSON form.
	reqID, err := jsonrpc.MakeID(float64(id))
	if err != nil {
		return nil, err
	}
	return jsonrpc.EncodeMessage(&jsonrpc.Request{
		ID:     reqID,
		Method: MethodToolsCall,
		Params: params,
	})
}
