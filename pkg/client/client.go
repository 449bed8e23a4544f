// Package client calls namespace methods through a gateway node.
//
//	c := client.New("http://localhost:8080/rpc")
//	var sum int
//	err := c.Namespace("Math").Call(ctx, "add", &sum, 2, 3)
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

const maxResponseSize = 8 << 20

// Error is an error envelope returned by the gateway.
type Error struct {
	Code    int
	Message string
	// Stack is the backend stack when the gateway exposes one.
	Stack string
	Data  map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway error %d: %s", e.Code, e.Message)
}

type request struct {
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	Session string `json:"session,omitempty"`
}

type response struct {
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *wireError      `json:"error"`
	Session string          `json:"session"`
}

type wireError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

// Client is safe for concurrent use. It keeps the latest session handed
// back by the gateway and sends it with every call.
type Client struct {
	url  string
	http *http.Client

	mu      sync.Mutex
	session string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSession starts the client with an existing session blob.
func WithSession(blob string) Option {
	return func(c *Client) { c.session = blob }
}

func New(gatewayURL string, opts ...Option) *Client {
	c := &Client{
		url:  gatewayURL,
		http: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session blob the next call will send.
func (c *Client) Session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Invoke calls namespace::method with positional args and returns the raw
// result. A gateway error envelope is returned as *Error.
func (c *Client) Invoke(ctx context.Context, namespace, method string, args ...any) (json.RawMessage, error) {
	if args == nil {
		args = []any{}
	}
	payload, err := json.Marshal(request{
		ID:      uuid.NewString(),
		Method:  namespace + "::" + method,
		Params:  args,
		Session: c.Session(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode call %s::%s: %w", namespace, method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, err
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway answered %s", httpResp.Status)
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}
	if resp.Error != nil {
		e := &Error{Code: resp.Error.Code, Message: resp.Error.Message, Data: resp.Error.Data}
		if stack, ok := resp.Error.Data["stack"].(string); ok {
			e.Stack = stack
		}
		return nil, e
	}
	if resp.Session != "" {
		c.mu.Lock()
		c.session = resp.Session
		c.mu.Unlock()
	}
	if len(resp.Result) == 0 {
		return json.RawMessage("null"), nil
	}
	return resp.Result, nil
}

// NamespaceClient binds a namespace so calls only name the method.
type NamespaceClient struct {
	c         *Client
	namespace string
}

func (c *Client) Namespace(namespace string) *NamespaceClient {
	return &NamespaceClient{c: c, namespace: namespace}
}

// Call invokes method and decodes the result into out, which may be nil.
func (n *NamespaceClient) Call(ctx context.Context, method string, out any, args ...any) error {
	raw, err := n.c.Invoke(ctx, n.namespace, method, args...)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode result of %s::%s: %w", n.namespace, method, err)
	}
	return nil
}
