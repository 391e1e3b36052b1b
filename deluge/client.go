// Package deluge is a client for the JSON-RPC API served by the Deluge Web UI.
//
// A Client is not safe for concurrent use. Calls are sequential blocking
// round trips that share one request-id counter and one HTTP session; callers
// that need concurrency must serialize access themselves.
package deluge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DefaultTimeout bounds each call unless overridden.
const DefaultTimeout = 30 * time.Second

const apiSuffix = "json"

// Client is a Deluge Web UI JSON-RPC client.
type Client struct {
	url       string
	password  string
	id        int
	timeout   time.Duration
	transport Transport
	fs        afero.Fs
	log       *zap.Logger
	state     SessionState
	closed    bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sends calls through hc. A cookie jar is added if hc has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.transport = newHTTPTransport(hc) }
}

// WithTransport replaces the HTTP transport entirely.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithTimeout sets the default per-call timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger. The default logs nothing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithFs sets the filesystem torrent files are read from.
func WithFs(fs afero.Fs) Option {
	return func(c *Client) { c.fs = fs }
}

// NewClient creates a client for the Web UI at url. No request is made until
// Login or the first call.
func NewClient(url, password string, opts ...Option) *Client {
	c := &Client{
		url:      BuildURL(url),
		password: password,
		timeout:  DefaultTimeout,
		fs:       afero.NewOsFs(),
		log:      zap.NewNop(),
		state:    StateUnauthenticated,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = newHTTPTransport(nil)
	}
	return c
}

// BuildURL coerces a Web UI address into its JSON endpoint, e.g.
// "http://host:8112/" becomes "http://host:8112/json".
func BuildURL(url string) string {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if !strings.HasSuffix(url, "/"+apiSuffix) {
		url += "/" + apiSuffix
	}
	return url
}

// URL returns the normalized endpoint.
func (c *Client) URL() string { return c.url }

// ID returns the id the next call will use.
func (c *Client) ID() int { return c.id }

type callOptions struct {
	raise   bool
	timeout time.Duration
}

// CallOption adjusts a single Call.
type CallOption func(*callOptions)

// WithoutRaise returns replies with a populated error field instead of
// turning them into a *ProtocolError.
func WithoutRaise() CallOption {
	return func(o *callOptions) { o.raise = false }
}

// WithCallTimeout bounds this call only.
func WithCallTimeout(d time.Duration) CallOption {
	return func(o *callOptions) { o.timeout = d }
}

// Call sends method with positional params and decodes the reply. Every call
// that reaches the transport advances the id counter by one, whether or not
// it succeeds.
func (c *Client) Call(ctx context.Context, method string, params []any, opts ...CallOption) (*Response, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if method == "" {
		return nil, fmt.Errorf("method is required")
	}

	co := callOptions{raise: true, timeout: c.timeout}
	for _, opt := range opts {
		opt(&co)
	}

	if params == nil {
		params = []any{}
	}
	req := Request{Method: method, Params: params, ID: c.id}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	if co.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, co.timeout)
		defer cancel()
	}

	c.log.Debug("rpc call", zap.String("method", method), zap.Int("id", req.ID))
	body, err := c.transport.Post(ctx, c.url, data)
	c.id++
	if err != nil {
		c.log.Error("rpc transport failure", zap.String("method", method), zap.Int("id", req.ID), zap.Error(err))
		var te *TransportError
		if errors.As(err, &te) {
			return nil, err
		}
		return nil, &TransportError{Reason: err.Error(), Err: err}
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding response to %s: %w", method, err)
	}

	if !resp.Error.IsZero() {
		c.log.Debug("rpc error reply", zap.String("method", method), zap.Int("id", req.ID), zap.Stringer("error", resp.Error))
		if co.raise {
			return nil, &ProtocolError{Request: req, Err: resp.Error}
		}
	}

	return &resp, nil
}

// Close releases the HTTP session. The client cannot be used afterwards.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.state = StateUnauthenticated
	return c.transport.Close()
}
