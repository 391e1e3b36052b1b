package deluge

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// SessionState tracks the login/connect handshake.
type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticated
	StateConnected
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

const (
	msgLoginFailed       = "Login failed"
	msgHostConnectFailed = "Failed to connect to host"
)

// State returns where the last Login left the session.
func (c *Client) State() SessionState { return c.state }

// Login authenticates and makes sure the Web UI is attached to a daemon.
//
// A rejected password or an unreachable daemon is reported in the returned
// Response (Result false, Error set), not as an error; the error return is
// reserved for transport and protocol faults. Login is not retried.
func (c *Client) Login(ctx context.Context) (*Response, error) {
	resp, err := c.attemptLogin(ctx)
	if err != nil {
		c.state = StateFailed
		return nil, err
	}
	if !resp.Bool() {
		return c.failSession(msgLoginFailed), nil
	}
	c.state = StateAuthenticated

	connected, err := c.CheckConnected(ctx)
	if err != nil {
		c.state = StateFailed
		return nil, err
	}
	if connected.Bool() {
		c.state = StateConnected
		c.log.Debug("web ui already connected to a daemon")
		return sessionResult(true, RPCError{}), nil
	}

	hosts, err := c.GetHosts(ctx)
	if err != nil {
		c.state = StateFailed
		return nil, err
	}
	hostID, ok := firstHostID(hosts)
	if !ok {
		return c.failSession(msgHostConnectFailed), nil
	}

	if _, err := c.ConnectToHost(ctx, hostID); err != nil {
		c.state = StateFailed
		return nil, err
	}

	connected, err = c.CheckConnected(ctx)
	if err != nil {
		c.state = StateFailed
		return nil, err
	}
	if !connected.Bool() {
		return c.failSession(msgHostConnectFailed), nil
	}

	c.state = StateConnected
	c.log.Info("connected to deluge daemon", zap.String("host", hostID))
	return sessionResult(true, RPCError{}), nil
}

func (c *Client) attemptLogin(ctx context.Context) (*Response, error) {
	return c.Call(ctx, "auth.login", []any{c.password})
}

func (c *Client) failSession(msg string) *Response {
	c.state = StateFailed
	c.log.Warn("deluge session failed", zap.String("reason", msg))
	return sessionResult(false, PlainError(msg))
}

func sessionResult(ok bool, rpcErr RPCError) *Response {
	result, _ := json.Marshal(ok)
	return &Response{Result: result, Error: rpcErr}
}

// firstHostID pulls the id out of [[id, address, port, user], ...].
func firstHostID(resp *Response) (string, bool) {
	var rows []json.RawMessage
	if resp.IsNull() || json.Unmarshal(resp.Result, &rows) != nil || len(rows) == 0 {
		return "", false
	}
	var first []any
	if json.Unmarshal(rows[0], &first) != nil || len(first) == 0 {
		return "", false
	}
	switch first[0].(type) {
	case string, float64:
		id := hostID(first[0])
		return id, id != ""
	}
	return "", false
}

// hostID renders a host id cell. Numeric ids are written out in full, never
// in exponent form.
func hostID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// ParseHosts decodes a web.get_hosts result into Host values.
func ParseHosts(resp *Response) ([]Host, error) {
	var rows [][]any
	if err := resp.Decode(&rows); err != nil {
		return nil, err
	}
	hosts := make([]Host, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		h := Host{ID: hostID(row[0])}
		if len(row) > 1 {
			h.Address, _ = row[1].(string)
		}
		if len(row) > 2 {
			if port, ok := row[2].(float64); ok {
				h.Port = int(port)
			}
		}
		if len(row) > 3 {
			h.User, _ = row[3].(string)
		}
		hosts = append(hosts, h)
	}
	return hosts, nil
}

// Open creates a client and runs the Login handshake. When the handshake is
// refused the client is closed and a *SessionError is returned.
func Open(ctx context.Context, url, password string, opts ...Option) (*Client, error) {
	c := NewClient(url, password, opts...)
	resp, err := c.Login(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	if !resp.Bool() {
		c.Close()
		return nil, &SessionError{Message: resp.Error.Message}
	}
	return c, nil
}

// WithSession opens a session, hands it to fn and always closes it.
func WithSession(ctx context.Context, url, password string, fn func(*Client) error, opts ...Option) error {
	c, err := Open(ctx, url, password, opts...)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}
