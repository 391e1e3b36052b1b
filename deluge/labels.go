package deluge

import (
	"context"
	"fmt"
	"strings"
)

// labelExists is the message the Label plugin returns for a duplicate
// label.add. Only this English text is recognized.
const labelExists = "Label already exists"

// GetLabels lists the labels defined on the daemon.
func (c *Client) GetLabels(ctx context.Context) (*Response, error) {
	return c.Call(ctx, "label.get_labels", nil)
}

// AddLabel creates label (lowercased). A reply saying the label already
// exists is returned as-is, with its error still set; any other error
// reply fails the call.
func (c *Client) AddLabel(ctx context.Context, label string) (*Response, error) {
	req := []any{strings.ToLower(label)}
	resp, err := c.Call(ctx, "label.add", req, WithoutRaise())
	if err != nil {
		return nil, err
	}
	if !resp.Error.IsZero() && !resp.Error.Contains(labelExists) {
		return nil, fmt.Errorf("error adding label:\n%w", &ProtocolError{
			Request: Request{Method: "label.add", Params: req, ID: c.id - 1},
			Err:     resp.Error,
		})
	}
	return resp, nil
}

// SetLabel assigns label (lowercased) to a torrent.
func (c *Client) SetLabel(ctx context.Context, infoHash, label string) (*Response, error) {
	return c.Call(ctx, "label.set_torrent", []any{infoHash, strings.ToLower(label)})
}

// applyLabel makes sure label exists and binds it to infoHash.
func (c *Client) applyLabel(ctx context.Context, infoHash, label string) error {
	if _, err := c.AddLabel(ctx, label); err != nil {
		return err
	}
	_, err := c.SetLabel(ctx, infoHash, label)
	return err
}
