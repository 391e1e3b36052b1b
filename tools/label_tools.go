package tools

import (
	"context"
	"fmt"

	"github.com/jessielw/deluge-web-client/deluge"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerLabelTools(s *server.MCPServer, d *delugeTools) {
	s.AddTool(
		mcp.NewTool("deluge_labels",
			mcp.WithDescription("List labels, create a label, or assign a label to a torrent (requires the Label plugin)"),
			mcp.WithString("action", mcp.Description("Action: list (default), add, set")),
			mcp.WithString("label", mcp.Description("Label name for add/set (lowercased)")),
			mcp.WithString("id", mcp.Description("Torrent info hash for set")),
		),
		d.handleLabels,
	)
}

func (d *delugeTools) handleLabels(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := mcp.ParseString(req, "action", "list")
	label := mcp.ParseString(req, "label", "")
	id := mcp.ParseString(req, "id", "")

	switch action {
	case "list":
		var labels []string
		err := d.with(ctx, func(c *deluge.Client) error {
			resp, err := c.GetLabels(ctx)
			if err != nil {
				return err
			}
			return resp.Decode(&labels)
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list labels: %v", err)), nil
		}
		return d.jsonResult(labels), nil

	case "add":
		if label == "" {
			return mcp.NewToolResultError("label is required"), nil
		}
		var existed bool
		err := d.with(ctx, func(c *deluge.Client) error {
			resp, err := c.AddLabel(ctx, label)
			if err != nil {
				return err
			}
			existed = !resp.Error.IsZero()
			return nil
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if existed {
			return mcp.NewToolResultText(fmt.Sprintf("Label %q already exists", label)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Label %q created", label)), nil

	case "set":
		if label == "" || id == "" {
			return mcp.NewToolResultError("label and id are required"), nil
		}
		err := d.with(ctx, func(c *deluge.Client) error {
			_, err := c.SetLabel(ctx, id, label)
			return err
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to set label: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Labelled %s as %q", id, label)), nil
	}

	return mcp.NewToolResultError(fmt.Sprintf("unknown action %q (use: list, add, set)", action)), nil
}
