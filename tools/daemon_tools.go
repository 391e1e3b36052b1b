package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jessielw/deluge-web-client/deluge"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerDaemonTools(s *server.MCPServer, d *delugeTools) {
	// deluge_free_space
	s.AddTool(
		mcp.NewTool("deluge_free_space",
			mcp.WithDescription("Check free disk space on the daemon host"),
			mcp.WithString("path", mcp.Description("Path to check (defaults to the daemon's download location)")),
		),
		d.handleFreeSpace,
	)

	// deluge_path_size
	s.AddTool(
		mcp.NewTool("deluge_path_size",
			mcp.WithDescription("Get the on-disk size of a path on the daemon host"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to measure")),
		),
		d.handlePathSize,
	)

	// deluge_hosts
	s.AddTool(
		mcp.NewTool("deluge_hosts",
			mcp.WithDescription("List daemons known to the Web UI and whether it is connected"),
		),
		d.handleHosts,
	)

	// deluge_daemon_info
	s.AddTool(
		mcp.NewTool("deluge_daemon_info",
			mcp.WithDescription("Get libtorrent version, listen port, port reachability and plugins"),
		),
		d.handleDaemonInfo,
	)

	// deluge_call
	s.AddTool(
		mcp.NewTool("deluge_call",
			mcp.WithDescription("Call any Web UI JSON-RPC method directly (e.g. core.get_config_value). Returns result and error as sent by the server."),
			mcp.WithString("method", mcp.Required(), mcp.Description("RPC method name (e.g. core.get_session_status)")),
			mcp.WithString("params", mcp.Description("Positional params as a JSON array (default: [])")),
		),
		d.handleRawCall,
	)
}

func (d *delugeTools) handleFreeSpace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := mcp.ParseString(req, "path", "")

	var free int64
	err := d.with(ctx, func(c *deluge.Client) error {
		resp, err := c.GetFreeSpace(ctx, path)
		if err != nil {
			return err
		}
		return resp.Decode(&free)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to check free space: %v", err)), nil
	}

	where := path
	if where == "" {
		where = "download location"
	}
	return mcp.NewToolResultText(fmt.Sprintf("Free space at %s: %s (%d bytes)", where, humanize.IBytes(uint64(max(free, 0))), free)), nil
}

func (d *delugeTools) handlePathSize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := mcp.ParseString(req, "path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}

	var size int64
	err := d.with(ctx, func(c *deluge.Client) error {
		resp, err := c.GetPathSize(ctx, path)
		if err != nil {
			return err
		}
		return resp.Decode(&size)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get path size: %v", err)), nil
	}
	if size < 0 {
		return mcp.NewToolResultError(fmt.Sprintf("path %s does not exist on the daemon host", path)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Size of %s: %s (%d bytes)", path, humanize.IBytes(uint64(size)), size)), nil
}

func (d *delugeTools) handleHosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type hostsInfo struct {
		Connected bool          `json:"connected"`
		Session   string        `json:"session"`
		Hosts     []deluge.Host `json:"hosts"`
	}

	var info hostsInfo
	err := d.with(ctx, func(c *deluge.Client) error {
		connected, err := c.CheckConnected(ctx)
		if err != nil {
			return err
		}
		info.Connected = connected.Bool()
		info.Session = c.State().String()

		resp, err := c.GetHosts(ctx)
		if err != nil {
			return err
		}
		info.Hosts, err = deluge.ParseHosts(resp)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list hosts: %v", err)), nil
	}
	return d.jsonResult(info), nil
}

func (d *delugeTools) handleDaemonInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type daemonInfo struct {
		Libtorrent string          `json:"libtorrent_version"`
		ListenPort int             `json:"listen_port"`
		PortOpen   bool            `json:"listen_port_open"`
		Plugins    json.RawMessage `json:"plugins,omitempty"`
	}

	var info daemonInfo
	err := d.with(ctx, func(c *deluge.Client) error {
		resp, err := c.GetLibtorrentVersion(ctx)
		if err != nil {
			return err
		}
		info.Libtorrent, _ = resp.AsString()

		if resp, err = c.GetListenPort(ctx); err != nil {
			return err
		}
		if err := resp.Decode(&info.ListenPort); err != nil {
			return err
		}

		if info.PortOpen, err = c.TestListenPort(ctx); err != nil {
			return err
		}

		if resp, err = c.GetPlugins(ctx); err != nil {
			return err
		}
		info.Plugins = resp.Result
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get daemon info: %v", err)), nil
	}
	return d.jsonResult(info), nil
}

func (d *delugeTools) handleRawCall(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	method := mcp.ParseString(req, "method", "")
	paramsStr := mcp.ParseString(req, "params", "")

	if method == "" {
		return mcp.NewToolResultError("method is required"), nil
	}

	var params []any
	if paramsStr != "" {
		if err := json.Unmarshal([]byte(paramsStr), &params); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid params JSON (expected an array): %v", err)), nil
		}
	}

	var resp *deluge.Response
	err := d.with(ctx, func(c *deluge.Client) error {
		var err error
		resp, err = c.Call(ctx, method, params, deluge.WithoutRaise())
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("call failed: %v", err)), nil
	}

	out := map[string]any{"result": resp.Result, "error": resp.Error}
	if resp.IsNull() {
		out["result"] = nil
	}
	return d.jsonResult(out), nil
}
