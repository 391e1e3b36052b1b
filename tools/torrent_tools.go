package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jessielw/deluge-web-client/deluge"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerTorrentTools(s *server.MCPServer, d *delugeTools) {
	// deluge_list_torrents
	s.AddTool(
		mcp.NewTool("deluge_list_torrents",
			mcp.WithDescription("List torrents with state, progress, rates and label. Use state/label to filter on the daemon and fields/filter/limit to shrink the output."),
			mcp.WithString("state", mcp.Description("Only torrents in this state (Allocating, Checking, Downloading, Seeding, Paused, Error, Queued, Moving)")),
			mcp.WithString("label", mcp.Description("Only torrents with this label")),
			mcp.WithString("fields", mcp.Description("Comma-separated fields to include (e.g. \"hash,name,progress\")")),
			mcp.WithString("filter", mcp.Description("Filter results. Format: \"field:op:value\". Ops: contains, eq, ne, gt, lt (e.g. \"name:contains:ubuntu\", \"progress:lt:100\")")),
			mcp.WithString("limit", mcp.Description("Max number of torrents to return")),
		),
		d.handleListTorrents,
	)

	// deluge_torrent_status
	s.AddTool(
		mcp.NewTool("deluge_torrent_status",
			mcp.WithDescription("Get status fields and files for a single torrent"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Torrent info hash")),
			mcp.WithString("keys", mcp.Description("Comma-separated status keys (defaults to a common set)")),
			mcp.WithBoolean("files", mcp.Description("Include the file tree")),
		),
		d.handleTorrentStatus,
	)

	// deluge_add_torrent
	s.AddTool(
		mcp.NewTool("deluge_add_torrent",
			mcp.WithDescription("Add a torrent by magnet link or URL, optionally label it, then start it"),
			mcp.WithString("url", mcp.Required(), mcp.Description("Magnet link or torrent URL")),
			mcp.WithString("download_location", mcp.Description("Download directory (optional)")),
			mcp.WithString("label", mcp.Description("Label to apply (optional, lowercased)")),
		),
		d.handleAddTorrent,
	)

	// deluge_upload_torrent_file
	s.AddTool(
		mcp.NewTool("deluge_upload_torrent_file",
			mcp.WithDescription("Upload one or more local .torrent files, optionally label them, then start them"),
			mcp.WithString("paths", mcp.Required(), mcp.Description("Comma-separated paths or JSON array of paths to .torrent files")),
			mcp.WithString("download_location", mcp.Description("Download directory (optional)")),
			mcp.WithString("label", mcp.Description("Label to apply (optional, lowercased)")),
		),
		d.handleUploadTorrentFile,
	)

	// deluge_manage_torrent
	s.AddTool(
		mcp.NewTool("deluge_manage_torrent",
			mcp.WithDescription("Manage torrents: pause, resume, remove, or remove_data"),
			mcp.WithString("action", mcp.Required(), mcp.Description("Action: pause, resume, remove, remove_data")),
			mcp.WithString("ids", mcp.Required(), mcp.Description("Comma-separated info hashes (or JSON array)")),
		),
		d.handleManageTorrent,
	)

	// deluge_set_trackers
	s.AddTool(
		mcp.NewTool("deluge_set_trackers",
			mcp.WithDescription("Replace the tracker list of a torrent"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Torrent info hash")),
			mcp.WithString("trackers", mcp.Required(), mcp.Description("Comma-separated tracker URLs; tiers follow list order")),
		),
		d.handleSetTrackers,
	)
}

func (d *delugeTools) handleListTorrents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stateStr := mcp.ParseString(req, "state", "")
	label := mcp.ParseString(req, "label", "")
	fieldsStr := mcp.ParseString(req, "fields", "")
	filterStr := mcp.ParseString(req, "filter", "")
	limitStr := mcp.ParseString(req, "limit", "")

	sh, err := parseShape(fieldsStr, filterStr, limitStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filter := map[string]any{}
	if stateStr != "" {
		state, err := deluge.ParseTorrentState(stateStr)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filter["state"] = state.String()
	}
	if label != "" {
		filter["label"] = label
	}

	var byHash map[string]map[string]any
	err = d.with(ctx, func(c *deluge.Client) error {
		resp, err := c.GetTorrentsStatus(ctx, filter, deluge.DefaultStatusKeys, false)
		if err != nil {
			return err
		}
		return resp.Decode(&byHash)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list torrents: %v", err)), nil
	}
	if len(byHash) == 0 {
		return mcp.NewToolResultText("No torrents match."), nil
	}

	torrents := make([]map[string]any, 0, len(byHash))
	for hash, status := range byHash {
		if status == nil {
			status = map[string]any{}
		}
		status["hash"] = hash
		torrents = append(torrents, status)
	}
	sort.Slice(torrents, func(i, j int) bool {
		return fmt.Sprint(torrents[i]["name"]) < fmt.Sprint(torrents[j]["name"])
	})

	return d.jsonResult(sh.apply(torrents)), nil
}

func (d *delugeTools) handleTorrentStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(req, "id", "")
	keys := parseList(mcp.ParseString(req, "keys", ""))
	withFiles := mcp.ParseBoolean(req, "files", false)

	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	if len(keys) == 0 {
		keys = deluge.DefaultStatusKeys
	}

	out := map[string]any{}
	err := d.with(ctx, func(c *deluge.Client) error {
		resp, err := c.GetTorrentStatus(ctx, id, keys, false)
		if err != nil {
			return err
		}
		var status map[string]any
		if err := resp.Decode(&status); err != nil {
			return err
		}
		out["status"] = status

		if withFiles {
			files, err := c.GetTorrentFiles(ctx, id)
			if err != nil {
				return err
			}
			var tree any
			if err := files.Decode(&tree); err != nil {
				return err
			}
			out["files"] = tree
		}
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get torrent status: %v", err)), nil
	}
	if status, _ := out["status"].(map[string]any); len(status) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("torrent %s not found", id)), nil
	}
	return d.jsonResult(out), nil
}

func (d *delugeTools) handleAddTorrent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url := mcp.ParseString(req, "url", "")
	downloadLocation := mcp.ParseString(req, "download_location", "")
	label := mcp.ParseString(req, "label", d.cfg.Deluge.Label)

	if url == "" {
		return mcp.NewToolResultError("url is required"), nil
	}

	var hash string
	err := d.with(ctx, func(c *deluge.Client) error {
		var err error
		hash, err = c.Upload(ctx, deluge.SourceFor(url), d.addOptions(downloadLocation), label)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(uploadFailure(url, nil, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Added torrent %s", hash)), nil
}

func (d *delugeTools) handleUploadTorrentFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths := parseList(mcp.ParseString(req, "paths", ""))
	downloadLocation := mcp.ParseString(req, "download_location", "")
	label := mcp.ParseString(req, "label", d.cfg.Deluge.Label)

	if len(paths) == 0 {
		return mcp.NewToolResultError("paths is required"), nil
	}

	// One upload per lock so an expired session only retries the file that
	// has not reached the daemon yet.
	opts := d.addOptions(downloadLocation)
	results := make(map[string]string, len(paths))
	for _, p := range paths {
		var hash string
		err := d.with(ctx, func(c *deluge.Client) error {
			src, err := c.LoadTorrentFile(p)
			if err != nil {
				return err
			}
			hash, err = c.Upload(ctx, src, opts, label)
			return err
		})
		if err != nil {
			return mcp.NewToolResultError(uploadFailure(filepath.Base(p), results, err)), nil
		}
		results[strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))] = hash
	}
	return d.jsonResult(results), nil
}

func (d *delugeTools) handleManageTorrent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := mcp.ParseString(req, "action", "")
	ids := parseList(mcp.ParseString(req, "ids", ""))

	if len(ids) == 0 {
		return mcp.NewToolResultError("ids is required"), nil
	}

	var run func(c *deluge.Client) error
	switch action {
	case "pause":
		run = func(c *deluge.Client) error { _, err := c.PauseTorrents(ctx, ids); return err }
	case "resume":
		run = func(c *deluge.Client) error { _, err := c.ResumeTorrents(ctx, ids); return err }
	case "remove", "remove_data":
		if !d.cfg.AllowDestructive {
			return mcp.NewToolResultError("removing torrents is disabled; set allow_destructive: true in the config"), nil
		}
		removeData := action == "remove_data"
		run = func(c *deluge.Client) error { _, err := c.RemoveTorrents(ctx, ids, removeData); return err }
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown action %q (use: pause, resume, remove, remove_data)", action)), nil
	}

	if err := d.with(ctx, run); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("action %s failed: %v", action, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Successfully executed %s on torrent(s) %v", action, ids)), nil
}

func (d *delugeTools) handleSetTrackers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(req, "id", "")
	urls := parseList(mcp.ParseString(req, "trackers", ""))

	if id == "" || len(urls) == 0 {
		return mcp.NewToolResultError("id and trackers are required"), nil
	}

	trackers := make([]deluge.Tracker, len(urls))
	for i, u := range urls {
		trackers[i] = deluge.Tracker{URL: u, Tier: i}
	}

	err := d.with(ctx, func(c *deluge.Client) error {
		_, err := c.SetTorrentTrackers(ctx, id, trackers)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to set trackers: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Set %d tracker(s) on %s", len(trackers), id)), nil
}

// uploadFailure describes a failed upload and what did reach the daemon:
// the hashes of earlier files and the torrent left behind by a partial upload.
func uploadFailure(name string, done map[string]string, err error) string {
	msg := (&deluge.BatchError{Source: name, Err: err}).Error()
	var partial *deluge.PartialUploadError
	if errors.As(err, &partial) {
		msg += fmt.Sprintf("\nTorrent %s is on the daemon but was not fully set up.", partial.InfoHash)
	}
	if len(done) > 0 {
		data, _ := json.Marshal(done)
		msg += fmt.Sprintf("\nAlready uploaded: %s", data)
	}
	return msg
}
