package deluge

import (
	"context"
)

// Disconnect detaches the Web UI from its daemon. This affects every other
// Web UI session for the same user, so only use it when needed.
func (c *Client) Disconnect(ctx context.Context) (*Response, error) {
	return c.Call(ctx, "web.disconnect", nil)
}

// CheckConnected reports whether the Web UI is attached to a daemon.
func (c *Client) CheckConnected(ctx context.Context) (*Response, error) {
	return c.Call(ctx, "web.connected", nil)
}

// GetHosts lists the daemons known to the Web UI.
func (c *Client) GetHosts(ctx context.Context) (*Response, error) {
	return c.Call(ctx, "web.get_hosts", nil)
}

// GetHostStatus returns the status row for hostID.
func (c *Client) GetHostStatus(ctx context.Context, hostID string) (*Response, error) {
	return c.Call(ctx, "web.get_host_status", []any{hostID})
}

// ConnectToHost attaches the Web UI to hostID.
func (c *Client) ConnectToHost(ctx context.Context, hostID string) (*Response, error) {
	return c.Call(ctx, "web.connect", []any{hostID})
}

// GetPlugins returns enabled and available plugins.
func (c *Client) GetPlugins(ctx context.Context) (*Response, error) {
	return c.Call(ctx, "web.get_plugins", nil)
}

// GetTorrentFiles returns the file tree of a torrent.
func (c *Client) GetTorrentFiles(ctx context.Context, torrentID string) (*Response, error) {
	return c.Call(ctx, "web.get_torrent_files", []any{torrentID})
}

// ResumeTorrent starts a single torrent.
func (c *Client) ResumeTorrent(ctx context.Context, torrentID string) (*Response, error) {
	return c.Call(ctx, "core.resume_torrent", []any{torrentID})
}

// ResumeTorrents starts several torrents.
func (c *Client) ResumeTorrents(ctx context.Context, torrentIDs []string) (*Response, error) {
	return c.Call(ctx, "core.resume_torrents", []any{torrentIDs})
}

// PauseTorrent pauses a single torrent.
func (c *Client) PauseTorrent(ctx context.Context, torrentID string) (*Response, error) {
	return c.Call(ctx, "core.pause_torrent", []any{torrentID})
}

// PauseTorrents pauses several torrents.
func (c *Client) PauseTorrents(ctx context.Context, torrentIDs []string) (*Response, error) {
	return c.Call(ctx, "core.pause_torrents", []any{torrentIDs})
}

// RemoveTorrent removes a torrent, optionally deleting its data.
func (c *Client) RemoveTorrent(ctx context.Context, torrentID string, removeData bool) (*Response, error) {
	return c.Call(ctx, "core.remove_torrent", []any{torrentID, removeData})
}

// RemoveTorrents removes several torrents, optionally deleting their data.
func (c *Client) RemoveTorrents(ctx context.Context, torrentIDs []string, removeData bool) (*Response, error) {
	return c.Call(ctx, "core.remove_torrents", []any{torrentIDs, removeData})
}

// GetTorrentStatus returns the requested keys for one torrent. Empty keys
// asks the daemon for everything.
func (c *Client) GetTorrentStatus(ctx context.Context, torrentID string, keys []string, diff bool) (*Response, error) {
	if keys == nil {
		keys = []string{}
	}
	return c.Call(ctx, "core.get_torrent_status", []any{torrentID, keys, diff})
}

// GetTorrentsStatus returns keys for every torrent matching filter, keyed by
// info hash.
func (c *Client) GetTorrentsStatus(ctx context.Context, filter map[string]any, keys []string, diff bool) (*Response, error) {
	if filter == nil {
		filter = map[string]any{}
	}
	if keys == nil {
		keys = []string{}
	}
	return c.Call(ctx, "core.get_torrents_status", []any{filter, keys, diff})
}

// SetTorrentTrackers replaces the tracker list of a torrent.
func (c *Client) SetTorrentTrackers(ctx context.Context, torrentID string, trackers []Tracker) (*Response, error) {
	if trackers == nil {
		trackers = []Tracker{}
	}
	return c.Call(ctx, "core.set_torrent_trackers", []any{torrentID, trackers})
}

// GetFreeSpace returns free bytes at path, or at the default download
// location when path is empty.
func (c *Client) GetFreeSpace(ctx context.Context, path string) (*Response, error) {
	return c.Call(ctx, "core.get_free_space", optionalPath(path))
}

// GetPathSize returns the size in bytes of path (-1 if it does not exist).
func (c *Client) GetPathSize(ctx context.Context, path string) (*Response, error) {
	return c.Call(ctx, "core.get_path_size", optionalPath(path))
}

// GetLibtorrentVersion returns the daemon's libtorrent version string.
func (c *Client) GetLibtorrentVersion(ctx context.Context) (*Response, error) {
	return c.Call(ctx, "core.get_libtorrent_version", nil)
}

// GetListenPort returns the port the daemon accepts peers on.
func (c *Client) GetListenPort(ctx context.Context) (*Response, error) {
	return c.Call(ctx, "core.get_listen_port", nil)
}

// TestListenPort asks the daemon to check whether its listen port is open.
func (c *Client) TestListenPort(ctx context.Context) (bool, error) {
	resp, err := c.Call(ctx, "core.test_listen_port", nil)
	if err != nil {
		return false, err
	}
	return resp.Bool(), nil
}

func optionalPath(path string) []any {
	if path == "" {
		return nil
	}
	return []any{path}
}
