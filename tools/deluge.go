package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jessielw/deluge-web-client/config"
	"github.com/jessielw/deluge-web-client/deluge"
	"github.com/jessielw/deluge-web-client/internal"
	"github.com/mark3labs/mcp-go/mcp"
)

// notAuthenticated is the error code the Web UI uses once its session
// cookie has expired.
const notAuthenticated = 1

// delugeTools shares one client between tool handlers. MCP requests can
// arrive concurrently but deluge.Client is single-threaded, so every use
// goes through with().
type delugeTools struct {
	cfg    *config.Config
	client *deluge.Client
	mu     sync.Mutex
}

func newDelugeTools(cfg *config.Config, client *deluge.Client) *delugeTools {
	return &delugeTools{cfg: cfg, client: client}
}

// with runs fn holding the client lock. If the Web UI reports an expired
// session, it logs in again and retries fn once, unless fn already changed
// something on the daemon.
func (d *delugeTools) with(ctx context.Context, fn func(*deluge.Client) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := fn(d.client)
	if !sessionExpired(err) {
		return err
	}

	internal.Logf("deluge session expired, logging in again")
	resp, loginErr := d.client.Login(ctx)
	if loginErr != nil {
		return fmt.Errorf("re-login: %w", loginErr)
	}
	if !resp.Bool() {
		return fmt.Errorf("re-login: %s", resp.Error.Message)
	}
	return fn(d.client)
}

// sessionExpired reports whether err is a "Not authenticated" reply that is
// safe to retry. A partial upload is not: its torrent is already added.
func sessionExpired(err error) bool {
	var pe *deluge.ProtocolError
	if !errors.As(err, &pe) || pe.Err.Kind != deluge.ErrorStructured || pe.Err.Code != notAuthenticated {
		return false
	}
	var partial *deluge.PartialUploadError
	var batch *deluge.BatchError
	return !errors.As(err, &partial) && !errors.As(err, &batch)
}

func (d *delugeTools) addOptions(downloadLocation string) deluge.AddOptions {
	opts := deluge.AddOptions{
		AddPaused:        d.cfg.Deluge.AddPaused,
		SeedMode:         d.cfg.Deluge.SeedMode,
		AutoManaged:      d.cfg.Deluge.AutoManaged,
		DownloadLocation: d.cfg.Deluge.DownloadLocation,
	}
	if downloadLocation != "" {
		opts.DownloadLocation = downloadLocation
	}
	return opts
}

// jsonResult renders v as indented JSON, cut to the configured size.
func (d *delugeTools) jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err))
	}
	return mcp.NewToolResultText(truncate(string(data), d.cfg.MaxResponseSizeKB))
}

func truncate(s string, maxKB int) string {
	limit := maxKB * 1024
	if maxKB <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit] + fmt.Sprintf("\n... truncated (%d bytes total, limit %d KB). Use fields/filter/limit to narrow the result.", len(s), maxKB)
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	// Try JSON array first
	if err := json.Unmarshal([]byte(s), &out); err == nil {
		return out
	}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
