package deluge

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// SourceKind selects the core.add_torrent_* method for a Source.
type SourceKind int

const (
	SourceFile SourceKind = iota
	SourceMagnet
	SourceURL
)

// Source is something the daemon can ingest: a .torrent file's bytes, a
// magnet URI or a URL pointing at a .torrent.
type Source struct {
	Kind SourceKind
	Name string
	Data []byte
	URI  string
}

// FileSource wraps the contents of a .torrent file.
func FileSource(name string, data []byte) Source {
	return Source{Kind: SourceFile, Name: name, Data: data}
}

// MagnetSource wraps a magnet URI.
func MagnetSource(uri string) Source {
	return Source{Kind: SourceMagnet, Name: uri, URI: uri}
}

// URLSource wraps a URL the daemon downloads the .torrent from.
func URLSource(url string) Source {
	return Source{Kind: SourceURL, Name: url, URI: url}
}

// SourceFor picks MagnetSource or URLSource from the scheme of s.
func SourceFor(s string) Source {
	if strings.HasPrefix(strings.ToLower(s), "magnet:") {
		return MagnetSource(s)
	}
	return URLSource(s)
}

func (s Source) call() (string, []any, error) {
	switch s.Kind {
	case SourceFile:
		if len(s.Data) == 0 {
			return "", nil, fmt.Errorf("torrent file %q is empty", s.Name)
		}
		return "core.add_torrent_file", []any{s.Name, base64.StdEncoding.EncodeToString(s.Data)}, nil
	case SourceMagnet:
		return "core.add_torrent_magnet", []any{s.URI}, nil
	case SourceURL:
		return "core.add_torrent_url", []any{s.URI}, nil
	}
	return "", nil, fmt.Errorf("unknown source kind %d", s.Kind)
}

// LoadTorrentFile reads a .torrent from the client's filesystem.
func (c *Client) LoadTorrentFile(path string) (Source, error) {
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return Source{}, fmt.Errorf("reading torrent %s: %w", path, err)
	}
	return FileSource(path, data), nil
}

// AddTorrent submits src without labelling or starting it and returns the
// raw reply.
func (c *Client) AddTorrent(ctx context.Context, src Source, opts AddOptions) (*Response, error) {
	method, params, err := src.call()
	if err != nil {
		return nil, err
	}
	resp, err := c.Call(ctx, method, append(params, opts.params()))
	if err != nil {
		var te *TransportError
		if errors.As(err, &te) {
			return nil, &IngestionError{StatusCode: te.StatusCode, Reason: te.Reason, Err: te}
		}
		return nil, err
	}
	return resp, nil
}

// Upload adds src, labels it when label is non-empty, then resumes it, and
// returns the info hash.
//
// The three steps are not atomic. If labelling or resuming fails the torrent
// stays on the daemon and a *PartialUploadError carrying its hash is
// returned.
func (c *Client) Upload(ctx context.Context, src Source, opts AddOptions, label string) (string, error) {
	resp, err := c.AddTorrent(ctx, src, opts)
	if err != nil {
		return "", err
	}

	infoHash, ok := resp.AsString()
	if !ok || infoHash == "" {
		return "", fmt.Errorf("adding %s returned no info hash", src.Name)
	}

	if label != "" {
		if err := c.applyLabel(ctx, infoHash, label); err != nil {
			return "", &PartialUploadError{InfoHash: infoHash, Step: "label", Err: err}
		}
	}

	if _, err := c.ResumeTorrent(ctx, infoHash); err != nil {
		return "", &PartialUploadError{InfoHash: infoHash, Step: "resume", Err: err}
	}

	c.log.Info("torrent added", zap.String("source", src.Name), zap.String("hash", infoHash), zap.String("label", label))
	return infoHash, nil
}

// UploadMany uploads sources one after another and returns name -> info
// hash. The first failure aborts the batch with a *BatchError naming the
// source; torrents added before it are left in place and not reported.
func (c *Client) UploadMany(ctx context.Context, sources []Source, opts AddOptions, label string) (map[string]string, error) {
	results := make(map[string]string, len(sources))
	for _, src := range sources {
		hash, err := c.Upload(ctx, src, opts, label)
		if err != nil {
			return nil, &BatchError{Source: displayName(src), Err: err}
		}
		results[resultKey(src)] = hash
	}
	return results, nil
}

// UploadTorrentFiles loads each path and uploads it. Results are keyed by
// file name without extension.
func (c *Client) UploadTorrentFiles(ctx context.Context, paths []string, opts AddOptions, label string) (map[string]string, error) {
	results := make(map[string]string, len(paths))
	for _, p := range paths {
		src, err := c.LoadTorrentFile(p)
		if err != nil {
			return nil, &BatchError{Source: filepath.Base(p), Err: err}
		}
		hash, err := c.Upload(ctx, src, opts, label)
		if err != nil {
			return nil, &BatchError{Source: displayName(src), Err: err}
		}
		results[resultKey(src)] = hash
	}
	return results, nil
}

func displayName(src Source) string {
	if src.Kind == SourceFile {
		return filepath.Base(src.Name)
	}
	return src.Name
}

func resultKey(src Source) string {
	if src.Kind == SourceFile {
		base := filepath.Base(src.Name)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return src.Name
}
