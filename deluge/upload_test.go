package deluge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHash = "ea5e27b8f2662a5d0cbd4b4f214c94190a1b2c3d"

func uploadReady(f *fakeDeluge) {
	f.reply("label.add", nil)
	f.reply("label.set_torrent", nil)
	f.reply("core.resume_torrent", nil)
}

func TestUpload_FileWithLabel(t *testing.T) {
	f := newFakeDeluge(t)
	f.reply("core.add_torrent_file", testHash)
	uploadReady(f)
	c := f.client()

	content := []byte("d8:announce...e")
	hash, err := c.Upload(context.Background(), FileSource("/torrents/movie.torrent", content),
		AddOptions{AddPaused: true, DownloadLocation: "/downloads"}, "Movies")
	require.NoError(t, err)
	assert.Equal(t, testHash, hash)

	assert.Equal(t, []string{"core.add_torrent_file", "label.add", "label.set_torrent", "core.resume_torrent"}, f.methods())

	add := f.callsTo("core.add_torrent_file")[0]
	want := `["/torrents/movie.torrent", "` + base64.StdEncoding.EncodeToString(content) + `",
		{"add_paused": true, "seed_mode": false, "auto_managed": false, "download_location": "/downloads"}]`
	assert.JSONEq(t, want, paramsJSON(t, add.Params))

	assert.JSONEq(t, `["movies"]`, paramsJSON(t, f.callsTo("label.add")[0].Params))
	assert.JSONEq(t, `["`+testHash+`", "movies"]`, paramsJSON(t, f.callsTo("label.set_torrent")[0].Params))
	assert.JSONEq(t, `["`+testHash+`"]`, paramsJSON(t, f.callsTo("core.resume_torrent")[0].Params))
	assert.Equal(t, 4, c.ID())
}

func TestUpload_WithoutLabelOnlyResumes(t *testing.T) {
	f := newFakeDeluge(t)
	f.reply("core.add_torrent_magnet", testHash)
	uploadReady(f)
	c := f.client()

	uri := "magnet:?xt=urn:btih:" + testHash + "&dn=example"
	hash, err := c.Upload(context.Background(), MagnetSource(uri), AddOptions{AutoManaged: true}, "")
	require.NoError(t, err)
	assert.Equal(t, testHash, hash)
	assert.Equal(t, []string{"core.add_torrent_magnet", "core.resume_torrent"}, f.methods())

	add := f.callsTo("core.add_torrent_magnet")[0]
	assert.JSONEq(t, `["`+uri+`", {"add_paused": false, "seed_mode": false, "auto_managed": true}]`, paramsJSON(t, add.Params))
}

func TestUpload_URL(t *testing.T) {
	f := newFakeDeluge(t)
	f.reply("core.add_torrent_url", testHash)
	uploadReady(f)
	c := f.client()

	_, err := c.Upload(context.Background(), SourceFor("http://example.com/file.torrent"), AddOptions{}, "")
	require.NoError(t, err)

	add := f.callsTo("core.add_torrent_url")
	require.Len(t, add, 1)
	assert.JSONEq(t, `["http://example.com/file.torrent", {"add_paused": false, "seed_mode": false, "auto_managed": false}]`, paramsJSON(t, add[0].Params))
}

func TestUpload_LabelAlreadyExistsStillBinds(t *testing.T) {
	f := newFakeDeluge(t)
	f.reply("core.add_torrent_url", testHash)
	uploadReady(f)
	f.fail("label.add", map[string]any{"message": "Label already exists", "code": 4})
	c := f.client()

	hash, err := c.Upload(context.Background(), URLSource("http://example.com/a.torrent"), AddOptions{}, "tv")
	require.NoError(t, err)
	assert.Equal(t, testHash, hash)
	assert.Len(t, f.callsTo("label.set_torrent"), 1)
	assert.Len(t, f.callsTo("core.resume_torrent"), 1)
}

func TestUpload_IngestionTransportFailure(t *testing.T) {
	f := newFakeDeluge(t)
	f.status("core.add_torrent_file", http.StatusInternalServerError)
	uploadReady(f)
	c := f.client()

	_, err := c.Upload(context.Background(), FileSource("a.torrent", []byte("x")), AddOptions{}, "movies")
	var ie *IngestionError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, http.StatusInternalServerError, ie.StatusCode)
	assert.Equal(t, "Internal Server Error", ie.Reason)
	assert.Contains(t, err.Error(), "Status code: 500")
	assert.Equal(t, []string{"core.add_torrent_file"}, f.methods())
}

func TestUpload_ResumeFailureLeavesTorrent(t *testing.T) {
	f := newFakeDeluge(t)
	f.reply("core.add_torrent_magnet", testHash)
	uploadReady(f)
	f.fail("core.resume_torrent", "Torrent is queued]")
	c := f.client()

	_, err := c.Upload(context.Background(), MagnetSource("magnet:?xt=urn:btih:"+testHash), AddOptions{}, "")
	var pue *PartialUploadError
	require.ErrorAs(t, err, &pue)
	assert.Equal(t, testHash, pue.InfoHash)
	assert.Equal(t, "resume", pue.Step)

	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Torrent is queued", pe.Err.Message)
}

func TestUpload_LabelFailureSkipsResume(t *testing.T) {
	f := newFakeDeluge(t)
	f.reply("core.add_torrent_magnet", testHash)
	uploadReady(f)
	f.fail("label.add", "Unknown method")
	c := f.client()

	_, err := c.Upload(context.Background(), MagnetSource("magnet:?xt=urn:btih:"+testHash), AddOptions{}, "movies")
	var pue *PartialUploadError
	require.ErrorAs(t, err, &pue)
	assert.Equal(t, "label", pue.Step)
	assert.Empty(t, f.callsTo("core.resume_torrent"))
}

func TestUpload_NoInfoHash(t *testing.T) {
	f := newFakeDeluge(t)
	f.reply("core.add_torrent_url", nil)
	c := f.client()

	_, err := c.Upload(context.Background(), URLSource("http://example.com/dupe.torrent"), AddOptions{}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no info hash")
	assert.Empty(t, f.callsTo("core.resume_torrent"))
}

func TestUploadMany_AbortsOnFailure(t *testing.T) {
	f := newFakeDeluge(t)
	f.on("core.add_torrent_file", func(params []json.RawMessage) (any, any) {
		var name string
		_ = json.Unmarshal(params[0], &name)
		if name == "path/to/torrent2.torrent" {
			return nil, "Torrent already in session]"
		}
		return testHash, nil
	})
	uploadReady(f)
	c := f.client()

	sources := []Source{
		FileSource("path/to/torrent1.torrent", []byte("one")),
		FileSource("path/to/torrent2.torrent", []byte("two")),
	}
	results, err := c.UploadMany(context.Background(), sources, AddOptions{}, "")
	assert.Nil(t, results)

	var be *BatchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "torrent2.torrent", be.Source)
	assert.Contains(t, err.Error(), "failed to upload torrent2.torrent:")

	adds := f.callsTo("core.add_torrent_file")
	require.Len(t, adds, 2)
	var first string
	require.NoError(t, json.Unmarshal(adds[0].Params[0], &first))
	assert.Equal(t, "path/to/torrent1.torrent", first)
	assert.Len(t, f.callsTo("core.resume_torrent"), 1)
}

func TestUploadTorrentFiles(t *testing.T) {
	f := newFakeDeluge(t)
	f.reply("core.add_torrent_file", testHash)
	uploadReady(f)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/watch/torrent1.torrent", []byte("one"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/watch/torrent2.torrent", []byte("two"), 0o644))
	c := f.client(WithFs(fs))

	results, err := c.UploadTorrentFiles(context.Background(),
		[]string{"/watch/torrent1.torrent", "/watch/torrent2.torrent"},
		AddOptions{DownloadLocation: "/downloads"}, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"torrent1": testHash, "torrent2": testHash}, results)
	assert.Len(t, f.callsTo("core.add_torrent_file"), 2)
}

func TestUploadTorrentFiles_MissingFile(t *testing.T) {
	f := newFakeDeluge(t)
	c := f.client(WithFs(afero.NewMemMapFs()))

	_, err := c.UploadTorrentFiles(context.Background(), []string{"/watch/missing.torrent"}, AddOptions{}, "")
	var be *BatchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "missing.torrent", be.Source)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, f.methods())
}

func TestSourceFor(t *testing.T) {
	assert.Equal(t, SourceMagnet, SourceFor("MAGNET:?xt=urn:btih:abc").Kind)
	assert.Equal(t, SourceURL, SourceFor("https://example.com/a.torrent").Kind)
}
