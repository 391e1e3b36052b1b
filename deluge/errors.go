package deluge

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("deluge: client is closed")

// TransportError is a failed HTTP round trip. StatusCode is zero when the
// request never produced a response.
type TransportError struct {
	StatusCode int
	Reason     string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("failed to execute call: %s", e.Reason)
	}
	return fmt.Sprintf("failed to execute call. Response code: %d. Reason: %s", e.StatusCode, e.Reason)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is a decoded reply whose error field was populated.
type ProtocolError struct {
	Request Request
	Err     RPCError
}

func (e *ProtocolError) Error() string {
	payload, _ := json.Marshal(e.Request)
	return fmt.Sprintf("payload: %s, error: %s", payload, e.Err)
}

// IngestionError is a transport failure on one of the core.add_torrent_* calls.
// Nothing was added when it is returned.
type IngestionError struct {
	StatusCode int
	Reason     string
	Err        error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("failed to upload file. Status code: %d, Reason: %s", e.StatusCode, e.Reason)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// PartialUploadError reports a torrent that was added but could not be
// labelled or started. The torrent stays on the daemon.
type PartialUploadError struct {
	InfoHash string
	Step     string
	Err      error
}

func (e *PartialUploadError) Error() string {
	return fmt.Sprintf("torrent %s added but %s failed: %v", e.InfoHash, e.Step, e.Err)
}

func (e *PartialUploadError) Unwrap() error { return e.Err }

// BatchError identifies the source that aborted UploadMany.
type BatchError struct {
	Source string
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("failed to upload %s: %v", e.Source, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// SessionError is returned by Open when the login/connect handshake fails.
type SessionError struct {
	Message string
}

func (e *SessionError) Error() string {
	return "deluge session: " + e.Message
}
