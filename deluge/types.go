package deluge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Request is the JSON-RPC envelope sent to the Web UI.
type Request struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
	ID     int    `json:"id"`
}

// Response is a decoded reply envelope. Error has already been normalized.
type Response struct {
	Result json.RawMessage `json:"result"`
	Error  RPCError        `json:"error"`
	ID     *int            `json:"id"`
}

// IsNull reports whether the result is absent or JSON null.
func (r *Response) IsNull() bool {
	trimmed := bytes.TrimSpace(r.Result)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Decode unmarshals the result into v.
func (r *Response) Decode(v any) error {
	if r.IsNull() {
		return fmt.Errorf("result is null")
	}
	if err := json.Unmarshal(r.Result, v); err != nil {
		return fmt.Errorf("decoding result: %w", err)
	}
	return nil
}

// Bool interprets the result with the server's truthiness: null, false,
// zero, empty strings and empty containers are all false.
func (r *Response) Bool() bool {
	if r.IsNull() {
		return false
	}
	var v any
	if err := json.Unmarshal(r.Result, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return false
}

// AsString returns the result when it is a JSON string.
func (r *Response) AsString() (string, bool) {
	var s string
	if r.IsNull() || json.Unmarshal(r.Result, &s) != nil {
		return "", false
	}
	return s, true
}

// ErrorKind tags the shape of an RPCError.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorPlain
	ErrorStructured
)

// RPCError is the error field of a reply. The server sends either null, a
// bare message string, or an object carrying message and code.
type RPCError struct {
	Kind    ErrorKind
	Message string
	Code    int
}

// PlainError builds a message-only error.
func PlainError(msg string) RPCError {
	return RPCError{Kind: ErrorPlain, Message: msg}
}

// IsZero reports whether no error is present.
func (e RPCError) IsZero() bool {
	return e.Kind == ErrorNone
}

// Contains reports whether the error message contains substr.
func (e RPCError) Contains(substr string) bool {
	return e.Kind != ErrorNone && strings.Contains(e.Message, substr)
}

func (e RPCError) String() string {
	switch e.Kind {
	case ErrorPlain:
		return e.Message
	case ErrorStructured:
		return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
	}
	return ""
}

func (e *RPCError) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*e = RPCError{}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '"':
		var msg string
		if err := json.Unmarshal(trimmed, &msg); err != nil {
			return err
		}
		msg = NormalizeErrorMessage(msg)
		if msg != "" {
			*e = PlainError(msg)
		}
		return nil
	case '{':
		var obj struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		// {} and {"message": "", "code": 0} carry nothing; the Web UI means no error.
		if obj.Message == "" && obj.Code == 0 {
			return nil
		}
		*e = RPCError{Kind: ErrorStructured, Message: obj.Message, Code: obj.Code}
		return nil
	}

	// Anything else (numbers, bools) is kept verbatim as a message.
	if bytes.Equal(trimmed, []byte("false")) {
		return nil
	}
	*e = PlainError(string(trimmed))
	return nil
}

func (e RPCError) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case ErrorPlain:
		return json.Marshal(e.Message)
	case ErrorStructured:
		return json.Marshal(map[string]any{"message": e.Message, "code": e.Code})
	}
	return []byte("null"), nil
}

// NormalizeErrorMessage removes the stray closing bracket the Web UI leaves
// at the end of traceback messages and trims surrounding whitespace.
func NormalizeErrorMessage(msg string) string {
	msg = strings.TrimRightFunc(msg, isSpace)
	msg = strings.TrimSuffix(msg, "]")
	return strings.TrimSpace(msg)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}

// AddOptions are the per-torrent options sent with every add call.
type AddOptions struct {
	AddPaused        bool
	SeedMode         bool
	AutoManaged      bool
	DownloadLocation string
}

func (o AddOptions) params() map[string]any {
	args := map[string]any{
		"add_paused":   o.AddPaused,
		"seed_mode":    o.SeedMode,
		"auto_managed": o.AutoManaged,
	}
	if o.DownloadLocation != "" {
		args["download_location"] = o.DownloadLocation
	}
	return args
}

// Tracker is one entry for core.set_torrent_trackers.
type Tracker struct {
	URL  string `json:"url"`
	Tier int    `json:"tier"`
}

// Host is one row of web.get_hosts: id, address, port, user.
type Host struct {
	ID      string `json:"id"`
	Address string `json:"address,omitempty"`
	Port    int    `json:"port,omitempty"`
	User    string `json:"user,omitempty"`
}

// TorrentStatus is a subset of the fields core.get_torrent_status can return.
type TorrentStatus struct {
	Hash          string  `json:"hash,omitempty"`
	Name          string  `json:"name,omitempty"`
	State         string  `json:"state,omitempty"`
	Progress      float64 `json:"progress,omitempty"`
	TotalSize     int64   `json:"total_size,omitempty"`
	TotalDone     int64   `json:"total_done,omitempty"`
	DownloadRate  int64   `json:"download_payload_rate,omitempty"`
	UploadRate    int64   `json:"upload_payload_rate,omitempty"`
	ETA           int64   `json:"eta,omitempty"`
	Ratio         float64 `json:"ratio,omitempty"`
	Label         string  `json:"label,omitempty"`
	DownloadLoc   string  `json:"download_location,omitempty"`
	NumSeeds      int     `json:"num_seeds,omitempty"`
	NumPeers      int     `json:"num_peers,omitempty"`
	Message       string  `json:"message,omitempty"`
	TimeAdded     float64 `json:"time_added,omitempty"`
	IsFinished    bool    `json:"is_finished,omitempty"`
	TrackerHost   string  `json:"tracker_host,omitempty"`
	TrackerStatus string  `json:"tracker_status,omitempty"`
}

// DefaultStatusKeys are requested when the caller gives no keys.
var DefaultStatusKeys = []string{
	"hash", "name", "state", "progress", "total_size", "total_done",
	"download_payload_rate", "upload_payload_rate", "eta", "ratio",
	"label", "download_location", "num_seeds", "num_peers", "message",
}
