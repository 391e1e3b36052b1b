package deluge

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	Method string
	Params []json.RawMessage
	ID     int
	Header http.Header
}

// handlerFunc returns the result and error fields of the reply.
type handlerFunc func(params []json.RawMessage) (result any, rpcErr any)

// fakeDeluge is an httptest stand-in for the Web UI JSON endpoint.
type fakeDeluge struct {
	t        *testing.T
	server   *httptest.Server
	mu       sync.Mutex
	calls    []recordedCall
	handlers map[string]handlerFunc
	statuses map[string]int
}

func newFakeDeluge(t *testing.T) *fakeDeluge {
	t.Helper()
	f := &fakeDeluge{
		t:        t,
		handlers: make(map[string]handlerFunc),
		statuses: make(map[string]int),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeDeluge) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/json" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req struct {
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
		ID     int               `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Method: req.Method, Params: req.Params, ID: req.ID, Header: r.Header.Clone()})
	status := f.statuses[req.Method]
	handler := f.handlers[req.Method]
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}

	var result, rpcErr any
	if handler != nil {
		result, rpcErr = handler(req.Params)
	} else {
		rpcErr = map[string]any{"message": "Unknown method", "code": 2}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"result": result, "error": rpcErr, "id": req.ID})
}

func (f *fakeDeluge) on(method string, fn handlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = fn
}

// reply makes method always succeed with result.
func (f *fakeDeluge) reply(method string, result any) {
	f.on(method, func([]json.RawMessage) (any, any) { return result, nil })
}

// fail makes method reply with an error field.
func (f *fakeDeluge) fail(method string, rpcErr any) {
	f.on(method, func([]json.RawMessage) (any, any) { return nil, rpcErr })
}

// status makes method answer with a bare HTTP status.
func (f *fakeDeluge) status(method string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[method] = code
}

func (f *fakeDeluge) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Method
	}
	return out
}

func (f *fakeDeluge) callsTo(method string) []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeDeluge) client(opts ...Option) *Client {
	return NewClient(f.server.URL, "secret", opts...)
}

// paramsJSON re-encodes recorded params for comparison with JSONEq.
func paramsJSON(t *testing.T, params []json.RawMessage) string {
	t.Helper()
	if params == nil {
		params = []json.RawMessage{}
	}
	data, err := json.Marshal(params)
	require.NoError(t, err)
	return string(data)
}
