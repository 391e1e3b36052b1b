package deluge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
)

// Transport sends one JSON body and returns the JSON reply. Non-2xx replies
// must come back as *TransportError.
type Transport interface {
	Post(ctx context.Context, url string, body []byte) ([]byte, error)
	Close() error
}

// httpTransport keeps the Web UI session cookie in a jar so auth.login
// carries over to later calls.
type httpTransport struct {
	http *http.Client
}

func newHTTPTransport(client *http.Client) *httpTransport {
	if client == nil {
		client = &http.Client{}
	}
	if client.Jar == nil {
		jar, _ := cookiejar.New(nil)
		client.Jar = jar
	}
	return &httpTransport{http: client}
}

func (t *httpTransport) Post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, &TransportError{Reason: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Reason: fmt.Sprintf("reading response: %v", err), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Reason: reasonPhrase(resp)}
	}

	return respBody, nil
}

func (t *httpTransport) Close() error {
	t.http.CloseIdleConnections()
	// Drop the session cookie so a closed client cannot ride on it.
	jar, _ := cookiejar.New(nil)
	t.http.Jar = jar
	return nil
}

// reasonPhrase extracts "Not Found" from "404 Not Found".
func reasonPhrase(resp *http.Response) string {
	if _, reason, ok := strings.Cut(resp.Status, " "); ok && reason != "" {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}
