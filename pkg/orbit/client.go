// Package orbit is a client for the ORBIT chat completion API. It speaks the
// server's /v1/chat endpoint in both its forms: a single JSON response, or a
// stream of newline-delimited events decoded incrementally as the transport
// delivers bytes.
package orbit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/schmitech/orbit-go/pkg/httpx"
)

const chatPath = "/v1/chat"

// ClientConfig carries everything needed to talk to one ORBIT server.
// APIKey and SessionID are optional; when empty the matching header is not
// sent and the server decides whether to allow the request.
type ClientConfig struct {
	BaseURL   string
	APIKey    string
	SessionID string
}

// Client issues chat calls against a single ORBIT server. It is safe for
// concurrent use: every call owns its request state and decoder, and
// concurrent calls share only the transport's connection pool.
type Client struct {
	httpClient *http.Client
	baseURL    string
	endpoint   string
	apiKey     string
	sessionID  string
}

// NewClient builds a Client from cfg. It fails with a *TransportInitError
// when the base URL is not an absolute http(s) URL or the underlying
// transport cannot be initialized.
func NewClient(cfg ClientConfig) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &TransportInitError{Reason: fmt.Sprintf("invalid base URL %q", cfg.BaseURL), Err: err}
	}

	hc, err := httpx.NewDefaultClient()
	if err != nil {
		return nil, &TransportInitError{Reason: "building HTTP transport", Err: err}
	}

	return &Client{
		httpClient: hc,
		baseURL:    base,
		endpoint:   resolveEndpoint(base),
		apiKey:     cfg.APIKey,
		sessionID:  cfg.SessionID,
	}, nil
}

// Endpoint returns the resolved chat endpoint URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Warmup gives the server a chance to initialize the session (cookies,
// anti-bot checks) before the first chat call. Failures are ignored.
func (c *Client) Warmup(ctx context.Context) {
	httpx.EnsureSession(ctx, c.httpClient, c.baseURL, nil)
}

// resolveEndpoint returns baseURL unchanged when it already points at the
// chat endpoint, otherwise strips trailing slashes and appends the path.
func resolveEndpoint(baseURL string) string {
	if strings.HasSuffix(baseURL, chatPath) {
		return baseURL
	}
	return strings.TrimRight(baseURL, "/") + chatPath
}

// Chat sends message and waits for the complete response. The returned
// event always has Done set; Text defaults to empty when the body is
// missing the response field or does not parse.
func (c *Client) Chat(ctx context.Context, message string) (ResponseEvent, error) {
	req, err := c.newRequest(ctx, message, false)
	if err != nil {
		return ResponseEvent{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ResponseEvent{}, &TransportError{Message: "sending request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ResponseEvent{}, newStatusError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ResponseEvent{}, &TransportError{Message: "reading response body", Err: err}
	}

	var parsed chatResponse
	// Best effort: a malformed body yields an empty response, not an error.
	_ = json.Unmarshal(data, &parsed)
	return ResponseEvent{Text: parsed.Response, Done: true}, nil
}

// ChatStream sends message and returns a Stream of incremental events. A
// non-2xx status surfaces as a *TransportError before any event is
// produced. The request lifetime is governed by ctx; there is no fixed
// timeout because a stream may legitimately run for a long time.
func (c *Client) ChatStream(ctx context.Context, message string) (*Stream, error) {
	req, err := c.newRequest(ctx, message, true)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Message: "sending request", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		terr := newStatusError(resp)
		resp.Body.Close()
		return nil, terr
	}

	return newStream(resp.Body), nil
}

func (c *Client) newRequest(ctx context.Context, message string, stream bool) (*http.Request, error) {
	body, err := json.Marshal(ChatRequest{
		Messages: []Message{{Role: "user", Content: message}},
		Stream:   stream,
	})
	if err != nil {
		return nil, &TransportError{Message: "encoding request body", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Message: "building request", Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	setOptionalHeader(req, "X-API-Key", c.apiKey)
	setOptionalHeader(req, "X-Session-ID", c.sessionID)
	return req, nil
}

// setOptionalHeader attaches the header only when the value is non-empty and
// encodes as valid header content. An invalid value degrades the request
// (header omitted) instead of failing it.
func setOptionalHeader(req *http.Request, name, value string) {
	if value == "" || !httpguts.ValidHeaderFieldValue(value) {
		return
	}
	req.Header.Set(name, value)
}
