package httpx

import (
	"context"
	"net/http"
	"net/http/cookiejar"
)

// NewDefaultClient returns an HTTP client suitable for the ORBIT chat
// endpoint. Transparent compression is disabled because gzip across proxies
// breaks incremental event delivery, and a cookie jar is attached so servers
// behind anti-bot layers can pin a session. There is no global timeout:
// per-request contexts own the request lifetime, and streams may run
// arbitrarily long.
func NewDefaultClient() (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Timeout: 0,
		Transport: &http.Transport{
			DisableCompression: true,
		},
		Jar: jar,
	}, nil
}

// EnsureSession performs a lightweight GET on baseURL so the server can set
// cookies or perform other session initialization before the first
// long-lived POST. Failures are ignored; the warm-up is purely advisory.
func EnsureSession(ctx context.Context, client *http.Client, baseURL string, extraHeaders map[string]string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return
	}
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err == nil && resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
}
