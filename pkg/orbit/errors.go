package orbit

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// TransportInitError reports that a Client could not be constructed, for
// example because the base URL is not an absolute http(s) URL or the
// underlying transport could not be set up.
type TransportInitError struct {
	Reason string
	Err    error
}

func (e *TransportInitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("orbit: transport init: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("orbit: transport init: %s", e.Reason)
}

func (e *TransportInitError) Unwrap() error { return e.Err }

// TransportError reports a failure while sending the request or reading the
// response: network errors, non-2xx statuses, connection resets. StatusCode
// is zero when the failure happened before any response arrived. No retries
// are attempted at this layer.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("orbit: server returned HTTP %d: %s", e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("orbit: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("orbit: %s", e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }

// newStatusError converts a non-2xx response into a TransportError, pulling
// a descriptive message out of the body when the server sent one.
func newStatusError(resp *http.Response) *TransportError {
	msg := extractErrorMessage(resp.Body)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &TransportError{StatusCode: resp.StatusCode, Message: msg}
}

// extractErrorMessage tries the error body shapes the server is known to
// produce: {"error":{"message":...}}, {"error":"..."} and {"detail":"..."}.
func extractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var errResp struct {
		Error  json.RawMessage `json:"error"`
		Detail string          `json:"detail"`
	}
	if err := json.Unmarshal(data, &errResp); err != nil {
		return ""
	}
	if len(errResp.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(errResp.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
		var flat string
		if err := json.Unmarshal(errResp.Error, &flat); err == nil {
			return flat
		}
	}
	return errResp.Detail
}
