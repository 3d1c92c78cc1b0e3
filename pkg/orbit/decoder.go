package orbit

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Framing tokens of the streaming wire protocol: newline-delimited frames of
// the form "data: <json>", with "data: [DONE]" signalling the end of the
// turn. Lines without the prefix are raw text output.
const (
	dataPrefix = "data: "
	doneMarker = "[DONE]"
)

// StreamDecoder reassembles discrete ResponseEvents from arbitrarily chunked
// transport bytes. It buffers the unconsumed tail of the previous chunk (a
// partial line not yet terminated by a newline) so that frames split across
// chunk boundaries decode exactly as if they had been delivered whole.
//
// Malformed JSON payloads are dropped without error: the stream favors
// availability of partial output over strict correctness. For the same
// reason a trailing line with no final newline is discarded when the
// transport ends.
//
// A decoder belongs to a single stream and is not safe for concurrent use.
type StreamDecoder struct {
	buf []byte
}

// Feed appends chunk to the internal buffer and returns every event decoded
// from the complete lines now available, in source order. A single call may
// return zero, one, or several events.
func (d *StreamDecoder) Feed(chunk []byte) []ResponseEvent {
	d.buf = append(d.buf, chunk...)
	var events []ResponseEvent
	for {
		nl := bytes.IndexByte(d.buf, '\n')
		if nl < 0 {
			return events
		}
		line := string(d.buf[:nl])
		d.buf = d.buf[nl+1:]
		events = append(events, decodeLine(line)...)
	}
}

// decodeLine classifies one newline-terminated frame. Bytes that do not form
// valid UTF-8 are replaced rather than rejected; because replacement happens
// per complete line, the result does not depend on where chunk boundaries
// fell.
func decodeLine(raw string) []ResponseEvent {
	line := strings.TrimSpace(strings.ToValidUTF8(raw, "�"))
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, dataPrefix) {
		// Raw text frame, passed through verbatim.
		return []ResponseEvent{{Text: line}}
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
	if payload == "" || payload == doneMarker {
		return []ResponseEvent{{Done: true}}
	}

	var chunk streamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		// Best effort: an unparseable payload yields nothing.
		return nil
	}

	var events []ResponseEvent
	if chunk.Response != nil {
		events = append(events, ResponseEvent{Text: *chunk.Response, Done: chunk.Done})
	}
	if chunk.Done {
		// Trailing termination marker, even when a response event was
		// already emitted for the same frame.
		events = append(events, ResponseEvent{Done: true})
	}
	return events
}
