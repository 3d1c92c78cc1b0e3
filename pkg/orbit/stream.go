package orbit

import "io"

// Stream delivers decoded ResponseEvents one at a time, in the order their
// frames arrived:
//
//	stream, err := client.ChatStream(ctx, "hello")
//	if err != nil {
//		return err
//	}
//	defer stream.Close()
//	for stream.Next() {
//		fmt.Print(stream.Current().Text)
//	}
//	if err := stream.Err(); err != nil {
//		return err
//	}
//
// Next reads from the transport only when no decoded event is pending, so
// the consumer's pace governs the connection. A Stream belongs to a single
// goroutine; dropping it early still requires Close to release the
// connection.
type Stream struct {
	body    io.ReadCloser
	dec     StreamDecoder
	pending []ResponseEvent
	cur     ResponseEvent
	err     error
	eof     bool
	closed  bool
	buf     []byte
}

func newStream(body io.ReadCloser) *Stream {
	return &Stream{body: body, buf: make([]byte, 4096)}
}

// Next advances to the next event, blocking on the transport when no event
// is ready. It returns false once the stream is exhausted or failed; events
// decoded before a mid-stream failure are still delivered first.
func (s *Stream) Next() bool {
	for {
		if len(s.pending) > 0 {
			s.cur = s.pending[0]
			s.pending = s.pending[1:]
			return true
		}
		if s.eof || s.closed {
			return false
		}
		n, err := s.body.Read(s.buf)
		if n > 0 {
			s.pending = s.dec.Feed(s.buf[:n])
		}
		if err != nil {
			s.eof = true
			if err != io.EOF {
				s.err = &TransportError{Message: "reading stream", Err: err}
			}
			// Anything left in the decoder is an unterminated line and
			// stays unreported.
			s.close()
		}
	}
}

// Current returns the event produced by the last successful Next.
func (s *Stream) Current() ResponseEvent { return s.cur }

// Err returns the terminal stream error, if any. A stream that ended at EOF
// reports no error.
func (s *Stream) Err() error { return s.err }

// Close releases the underlying connection. It is safe to call more than
// once.
func (s *Stream) Close() error { return s.close() }

func (s *Stream) close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
