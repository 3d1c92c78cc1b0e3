package orbit

// Message is a single conversational message sent to the server.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of a POST to the chat endpoint. It is built once
// per call and never reused.
type ChatRequest struct {
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// ResponseEvent is one unit of output from the server. Done marks an
// explicit end-of-turn signal or stream termination; Text may be empty when
// the event carries only the termination signal.
type ResponseEvent struct {
	Text string
	Done bool
}

// chatResponse is the whole-body response of a non-streaming call.
type chatResponse struct {
	Response string `json:"response"`
}

// streamChunk is the JSON payload of a single "data:" frame. Response is a
// pointer so a present-but-empty response can be told apart from an absent
// one.
type streamChunk struct {
	Response *string `json:"response"`
	Done     bool    `json:"done"`
}
