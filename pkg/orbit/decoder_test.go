package orbit

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeed_ResponseFrame(t *testing.T) {
	var d StreamDecoder
	events := d.Feed([]byte("data: {\"response\":\"hi\",\"done\":false}\n"))
	require.Equal(t, []ResponseEvent{{Text: "hi"}}, events)
}

func TestFeed_ResponseWithDoneEmitsTwoEvents(t *testing.T) {
	var d StreamDecoder
	events := d.Feed([]byte("data: {\"response\":\"hi\",\"done\":true}\n"))
	require.Equal(t, []ResponseEvent{
		{Text: "hi", Done: true},
		{Done: true},
	}, events)
}

func TestFeed_DoneOnlyFrame(t *testing.T) {
	var d StreamDecoder
	events := d.Feed([]byte("data: {\"done\":true}\n"))
	require.Equal(t, []ResponseEvent{{Done: true}}, events)
}

func TestFeed_DoneSentinel(t *testing.T) {
	var d StreamDecoder
	events := d.Feed([]byte("data: [DONE]\n"))
	require.Equal(t, []ResponseEvent{{Done: true}}, events)
}

func TestFeed_EmptyDataPayload(t *testing.T) {
	var d StreamDecoder
	events := d.Feed([]byte("data: \n"))
	require.Equal(t, []ResponseEvent{{Done: true}}, events)
}

func TestFeed_RawTextLine(t *testing.T) {
	var d StreamDecoder
	events := d.Feed([]byte("hello world\n"))
	require.Equal(t, []ResponseEvent{{Text: "hello world"}}, events)
}

func TestFeed_BlankLinesProduceNothing(t *testing.T) {
	var d StreamDecoder
	require.Empty(t, d.Feed([]byte("\n")))
	require.Empty(t, d.Feed([]byte("   \n")))
	require.Empty(t, d.Feed([]byte("\t\r\n")))
}

func TestFeed_MalformedPayloadDropped(t *testing.T) {
	var d StreamDecoder
	events := d.Feed([]byte("data: {not json}\ndata: {\"response\":\"ok\"}\n"))
	require.Equal(t, []ResponseEvent{{Text: "ok"}}, events)
}

func TestFeed_PartialLineCompletedAcrossChunks(t *testing.T) {
	var d StreamDecoder
	require.Empty(t, d.Feed([]byte("data: {\"respo")))
	events := d.Feed([]byte("nse\":\"x\"}\n"))
	require.Equal(t, []ResponseEvent{{Text: "x"}}, events)
}

func TestFeed_TrailingPartialLineStaysBuffered(t *testing.T) {
	var d StreamDecoder
	require.Empty(t, d.Feed([]byte("data: {\"response\":\"never terminated\"}")))
}

func TestFeed_OrderPreservedAcrossMixedFrames(t *testing.T) {
	var d StreamDecoder
	stream := "first raw line\n" +
		"data: {\"response\":\"a\"}\n" +
		"\n" +
		"data: {\"response\":\"b\",\"done\":true}\n" +
		"data: [DONE]\n"
	events := d.Feed([]byte(stream))
	require.Equal(t, []ResponseEvent{
		{Text: "first raw line"},
		{Text: "a"},
		{Text: "b", Done: true},
		{Done: true},
		{Done: true},
	}, events)
}

func TestFeed_InvalidUTF8Replaced(t *testing.T) {
	var d StreamDecoder
	events := d.Feed([]byte("ab\xff\xfecd\n"))
	require.Len(t, events, 1)
	require.Equal(t, "ab�cd", events[0].Text)
}

// TestFeed_ChunkBoundaryInvariance verifies that the decoded event sequence
// does not depend on where chunk boundaries fall, including boundaries in
// the middle of a frame, a JSON payload, or a multi-byte rune.
func TestFeed_ChunkBoundaryInvariance(t *testing.T) {
	stream := []byte("data: {\"response\":\"héllo\",\"done\":false}\n" +
		"raw output…\n" +
		"   \n" +
		"data: {broken\n" +
		"data: {\"response\":\"wörld\",\"done\":true}\n" +
		"data: [DONE]\n")

	var ref StreamDecoder
	want := ref.Feed(stream)
	require.NotEmpty(t, want)

	for split := 0; split <= len(stream); split++ {
		t.Run(fmt.Sprintf("split=%d", split), func(t *testing.T) {
			var d StreamDecoder
			var got []ResponseEvent
			got = append(got, d.Feed(stream[:split])...)
			got = append(got, d.Feed(stream[split:])...)
			require.Equal(t, want, got)
		})
	}

	// Degenerate case: one byte per chunk.
	var d StreamDecoder
	var got []ResponseEvent
	for i := range stream {
		got = append(got, d.Feed(stream[i:i+1])...)
	}
	require.Equal(t, want, got)
}
