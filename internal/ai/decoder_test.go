// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// feedAll runs every chunk through a fresh decoder and returns the decoded
// deltas plus whether [DONE] was seen.
func feedAll(chunks ...string) (deltas []string, done bool) {
	var d EventDecoder
	for _, chunk := range chunks {
		for _, ev := range d.Feed([]byte(chunk)) {
			if ev.Done {
				done = true
				continue
			}
			deltas = append(deltas, ev.Delta)
		}
	}
	d.Finish()
	return deltas, done
}

func TestDecodeWholeFrames(t *testing.T) {
	deltas, done := feedAll("data: {\"content\":\"Hel\"}\n\ndata: {\"content\":\"lo\"}\n\ndata: [DONE]\n\n")
	require.Equal(t, []string{"Hel", "lo"}, deltas)
	require.True(t, done)
}

func TestDecodeFrameSplitAcrossChunks(t *testing.T) {
	deltas, done := feedAll(
		"data: {\"cont",
		"ent\":\"Hel\"}\n\ndata: {\"content\":\"lo\"}\n",
		"\ndata: [DONE]\n\n",
	)
	require.Equal(t, []string{"Hel", "lo"}, deltas)
	require.True(t, done)
}

func TestDecodeSplitMidUTF8(t *testing.T) {
	frame := []byte("data: {\"content\":\"héllo → wörld\"}\n")

	// Every possible byte split, including ones landing inside a rune.
	for i := 0; i <= len(frame); i++ {
		deltas, _ := feedAll(string(frame[:i]), string(frame[i:]))
		require.Equal(t, []string{"héllo → wörld"}, deltas, "split at byte %d", i)
	}
}

func TestDecodeOneByteAtATime(t *testing.T) {
	raw := "data: {\"content\":\"a\"}\ndata: {\"content\":\"b\"}\ndata: [DONE]\n"
	var chunks []string
	for _, b := range []byte(raw) {
		chunks = append(chunks, string([]byte{b}))
	}

	deltas, done := feedAll(chunks...)
	require.Equal(t, []string{"a", "b"}, deltas)
	require.True(t, done)
}

func TestDecodeMalformedFrameSkipped(t *testing.T) {
	deltas, done := feedAll(
		"data: {\"content\":\"ok\"}\n",
		"data: {not json}\n",
		"data: {\"content\":\"still ok\"}\ndata: [DONE]\n",
	)
	require.Equal(t, []string{"ok", "still ok"}, deltas)
	require.True(t, done)
}

func TestDecodeIgnoresBlankAndNonDataLines(t *testing.T) {
	deltas, _ := feedAll(
		"\n\n",
		": keepalive comment\n",
		"event: message\n",
		"data: {\"content\":\"x\"}\n",
	)
	require.Equal(t, []string{"x"}, deltas)
}

func TestDecodeEmptyContentDropped(t *testing.T) {
	deltas, _ := feedAll("data: {\"content\":\"\"}\ndata: {\"conversationId\":\"abc\"}\n")
	require.Empty(t, deltas)
}

func TestFinishDiscardsPartialFrame(t *testing.T) {
	var d EventDecoder
	events := d.Feed([]byte("data: {\"content\":\"complete\"}\ndata: {\"content\":\"trunc"))
	require.Len(t, events, 1)
	require.Equal(t, "complete", events[0].Delta)

	d.Finish()
	// The truncated frame is gone; later bytes cannot resurrect it.
	require.Empty(t, d.Feed([]byte("ated\"}\n")))
}

func TestDecodeCRLFLines(t *testing.T) {
	deltas, done := feedAll("data: {\"content\":\"a\"}\r\ndata: [DONE]\r\n")
	require.Equal(t, []string{"a"}, deltas)
	require.True(t, done)
}
