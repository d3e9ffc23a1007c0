// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ai

import (
	"bytes"
	"encoding/json"
	"log"
	"strings"
)

// MaxFrameSize is the maximum allowed size for a single SSE frame.
const MaxFrameSize = 64 * 1024

// doneSignal is the frame payload that marks the end of a stream.
const doneSignal = "[DONE]"

// dataPrefix starts every meaningful SSE line.
const dataPrefix = "data:"

// Event is one decoded occurrence in the stream: either a text delta or the
// end-of-stream signal.
type Event struct {
	// Delta is the text fragment carried by a data frame. Empty for Done
	// events and for frames that carried no content.
	Delta string

	// Done is true for the [DONE] frame.
	Done bool
}

// framePayload is the JSON body of one data frame.
type framePayload struct {
	Content string `json:"content"`
}

// EventDecoder turns a stream of arbitrary byte chunks into Events. Chunks
// may split lines, frames, and even UTF-8 sequences at any byte boundary;
// the decoder holds the trailing partial line until the bytes that complete
// it arrive. Malformed frames are logged and skipped, never fatal.
//
// The zero value is ready to use. Not safe for concurrent use.
type EventDecoder struct {
	buf bytes.Buffer
}

// Feed appends chunk to the internal buffer and returns the events decoded
// from every newline-terminated line now available. The final line fragment
// stays buffered for the next Feed.
func (d *EventDecoder) Feed(chunk []byte) []Event {
	d.buf.Write(chunk)

	var events []Event
	for {
		data := d.buf.Bytes()
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		line := string(data[:i])
		d.buf.Next(i + 1)

		if ev, ok := decodeLine(line); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Finish discards any trailing partial line. Called when the transport
// reports end of stream; an incomplete frame at that point is unusable.
func (d *EventDecoder) Finish() {
	if d.buf.Len() > 0 {
		log.Printf("discarding %d bytes of incomplete stream frame", d.buf.Len())
		d.buf.Reset()
	}
}

// decodeLine decodes one complete line into an event. The bool result is
// false for blank lines, non-data lines, and malformed frames.
func decodeLine(line string) (Event, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Event{}, false
	}
	if !strings.HasPrefix(line, dataPrefix) {
		log.Printf("ignoring non-data stream line: %.50s", line)
		return Event{}, false
	}

	payload := strings.TrimSpace(line[len(dataPrefix):])
	if payload == doneSignal {
		return Event{Done: true}, true
	}
	if len(payload) > MaxFrameSize {
		log.Printf("skipping oversized stream frame (%d bytes)", len(payload))
		return Event{}, false
	}

	var frame framePayload
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		log.Printf("skipping malformed stream frame: %v", err)
		return Event{}, false
	}
	if frame.Content == "" {
		return Event{}, false
	}
	return Event{Delta: frame.Content}, true
}
