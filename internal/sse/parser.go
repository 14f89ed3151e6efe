// Package sse parses the server-sent-event discovery feed: blank-line
// delimited frames of event/data lines carrying JSON payloads.
package sse

import (
	"strings"

	"github.com/jj-tsao/reelix-ai-sub001/internal/stream"
)

// Event names the feed emits. Anything else is ignored by consumers.
const (
	EventStarted  = "started"
	EventProgress = "progress"
	EventWhyDelta = "why_delta"
	EventDone     = "done"
	EventError    = "error"
)

// Frame is one parsed wire frame: an event name (defaulting to
// "message" when the frame carries none) and its joined data lines.
type Frame struct {
	Event string
	Data  string
}

// Parser turns raw byte chunks into frames. It shares the stream
// decoder so multi-byte runes split across chunks survive.
type Parser struct {
	dec *stream.ChunkDecoder
	buf string

	event string
	data  []string
}

// NewParser creates a parser with an empty frame in progress.
func NewParser() *Parser {
	return &Parser{dec: stream.NewChunkDecoder()}
}

// Feed consumes one chunk and returns any frames it completes.
func (p *Parser) Feed(chunk []byte) []Frame {
	return p.advance(p.dec.Decode(chunk))
}

// Flush ends the stream. A final frame lacking its terminating blank
// line is still dispatched if it carries data.
func (p *Parser) Flush() []Frame {
	frames := p.advance(p.dec.Flush())
	if p.buf != "" {
		frames = append(frames, p.consumeLine(p.buf)...)
		p.buf = ""
	}
	if f, ok := p.endFrame(); ok {
		frames = append(frames, f)
	}
	return frames
}

func (p *Parser) advance(text string) []Frame {
	p.buf += text

	var frames []Frame
	for {
		i := strings.Index(p.buf, "\n")
		if i < 0 {
			return frames
		}
		line := strings.TrimSuffix(p.buf[:i], "\r")
		p.buf = p.buf[i+1:]
		frames = append(frames, p.consumeLine(line)...)
	}
}

func (p *Parser) consumeLine(line string) []Frame {
	switch {
	case line == "":
		if f, ok := p.endFrame(); ok {
			return []Frame{f}
		}
	case strings.HasPrefix(line, ":"):
		// Comment, often a keepalive. Ignored.
	case strings.HasPrefix(line, "event:"):
		p.event = fieldValue(line, "event:")
	case strings.HasPrefix(line, "data:"):
		p.data = append(p.data, fieldValue(line, "data:"))
	}
	return nil
}

// endFrame closes the frame in progress. Frames with no data lines are
// dropped, matching a bare keepalive separator.
func (p *Parser) endFrame() (Frame, bool) {
	event, data := p.event, p.data
	p.event, p.data = "", nil
	if len(data) == 0 {
		return Frame{}, false
	}
	if event == "" {
		event = "message"
	}
	return Frame{Event: event, Data: strings.Join(data, "\n")}, true
}

// fieldValue strips the field name and the single optional space that
// may follow the colon.
func fieldValue(line, prefix string) string {
	v := strings.TrimPrefix(line, prefix)
	return strings.TrimPrefix(v, " ")
}
