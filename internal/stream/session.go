package stream

import (
	"strings"

	"github.com/jj-tsao/reelix-ai-sub001/internal/service"
)

// ─── Event types ────────────────────────────────────────────────────────────

// Mode is the reply mode declared by the stream's leading marker.
type Mode int

const (
	ModeUnknown Mode = iota
	ModeRecommendation
	ModeChat
)

// EventType identifies the kind of session output event.
type EventType int

const (
	EventIntro     EventType = iota // Intro prose, complete
	EventRecord                     // One admitted recommendation
	EventChatDelta                  // Incremental chat text
	EventEpilogue                   // Closing prose, complete
)

// Event is a structured event emitted by the Session. The consumer
// decides how to render each type.
type Event struct {
	Type   EventType
	Text   string // intro, chat delta, or epilogue text
	Record Record // populated for EventRecord
}

// ─── Session ────────────────────────────────────────────────────────────────

// Stream markers and segment terminators.
const (
	markerRecommendation = "[[MODE:recommendation]]"
	markerChat           = "[[MODE:chat]]"
	endIntro             = "<!-- END_INTRO -->"
	endRecord            = "<!-- END_MOVIE -->"

	// How much text to buffer while waiting for a mode marker before
	// giving up and treating the stream as plain chat.
	modeBufferCap = 4096
)

// Session consumes one reply stream chunk by chunk and emits structured
// events. It buffers until the mode marker arrives, then routes text
// through the recommendation segmenter or straight out as chat. It has
// no dependency on the display layer.
type Session struct {
	dec  *ChunkDecoder
	gate *RecordGate

	mode      Mode
	buf       string // unconsumed decoded text
	introDone bool
	finished  bool
}

// NewSession creates a session awaiting its first chunk.
func NewSession() *Session {
	return &Session{
		dec:  NewChunkDecoder(),
		gate: NewRecordGate(),
	}
}

// Mode returns the resolved reply mode, ModeUnknown until the marker
// (or the buffering cap) decides it.
func (s *Session) Mode() Mode {
	return s.mode
}

// Feed processes one raw chunk and returns any events it completes.
func (s *Session) Feed(chunk []byte) []Event {
	if s.finished {
		return nil
	}
	return s.advance(s.dec.Decode(chunk))
}

// Finish flushes all remaining state at end of stream. The session
// accepts no further chunks afterwards.
func (s *Session) Finish() []Event {
	if s.finished {
		return nil
	}
	s.finished = true

	out := s.advance(s.dec.Flush())

	switch s.mode {
	case ModeUnknown:
		// No marker ever arrived: resolve to chat and forward
		// whatever was buffered.
		s.mode = ModeChat
		if s.buf != "" {
			out = append(out, Event{Type: EventChatDelta, Text: s.buf})
			s.buf = ""
		}
	case ModeChat:
		// Chat text is forwarded as it arrives; nothing held back.
	case ModeRecommendation:
		if ep, ok := s.epilogue(); ok {
			out = append(out, Event{Type: EventEpilogue, Text: ep})
		}
		s.buf = ""
	}
	return out
}

// advance appends decoded text to the working buffer and drains every
// complete unit the current mode allows.
func (s *Session) advance(text string) []Event {
	s.buf += text

	var out []Event
	if s.mode == ModeUnknown {
		if !s.classify() {
			if len(s.buf) > modeBufferCap {
				s.mode = ModeChat
			} else {
				return nil
			}
		}
	}

	switch s.mode {
	case ModeChat:
		if s.buf != "" {
			out = append(out, Event{Type: EventChatDelta, Text: s.buf})
			s.buf = ""
		}
	case ModeRecommendation:
		out = append(out, s.segment()...)
	}
	return out
}

// classify looks for the mode marker in the buffered text. Everything
// up to and including the marker is discarded. The first marker wins;
// later ones are just stream text.
func (s *Session) classify() bool {
	type candidate struct {
		marker string
		mode   Mode
	}
	var found *candidate
	foundAt := -1
	for _, c := range []candidate{
		{markerRecommendation, ModeRecommendation},
		{markerChat, ModeChat},
	} {
		if i := strings.Index(s.buf, c.marker); i >= 0 && (foundAt < 0 || i < foundAt) {
			c := c
			found = &c
			foundAt = i
		}
	}
	if found == nil {
		return false
	}
	s.mode = found.mode
	s.buf = s.buf[foundAt+len(found.marker):]
	return true
}

// segment drains complete intro and record segments from the buffer,
// leaving any trailing partial segment in place.
func (s *Session) segment() []Event {
	var out []Event

	if !s.introDone {
		i := strings.Index(s.buf, endIntro)
		if i < 0 {
			return nil
		}
		intro := strings.TrimSpace(service.StripBracketTags(s.buf[:i]))
		s.buf = s.buf[i+len(endIntro):]
		s.introDone = true
		if intro != "" {
			out = append(out, Event{Type: EventIntro, Text: intro})
		}
	}

	for {
		i := strings.Index(s.buf, endRecord)
		if i < 0 {
			return out
		}
		segment := s.buf[:i]
		s.buf = s.buf[i+len(endRecord):]

		rec := ParseRecord(segment)
		if s.gate.Admit(rec) {
			out = append(out, Event{Type: EventRecord, Record: rec})
		}
	}
}

// epilogue inspects the unconsumed tail. It qualifies only if it is no
// fragment of an unfinished record and carries enough prose to show.
func (s *Session) epilogue() (string, bool) {
	tail := strings.TrimSpace(service.StripBracketTags(s.buf))
	if strings.Contains(tail, "###") {
		return "", false
	}
	if strings.Contains(tail, strings.TrimSuffix(labelWhy, ":")) {
		return "", false
	}
	if len(tail) <= 50 {
		return "", false
	}
	return tail, true
}
