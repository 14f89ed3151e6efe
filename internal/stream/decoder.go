package stream

import (
	"unicode/utf8"
)

// ChunkDecoder converts a sequence of byte chunks into UTF-8 text.
// A multi-byte code point split across two chunks is held back until
// its remaining bytes arrive, so callers only ever see whole runes.
type ChunkDecoder struct {
	pending []byte
}

// NewChunkDecoder creates a decoder with no held-back bytes.
func NewChunkDecoder() *ChunkDecoder {
	return &ChunkDecoder{}
}

// Decode appends chunk to any held-back bytes and returns the longest
// prefix that is a sequence of complete code points. The incomplete
// tail, if any, is carried into the next call.
func (d *ChunkDecoder) Decode(chunk []byte) string {
	if len(chunk) == 0 {
		return ""
	}
	buf := append(d.pending, chunk...)
	cut := len(buf) - trailingIncomplete(buf)
	d.pending = append([]byte(nil), buf[cut:]...)
	return string(buf[:cut])
}

// Flush returns whatever held-back bytes still decode and discards the
// rest. Called once, at end of stream.
func (d *ChunkDecoder) Flush() string {
	if len(d.pending) == 0 {
		return ""
	}
	buf := d.pending
	d.pending = nil
	if utf8.Valid(buf) {
		return string(buf)
	}
	// A truncated sequence at end of stream cannot complete; drop it.
	return ""
}

// trailingIncomplete reports how many bytes at the end of buf form the
// start of a code point whose continuation bytes have not arrived.
func trailingIncomplete(buf []byte) int {
	// A UTF-8 sequence is at most 4 bytes, so only the last 3 bytes
	// can begin an unfinished one.
	for back := 1; back <= 3 && back <= len(buf); back++ {
		b := buf[len(buf)-back]
		if b < 0x80 {
			return 0 // ASCII terminates any lookback
		}
		if b >= 0xC0 {
			// Lead byte: incomplete if its declared length exceeds
			// the bytes present after it.
			var need int
			switch {
			case b >= 0xF0:
				need = 4
			case b >= 0xE0:
				need = 3
			default:
				need = 2
			}
			if need > back {
				return back
			}
			return 0
		}
		// Continuation byte: keep looking back for the lead.
	}
	return 0
}
