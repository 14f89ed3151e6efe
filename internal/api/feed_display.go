package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jj-tsao/reelix-ai-sub001/internal/display"
	"github.com/jj-tsao/reelix-ai-sub001/internal/sse"
)

// Spinner frames for the activity line.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// FeedDisplay renders a discover feed for plain terminal output. It
// parses the SSE stream and is used as the ChunkCallback for
// DiscoverStream.
type FeedDisplay struct {
	parser *sse.Parser

	// Progress tracking
	lastProgress string
	seenProgress map[string]bool
	spinnerIdx   int
	activityUp   bool

	// Per-title update headers, keyed by media id
	headerPrinted map[int]bool

	// Set when the server reports a terminal error
	Err string
	// Count of why_delta frames rendered, available after the stream ends
	Updates int
}

func NewFeedDisplay() *FeedDisplay {
	return &FeedDisplay{
		parser:        sse.NewParser(),
		seenProgress:  make(map[string]bool),
		headerPrinted: make(map[int]bool),
	}
}

// HandleChunk is the ChunkCallback for DiscoverStream.
func (d *FeedDisplay) HandleChunk(chunk []byte) {
	d.render(d.parser.Feed(chunk))
}

// Finish flushes the parser after the stream ends.
func (d *FeedDisplay) Finish() {
	d.render(d.parser.Flush())
	d.clearActivity()
}

func (d *FeedDisplay) render(frames []sse.Frame) {
	for _, f := range frames {
		switch f.Event {
		case sse.EventStarted:
			d.clearActivity()
			display.Header("Discovering")

		case sse.EventProgress:
			d.handleProgress(f.Data)

		case sse.EventWhyDelta:
			d.handleWhyDelta(f.Data)

		case sse.EventDone:
			d.clearActivity()
			display.Success("Done")

		case sse.EventError:
			d.clearActivity()
			msg := "stream error"
			if p := sse.ParseError(f.Data); p != nil && p.Message != "" {
				msg = p.Message
			}
			d.Err = msg
			display.Error(msg)
		}
	}
}

func (d *FeedDisplay) handleProgress(data string) {
	p := sse.ParseProgress(data)
	if p == nil || p.Message == "" {
		return
	}

	// Avoid redrawing the same stage over and over
	key := normalizeProgress(p.Message)
	if d.seenProgress[key] && key == d.lastProgress {
		d.spin()
		return
	}
	d.seenProgress[key] = true
	d.lastProgress = key

	text := p.Message
	if p.Total > 0 {
		text = fmt.Sprintf("%s (%d/%d)", p.Message, p.Current, p.Total)
	}
	d.showActivity(text)
}

func (d *FeedDisplay) handleWhyDelta(data string) {
	w := sse.ParseWhyDelta(data)
	if w == nil {
		return
	}
	d.clearActivity()
	d.Updates++

	if !d.headerPrinted[w.MediaID] {
		d.headerPrinted[w.MediaID] = true
		label := display.FeedEventLabel(sse.EventWhyDelta)
		ratings := feedRatings(w)
		line := label + " " + display.Dim + "#" + strconv.Itoa(w.MediaID) + display.Reset
		if len(ratings) > 0 {
			line += "  " + display.Dim + strings.Join(ratings, "  ") + display.Reset
		}
		fmt.Println()
		fmt.Println(line)
	}
	fmt.Print(w.Delta)
}

// feedRatings formats a delta's scores. Normalized feed ratings may
// land on a 0-100 scale, so print the bare figures rather than the
// /10 record style.
func feedRatings(w *sse.WhyDelta) []string {
	var ratings []string
	if w.IMDBRating != nil {
		ratings = append(ratings, fmt.Sprintf("IMDb %.1f", *w.IMDBRating))
	}
	if w.RottenTomatoes != nil {
		ratings = append(ratings, fmt.Sprintf("RT %.0f%%", *w.RottenTomatoes))
	}
	return ratings
}

func (d *FeedDisplay) spin() {
	if !d.activityUp {
		return
	}
	d.spinnerIdx = (d.spinnerIdx + 1) % len(spinnerFrames)
	fmt.Printf("\r%s%s%s", display.Yellow, spinnerFrames[d.spinnerIdx], display.Reset)
}

func (d *FeedDisplay) showActivity(text string) {
	d.clearActivity()
	fmt.Printf("%s%s%s %s", display.Yellow, spinnerFrames[d.spinnerIdx], display.Reset, text)
	d.activityUp = true
}

func (d *FeedDisplay) clearActivity() {
	if !d.activityUp {
		return
	}
	fmt.Print("\r\033[K")
	d.activityUp = false
}

// normalizeProgress collapses counter noise so repeated stages with
// changing numbers dedupe to one line.
func normalizeProgress(text string) string {
	var b strings.Builder
	digits := false
	for _, r := range text {
		if r >= '0' && r <= '9' {
			if !digits {
				b.WriteByte('N')
				digits = true
			}
			continue
		}
		digits = false
		b.WriteRune(r)
	}
	return b.String()
}
