package api

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jj-tsao/reelix-ai-sub001/internal/display"
	"github.com/jj-tsao/reelix-ai-sub001/internal/service"
	"github.com/jj-tsao/reelix-ai-sub001/internal/stream"
)

// StreamDisplay renders a recommendation stream for plain terminal
// output (the one-shot ask path). It owns the stream session and is
// used as the ChunkCallback for RecommendStream.
type StreamDisplay struct {
	session  *stream.Session
	renderer *glamour.TermRenderer

	// Chat mode: deltas are printed as they arrive
	chatHeaderUp bool

	// Accumulated results, available after Finish
	Records  []stream.Record
	ChatText strings.Builder
	Epilogue string
}

func NewStreamDisplay() *StreamDisplay {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		r = nil
	}
	return &StreamDisplay{
		session:  stream.NewSession(),
		renderer: r,
	}
}

// HandleChunk is the ChunkCallback for RecommendStream.
func (d *StreamDisplay) HandleChunk(chunk []byte) {
	d.render(d.session.Feed(chunk))
}

// Finish flushes the session after the stream ends and renders any
// remaining events.
func (d *StreamDisplay) Finish() {
	d.render(d.session.Finish())
	if d.chatHeaderUp {
		fmt.Println()
	}
}

// Mode reports what the stream resolved to, once known.
func (d *StreamDisplay) Mode() stream.Mode {
	return d.session.Mode()
}

func (d *StreamDisplay) render(events []stream.Event) {
	for _, ev := range events {
		switch ev.Type {
		case stream.EventIntro:
			fmt.Println()
			fmt.Print(d.markdown(ev.Text))
			fmt.Println()

		case stream.EventRecord:
			d.Records = append(d.Records, ev.Record)
			fmt.Print(d.formatRecord(len(d.Records), ev.Record))

		case stream.EventChatDelta:
			if !d.chatHeaderUp {
				display.Header("Answer")
				d.chatHeaderUp = true
			}
			fmt.Print(ev.Text)
			d.ChatText.WriteString(ev.Text)

		case stream.EventEpilogue:
			d.Epilogue = ev.Text
			fmt.Println()
			fmt.Print(d.markdown(ev.Text))
			fmt.Println()
		}
	}
}

// formatRecord lays out one recommendation card.
func (d *StreamDisplay) formatRecord(num int, rec stream.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n%s%d. %s%s\n", display.Bold+display.Cyan, num, rec.Title, display.Reset)

	ratings := service.RatingLine(rec.IMDBRating, rec.RottenTomatoes)
	if ratings != "" {
		fmt.Fprintf(&b, "   %s%s%s\n", display.Dim, ratings, display.Reset)
	}
	if genres := service.FormatGenres(rec.Genres, 4); genres != "" {
		fmt.Fprintf(&b, "   %s%s%s\n", display.Dim, genres, display.Reset)
	}
	if rec.TrailerKey != "" {
		fmt.Fprintf(&b, "   %sTrailer:%s %s\n", display.Dim, display.Reset, service.TrailerURL(rec.TrailerKey))
	}
	if rec.Why != "" {
		why := d.markdown(rec.Why)
		for _, line := range strings.Split(strings.TrimRight(why, "\n"), "\n") {
			fmt.Fprintf(&b, "   %s\n", line)
		}
	}
	return b.String()
}

// markdown renders prose through glamour, falling back to the raw
// text when the renderer is unavailable.
func (d *StreamDisplay) markdown(text string) string {
	if d.renderer == nil {
		return text
	}
	out, err := d.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n") + "\n"
}
