package stream

import (
	"strings"
	"testing"
)

const sampleStream = `[[MODE:recommendation]]
Here are a few picks for a rainy evening.
<!-- END_INTRO -->
### 1. Inception
- POSTER_PATH: /poster1.jpg
- GENRES: Sci-Fi, Thriller
- IMDB_RATING: 8.8
- ROTTEN_TOMATOES_RATING: 87
- MEDIA_ID: 27205
- WHY_YOU_MIGHT_ENJOY_IT: A heist story folded into dreams. The structure rewards attention. It holds up on rewatch.
<!-- END_MOVIE -->
### 2. Arrival
- POSTER_PATH: /poster2.jpg
- GENRES: Sci-Fi, Drama
- IMDB_RATING: 7.9
- ROTTEN_TOMATOES_RATING: 94
- MEDIA_ID: 329865
- WHY_YOU_MIGHT_ENJOY_IT: Quiet, patient science fiction. The language puzzle is the plot. Bring tissues for the last act.
<!-- END_MOVIE -->
Enjoy the picks! Tell me which one you end up watching and I will tune the next round.`

// collect runs a full stream through a session in chunks of the given
// size and gathers all emitted events.
func collect(t *testing.T, text string, chunkSize int) []Event {
	t.Helper()
	s := NewSession()
	var events []Event
	raw := []byte(text)
	for i := 0; i < len(raw); i += chunkSize {
		end := i + chunkSize
		if end > len(raw) {
			end = len(raw)
		}
		events = append(events, s.Feed(raw[i:end])...)
	}
	return append(events, s.Finish()...)
}

func TestSessionRecommendationStream(t *testing.T) {
	events := collect(t, sampleStream, len(sampleStream))

	var intro, epilogue string
	var titles []string
	for _, ev := range events {
		switch ev.Type {
		case EventIntro:
			intro = ev.Text
		case EventRecord:
			titles = append(titles, ev.Record.Title)
		case EventEpilogue:
			epilogue = ev.Text
		case EventChatDelta:
			t.Errorf("unexpected chat delta %q", ev.Text)
		}
	}

	if intro != "Here are a few picks for a rainy evening." {
		t.Errorf("intro = %q", intro)
	}
	if len(titles) != 2 || titles[0] != "Inception" || titles[1] != "Arrival" {
		t.Errorf("titles = %v, want [Inception Arrival]", titles)
	}
	if !strings.HasPrefix(epilogue, "Enjoy the picks!") {
		t.Errorf("epilogue = %q", epilogue)
	}
}

func TestSessionChunkingInvariance(t *testing.T) {
	want := collect(t, sampleStream, len(sampleStream))

	for _, size := range []int{1, 2, 3, 7, 16, 64, 211} {
		got := collect(t, sampleStream, size)
		if len(got) != len(want) {
			t.Fatalf("chunk size %d: %d events, want %d", size, len(got), len(want))
		}
		for i := range want {
			if got[i].Type != want[i].Type || got[i].Text != want[i].Text ||
				got[i].Record.Title != want[i].Record.Title {
				t.Errorf("chunk size %d: event %d = %+v, want %+v", size, i, got[i], want[i])
			}
		}
	}
}

func TestSessionChatMarkerSplitAcrossChunks(t *testing.T) {
	s := NewSession()
	var sb strings.Builder
	for _, chunk := range []string{"[[MODE:ch", "at]]Hello"} {
		for _, ev := range s.Feed([]byte(chunk)) {
			if ev.Type != EventChatDelta {
				t.Fatalf("event type = %v, want chat delta", ev.Type)
			}
			sb.WriteString(ev.Text)
		}
	}
	for _, ev := range s.Finish() {
		sb.WriteString(ev.Text)
	}
	if got := sb.String(); got != "Hello" {
		t.Errorf("chat text = %q, want %q", got, "Hello")
	}
	if s.Mode() != ModeChat {
		t.Errorf("mode = %v, want ModeChat", s.Mode())
	}
}

func TestSessionNoMarkerResolvesToChat(t *testing.T) {
	s := NewSession()
	events := s.Feed([]byte("plain text with no marker"))
	if len(events) != 0 {
		t.Fatalf("events before resolution: %v", events)
	}
	events = s.Finish()
	if len(events) != 1 || events[0].Type != EventChatDelta {
		t.Fatalf("Finish events = %+v, want one chat delta", events)
	}
	if events[0].Text != "plain text with no marker" {
		t.Errorf("text = %q", events[0].Text)
	}
}

func TestSessionModeBufferCap(t *testing.T) {
	s := NewSession()
	big := strings.Repeat("a", modeBufferCap+100)
	events := s.Feed([]byte(big))
	if s.Mode() != ModeChat {
		t.Fatalf("mode = %v, want ModeChat after cap", s.Mode())
	}
	if len(events) != 1 || events[0].Text != big {
		t.Errorf("buffered text not forwarded")
	}
}

func TestSessionDuplicateTitleDropped(t *testing.T) {
	dup := "[[MODE:recommendation]]Intro here.<!-- END_INTRO -->" +
		"### 1. Heat\n- MEDIA_ID: 949\n- WHY_YOU_MIGHT_ENJOY_IT: The diner scene alone earns it. The heist is all craft. It never wastes a minute.\n<!-- END_MOVIE -->" +
		"### 2. Heat\n- MEDIA_ID: 949\n- WHY_YOU_MIGHT_ENJOY_IT: The diner scene alone earns it. The heist is all craft. It never wastes a minute.\n<!-- END_MOVIE -->"

	records := 0
	for _, ev := range collect(t, dup, 32) {
		if ev.Type == EventRecord {
			records++
		}
	}
	if records != 1 {
		t.Errorf("records = %d, want 1", records)
	}
}

func TestSessionWeakWhyGatedOut(t *testing.T) {
	weak := "[[MODE:recommendation]]Intro here.<!-- END_INTRO -->" +
		"### 1. Heat\n- MEDIA_ID: 949\n- WHY_YOU_MIGHT_ENJOY_IT: Just watch it.\n<!-- END_MOVIE -->"

	for _, ev := range collect(t, weak, 16) {
		if ev.Type == EventRecord {
			t.Errorf("gated record emitted: %+v", ev.Record)
		}
	}
}

func TestSessionEpilogueRejectsRecordFragments(t *testing.T) {
	tests := []struct {
		name string
		tail string
	}{
		{"heading fragment", "### 3. Blade Runner and some trailing text that is long enough to pass"},
		{"why label fragment", "- WHY_YOU_MIGHT_ENJOY_IT: a partial justification line that is quite long indeed"},
		{"too short", "Thanks for reading!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := "[[MODE:recommendation]]Intro here.<!-- END_INTRO -->" + tt.tail
			for _, ev := range collect(t, text, 8) {
				if ev.Type == EventEpilogue {
					t.Errorf("epilogue emitted for %q", tt.tail)
				}
			}
		})
	}
}

func TestSessionFeedAfterFinish(t *testing.T) {
	s := NewSession()
	s.Feed([]byte("[[MODE:chat]]hi"))
	s.Finish()
	if events := s.Feed([]byte("late data")); events != nil {
		t.Errorf("Feed after Finish emitted %v", events)
	}
	if events := s.Finish(); events != nil {
		t.Errorf("second Finish emitted %v", events)
	}
}
