package tui

import (
	"strings"
	"testing"

	"github.com/jj-tsao/reelix-ai-sub001/internal/stream"
	"github.com/jj-tsao/reelix-ai-sub001/internal/watchlist"
)

// ─── Record cards ────────────────────────────────────────────────────────────

func TestRenderRecordCard(t *testing.T) {
	rec := stream.Record{
		MediaID:        550,
		Title:          "Fight Club",
		Genres:         []string{"Drama", "Thriller"},
		IMDBRating:     8.8,
		RottenTomatoes: 79,
		TrailerKey:     "qtRKdVHc-cE",
		Why:            "A hypnotic descent that rewards repeat viewings.",
	}

	t.Run("not in list", func(t *testing.T) {
		got := renderRecordCard(1, rec, watchlist.Entry{State: watchlist.StateNotAdded})
		for _, want := range []string{
			"1. Fight Club",
			"IMDb 8.8/10",
			"RT 79%",
			"Drama, Thriller",
			"youtube.com/watch?v=qtRKdVHc-cE",
			"hypnotic descent",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("card missing %q:\n%s", want, got)
			}
		}
		if strings.Contains(got, "[want to watch]") {
			t.Errorf("card shows membership badge when not in list:\n%s", got)
		}
	})

	t.Run("in list shows badge", func(t *testing.T) {
		entry := watchlist.Entry{State: watchlist.StateInList, Status: watchlist.StatusWant}
		got := renderRecordCard(2, rec, entry)
		if !strings.Contains(got, "[want to watch]") {
			t.Errorf("card missing badge:\n%s", got)
		}
	})

	t.Run("omits empty fields", func(t *testing.T) {
		got := renderRecordCard(3, stream.Record{MediaID: -1, Title: "Heat"}, watchlist.Entry{})
		if !strings.Contains(got, "3. Heat") {
			t.Fatalf("card missing title:\n%s", got)
		}
		if strings.Contains(got, "Trailer") {
			t.Errorf("card shows trailer line with no key:\n%s", got)
		}
	})
}

func TestWatchBadge(t *testing.T) {
	tests := []struct {
		name  string
		entry watchlist.Entry
		want  string
	}{
		{"want", watchlist.Entry{Status: watchlist.StatusWant}, "[want to watch]"},
		{"watched unrated", watchlist.Entry{Status: watchlist.StatusWatched}, "[watched]"},
		{"watched rated", watchlist.Entry{Status: watchlist.StatusWatched, Rating: 8}, "8/10"},
		{"no status", watchlist.Entry{}, "[in list]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := watchBadge(tt.entry)
			if !strings.Contains(got, tt.want) {
				t.Errorf("watchBadge = %q, want containing %q", got, tt.want)
			}
		})
	}
}

// ─── Welcome ─────────────────────────────────────────────────────────────────

func TestRenderWelcome(t *testing.T) {
	t.Run("no server shows login hint", func(t *testing.T) {
		got := renderWelcome("1.0.0", "", "", 80)
		if !strings.Contains(got, "v1.0.0") {
			t.Errorf("welcome missing version:\n%s", got)
		}
		if !strings.Contains(got, "/login") {
			t.Errorf("welcome missing login hint:\n%s", got)
		}
	})

	t.Run("server shows info line", func(t *testing.T) {
		got := renderWelcome("1.0.0", "https://api.reelix.app", "tv", 80)
		if !strings.Contains(got, "api.reelix.app") {
			t.Errorf("welcome missing server:\n%s", got)
		}
		if !strings.Contains(got, "TV Show") {
			t.Errorf("welcome missing kind label:\n%s", got)
		}
	})
}

// ─── Streaming markdown ──────────────────────────────────────────────────────

func TestRenderMarkdownText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string // substring that must survive rendering
	}{
		{"header", "## Tonight's picks", "Tonight's picks"},
		{"bullet", "- slow burn", "• slow burn"},
		{"numbered", "1. first pick", "first pick"},
		{"plain", "just some prose", "just some prose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderMarkdownText(tt.input)
			if !strings.Contains(got, tt.want) {
				t.Errorf("renderMarkdownText(%q) = %q, want containing %q", tt.input, got, tt.want)
			}
		})
	}

	t.Run("rule", func(t *testing.T) {
		got := renderMarkdownText("---")
		if !strings.Contains(got, "────") {
			t.Errorf("rule not rendered: %q", got)
		}
	})
}

func TestRenderInlineMarkdown(t *testing.T) {
	t.Run("bold", func(t *testing.T) {
		got := renderInlineMarkdown("a **big** finish")
		if !strings.Contains(got, ansiBold+"big"+ansiReset) {
			t.Errorf("bold not rendered: %q", got)
		}
	})

	t.Run("inline code", func(t *testing.T) {
		got := renderInlineMarkdown("try `this`")
		if !strings.Contains(got, ansiCode+"this"+ansiReset) {
			t.Errorf("code not rendered: %q", got)
		}
	})

	t.Run("link", func(t *testing.T) {
		got := renderInlineMarkdown("[trailer](https://youtu.be/x)")
		if !strings.Contains(got, "trailer") || !strings.Contains(got, "https://youtu.be/x") {
			t.Errorf("link not rendered: %q", got)
		}
	})

	t.Run("unterminated bold passes through", func(t *testing.T) {
		got := renderInlineMarkdown("a **dangling")
		if !strings.Contains(got, "**dangling") {
			t.Errorf("dangling markers mangled: %q", got)
		}
	})
}

func TestTrimEmptyEdgeLines(t *testing.T) {
	got := trimEmptyEdgeLines([]string{"", "  ", "a", "b", ""})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("trimEmptyEdgeLines = %v", got)
	}
}
