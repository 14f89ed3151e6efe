package stream

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jj-tsao/reelix-ai-sub001/internal/service"
)

// Record is one recommended title parsed out of a stream segment.
type Record struct {
	MediaID        int
	Title          string
	PosterURL      string
	BackdropURL    string
	Genres         []string
	IMDBRating     float64
	RottenTomatoes int
	TrailerKey     string
	Why            string
}

// Field labels as they appear on record lines.
const (
	labelPoster   = "POSTER_PATH:"
	labelBackdrop = "BACKDROP_PATH:"
	labelGenres   = "GENRES:"
	labelIMDB     = "IMDB_RATING:"
	labelRT       = "ROTTEN_TOMATOES_RATING:"
	labelTrailer  = "TRAILER_KEY:"
	labelMediaID  = "MEDIA_ID:"
	labelWhy      = "WHY_YOU_MIGHT_ENJOY_IT:"
)

// ParseRecord reads one segment of record text. Missing or malformed
// fields fall back to defaults (0 ratings, -1 media ID, empty strings);
// it never fails outright.
func ParseRecord(segment string) Record {
	rec := Record{MediaID: -1}

	lines := strings.Split(segment, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "###") {
			rec.Title = parseTitle(trimmed)
			continue
		}

		label, value, ok := splitLabel(trimmed)
		if !ok {
			continue
		}
		switch label {
		case labelPoster:
			rec.PosterURL = service.PosterURL(value)
		case labelBackdrop:
			rec.BackdropURL = service.BackdropURL(value)
		case labelGenres:
			rec.Genres = service.SplitGenres(value)
		case labelIMDB:
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				rec.IMDBRating = f
			}
		case labelRT:
			// RT scores are whole percentages; tolerate a stray
			// decimal by truncating.
			if n, err := strconv.Atoi(value); err == nil {
				rec.RottenTomatoes = n
			} else if f, err := strconv.ParseFloat(value, 64); err == nil {
				rec.RottenTomatoes = int(f)
			}
		case labelTrailer:
			rec.TrailerKey = value
		case labelMediaID:
			if n, err := strconv.Atoi(value); err == nil {
				rec.MediaID = n
			}
		case labelWhy:
			// The justification runs to the end of the segment.
			rest := append([]string{value}, lines[i+1:]...)
			rec.Why = strings.TrimSpace(strings.Join(rest, "\n"))
			return rec
		}
	}
	return rec
}

// parseTitle extracts the title from a "### <n>. <Title>" heading.
// The ordinal is display-only and discarded.
func parseTitle(line string) string {
	s := strings.TrimSpace(strings.TrimLeft(line, "#"))
	if dot := strings.Index(s, "."); dot >= 0 {
		num := strings.TrimSpace(s[:dot])
		if _, err := strconv.Atoi(num); err == nil {
			return strings.TrimSpace(s[dot+1:])
		}
	}
	return s
}

// splitLabel matches "- LABEL: value" lines and returns the label with
// its trailing colon plus the trimmed value.
func splitLabel(line string) (label, value string, ok bool) {
	if !strings.HasPrefix(line, "-") {
		return "", "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(line, "-"))
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return "", "", false
	}
	return rest[:colon+1], strings.TrimSpace(rest[colon+1:]), true
}

// RecordGate filters parsed records before they reach the display
// layer: duplicate titles are dropped, and the justification must be
// substantial enough to be worth showing.
type RecordGate struct {
	seen map[string]bool
}

// NewRecordGate creates an empty gate.
func NewRecordGate() *RecordGate {
	return &RecordGate{seen: make(map[string]bool)}
}

// Admit reports whether the record should be emitted, recording its
// title so later duplicates are rejected.
func (g *RecordGate) Admit(rec Record) bool {
	if g.seen[rec.Title] {
		return false
	}
	if !whyQualifies(rec.Why) {
		return false
	}
	g.seen[rec.Title] = true
	return true
}

// whyQualifies requires more than 60 characters and at least two
// sentence endings, filtering out truncated or one-liner output.
func whyQualifies(why string) bool {
	return utf8.RuneCountInString(why) > 60 && service.SentenceEndings(why) >= 2
}
