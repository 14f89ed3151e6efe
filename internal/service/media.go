package service

import (
	"fmt"
	"net/url"
	"strings"
)

// TrailerURL constructs the YouTube watch URL for a trailer key.
// Returns empty when no key is present.
func TrailerURL(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(key)
}

// KindLabel maps a media kind to its display label.
func KindLabel(kind string) string {
	switch kind {
	case "movie":
		return "Movie"
	case "tv":
		return "TV Show"
	default:
		return kind
	}
}

// FormatGenres joins genres for single-line output, capped so a long
// tag list does not push ratings off the row.
func FormatGenres(genres []string, max int) string {
	if len(genres) == 0 {
		return ""
	}
	if max > 0 && len(genres) > max {
		return fmt.Sprintf("%s +%d", strings.Join(genres[:max], ", "), len(genres)-max)
	}
	return strings.Join(genres, ", ")
}
