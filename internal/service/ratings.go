package service

import (
	"fmt"
	"strings"
)

// FormatIMDB renders an IMDB rating like "7.9/10", empty when unset.
func FormatIMDB(rating float64) string {
	if rating <= 0 {
		return ""
	}
	return fmt.Sprintf("%.1f/10", rating)
}

// FormatRottenTomatoes renders an RT score like "94%", empty when unset.
func FormatRottenTomatoes(rating int) string {
	if rating <= 0 {
		return ""
	}
	return fmt.Sprintf("%d%%", rating)
}

// FormatUserRating renders the user's own 1-10 rating as stars over
// five, e.g. 8 -> "★★★★☆ 8/10". Zero means unrated.
func FormatUserRating(rating int) string {
	if rating <= 0 {
		return ""
	}
	stars := (rating + 1) / 2
	return fmt.Sprintf("%s%s %d/10",
		strings.Repeat("★", stars),
		strings.Repeat("☆", 5-stars),
		rating)
}

// RatingLine assembles the combined rating row for a record. Missing
// scores are skipped rather than shown as zeros.
func RatingLine(imdb float64, rt int) string {
	var parts []string
	if s := FormatIMDB(imdb); s != "" {
		parts = append(parts, "IMDb "+s)
	}
	if s := FormatRottenTomatoes(rt); s != "" {
		parts = append(parts, "RT "+s)
	}
	return strings.Join(parts, "  ")
}
