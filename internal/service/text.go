package service

import (
	"regexp"
	"strings"
)

var bracketTagRe = regexp.MustCompile(`\[\[[^\]]*\]\]`)

// StripBracketTags removes stray [[...]] control tags the model
// sometimes leaves inside prose sections.
func StripBracketTags(s string) string {
	return bracketTagRe.ReplaceAllString(s, "")
}

// SentenceEndings counts sentence-terminating punctuation marks.
func SentenceEndings(s string) int {
	n := 0
	for _, r := range s {
		if r == '.' || r == '!' || r == '?' {
			n++
		}
	}
	return n
}

// SplitGenres splits a comma-separated genre list, trimming whitespace
// and dropping empty entries.
func SplitGenres(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if g := strings.TrimSpace(part); g != "" {
			out = append(out, g)
		}
	}
	return out
}

const (
	posterBase   = "https://image.tmdb.org/t/p/w500"
	backdropBase = "https://image.tmdb.org/t/p/w1280"
)

// PosterURL expands a TMDB poster path into a full w500 image URL.
// Absolute URLs pass through unchanged; empty paths stay empty.
func PosterURL(path string) string {
	return imageURL(posterBase, path)
}

// BackdropURL expands a TMDB backdrop path into a full w1280 image URL.
func BackdropURL(path string) string {
	return imageURL(backdropBase, path)
}

func imageURL(base, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
