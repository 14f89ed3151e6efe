package sse

import (
	"encoding/json"
	"math"
)

// WhyDelta is the payload of a why_delta frame: incremental rating and
// justification updates for one media item.
type WhyDelta struct {
	MediaID        int      `json:"media_id"`
	IMDBRating     *float64 `json:"imdb_rating"`
	RottenTomatoes *float64 `json:"rotten_tomatoes_rating"`
	Delta          string   `json:"why_delta"`
}

// Progress is the payload of started/progress/done frames.
type Progress struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Total   int    `json:"total"`
	Current int    `json:"current"`
}

// ErrorPayload is the payload of an error frame.
type ErrorPayload struct {
	Message string `json:"message"`
}

// ParseWhyDelta decodes a why_delta payload, normalizing any rating
// fields it carries. Returns nil on malformed JSON; the feed keeps
// going.
func ParseWhyDelta(data string) *WhyDelta {
	var wd WhyDelta
	if err := json.Unmarshal([]byte(data), &wd); err != nil {
		return nil
	}
	if wd.IMDBRating != nil {
		v := NormalizeRating(*wd.IMDBRating)
		wd.IMDBRating = &v
	}
	if wd.RottenTomatoes != nil {
		v := NormalizeRating(*wd.RottenTomatoes)
		wd.RottenTomatoes = &v
	}
	return &wd
}

// ParseProgress decodes a started/progress/done payload, nil on
// malformed JSON.
func ParseProgress(data string) *Progress {
	var pr Progress
	if err := json.Unmarshal([]byte(data), &pr); err != nil {
		return nil
	}
	return &pr
}

// ParseError decodes an error payload, nil on malformed JSON.
func ParseError(data string) *ErrorPayload {
	var ep ErrorPayload
	if err := json.Unmarshal([]byte(data), &ep); err != nil {
		return nil
	}
	return &ep
}

// NormalizeRating maps the feed's inconsistent rating scales onto one:
// fractions come up as percentages, per-mille values come down, and
// anything already in range is rounded to one decimal place.
func NormalizeRating(v float64) float64 {
	switch {
	case v <= 1:
		return v * 100
	case v > 1000:
		return v / 10
	default:
		return math.Round(v*10) / 10
	}
}
