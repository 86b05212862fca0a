// Package content computes descriptive statistics and structural
// diagnostics for the HTML body of an email.
//
// The checks are regex heuristics, not an HTML parser.
package content

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// WordsPerMinute is the reading speed used for reading time estimates.
const WordsPerMinute = 200

var (
	tagPattern   = regexp.MustCompile(`<[^>]+>`)
	linkPattern  = regexp.MustCompile(`href="[^"]*"`)
	imagePattern = regexp.MustCompile(`<img[^>]*>`)

	// \w never matches '/', so closing tags are excluded from openPattern.
	openPattern  = regexp.MustCompile(`<\w+`)
	closePattern = regexp.MustCompile(`</\w+>`)
)

// Stats describes the text content of an HTML body.
type Stats struct {
	WordCount          int `json:"word_count"`
	CharCount          int `json:"char_count"`
	LinkCount          int `json:"link_count"`
	ImageCount         int `json:"image_count"`
	ReadingTimeMinutes int `json:"reading_time_minutes"`
}

// StripTags removes anything that looks like a tag.
func StripTags(body string) string {
	return tagPattern.ReplaceAllString(body, "")
}

// Analyze computes Stats for body. Words and characters are counted on the
// tag-stripped text; links and images on the original markup.
func Analyze(body string) Stats {
	text := StripTags(body)
	words := len(strings.Fields(text))

	return Stats{
		WordCount:          words,
		CharCount:          utf8.RuneCountInString(text),
		LinkCount:          len(linkPattern.FindAllStringIndex(body, -1)),
		ImageCount:         len(imagePattern.FindAllStringIndex(body, -1)),
		ReadingTimeMinutes: ReadingTime(words),
	}
}

// ReadingTime estimates minutes to read words words. It is zero for no
// words and at least one minute otherwise. Halves round to even.
func ReadingTime(words int) int {
	if words <= 0 {
		return 0
	}
	minutes := int(math.RoundToEven(float64(words) / WordsPerMinute))
	return max(1, minutes)
}
