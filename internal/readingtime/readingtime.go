// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package readingtime estimates how many minutes an article takes to read.
// HTML tags are stripped from plain-text bodies before words are counted;
// any other syntax, Markdown included, counts as written.
package readingtime

import (
	"math"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"newsroom/internal/models"
)

const (
	// WordsPerMinute is the assumed reading speed.
	WordsPerMinute = 200
	// DefaultMinutes is returned when there is no content to measure.
	DefaultMinutes = 5
)

// strip removes every tag and keeps only text.
var strip = bluemonday.StrictPolicy()

// Estimate returns the reading time in whole minutes, rounded up, never
// less than one. Absent or empty content yields DefaultMinutes.
func Estimate(c *models.Content) int {
	if c.IsEmpty() {
		return DefaultMinutes
	}
	minutes := int(math.Ceil(float64(Words(PlainText(c))) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// PlainText flattens content into text without markup. Block content is the
// concatenation of every span's text, each followed by a space.
func PlainText(c *models.Content) string {
	if c == nil {
		return ""
	}
	if c.Structured {
		var b strings.Builder
		for _, block := range c.Blocks {
			for _, span := range block.Children {
				b.WriteString(span.Text)
				b.WriteByte(' ')
			}
		}
		return strings.TrimRight(b.String(), " \t\n")
	}
	return StripMarkup(c.Text)
}

// StripMarkup removes HTML tags and keeps their text.
func StripMarkup(source string) string {
	return strip.Sanitize(source)
}

// Words counts whitespace-separated tokens.
func Words(text string) int {
	return len(strings.Fields(text))
}
