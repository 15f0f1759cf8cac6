package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Field extractors: pure heuristic functions over free-form text. Every
// extractor degrades to a safe default or nothing; absence of a field
// must never abort parsing of an otherwise valid item.

// Ordered price patterns. Labelled amounts win over bare dollar amounts.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)current\s+bid:?\s*(?:CAD?\s*)?\$?\s*([\d,]+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)reserve(?:\s+price)?:?\s*(?:CAD?\s*)?\$?\s*([\d,]+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)(?:price|bid|asking):?\s*\$\s*([\d,]+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`\$\s*([\d,]+(?:\.\d{1,2})?)`),
}

// Ordered date patterns with their parse layouts.
var datePatterns = []struct {
	re      *regexp.Regexp
	layouts []string
}{
	{
		re:      regexp.MustCompile(`\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?)?`),
		layouts: []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"},
	},
	{
		re:      regexp.MustCompile(`(?i)(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}`),
		layouts: []string{"January 2, 2006", "January 2 2006"},
	},
	{
		re:      regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`),
		layouts: []string{"1/2/2006"},
	},
}

// NormalizeCategory lower-cases raw and tests it against the rules in
// order, returning Other when nothing matches. Each site parser owns
// its own rule table because source taxonomies differ.
func NormalizeCategory(raw string, rules []CategoryRule) Category {
	text := strings.ToLower(raw)
	if text == "" {
		return CategoryOther
	}
	for _, rule := range rules {
		if strings.Contains(text, rule.Keyword) {
			return rule.Category
		}
	}
	return CategoryOther
}

// ExtractLocation scans text for known place names in order and returns
// the first match's formatted location. Falls back to a source-level
// default, so it never returns empty.
func ExtractLocation(text string, places []PlaceRule, fallback string) string {
	lower := strings.ToLower(text)
	for _, place := range places {
		if strings.Contains(lower, place.Keyword) {
			return place.Location
		}
	}
	return fallback
}

// ExtractPrice applies the ordered price patterns and returns the first
// match parsed as a non-negative amount, or nil when no pattern matches
// or the parse fails. No currency conversion is attempted.
func ExtractPrice(text string) *float64 {
	for _, pattern := range pricePatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		raw := strings.ReplaceAll(match[1], ",", "")
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value < 0 {
			return nil
		}
		return &value
	}
	return nil
}

// ExtractClosingDate applies the ordered date patterns; the first match
// that parses to a valid date is returned as RFC 3339. When futureOnly
// is set, a past date is rejected — a closing date behind us carries no
// signal on auction sources. Returns "" when nothing matches or parses.
func ExtractClosingDate(text string, futureOnly bool) string {
	for _, pattern := range datePatterns {
		match := pattern.re.FindString(text)
		if match == "" {
			continue
		}
		for _, layout := range pattern.layouts {
			parsed, err := time.Parse(layout, match)
			if err != nil {
				continue
			}
			if futureOnly && !parsed.After(time.Now()) {
				return ""
			}
			return parsed.UTC().Format(time.RFC3339)
		}
	}
	return ""
}
