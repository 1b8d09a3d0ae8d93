// Package extract holds the pure text-transformation helpers shared by the
// source adapters and the reconciliation engine: location splitting, remote
// detection, salary parsing, and HTML entity decoding. No I/O happens here.
package extract

import (
	"regexp"
	"strings"
)

// locationDelimiters is tried in order; the first delimiter present in the
// string wins.
var locationDelimiters = []string{", ", " - ", "/", " and ", " & ", " · "}

// SplitLocation splits a raw location string into atomic locations. Segments
// are trimmed and empty segments dropped. A string containing none of the
// known delimiters comes back as a single-element slice.
func SplitLocation(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, delim := range locationDelimiters {
		if !strings.Contains(s, delim) {
			continue
		}
		parts := strings.Split(s, delim)
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}

	return []string{s}
}

var remoteKeywords = []string{
	"remote",
	"work from home",
	"wfh",
	"virtual",
	"telecommute",
	"anywhere",
	"distributed",
}

// IsRemote reports whether a location string indicates a remote position.
func IsRemote(location string) bool {
	lower := strings.ToLower(location)
	for _, kw := range remoteKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Patterns that introduce a location phrase inside a job description. The
// captured group runs up to the next sentence/markup boundary.
var locationPhrasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\blocations?\s*(?::|is|are)\s*(.*?)(?:\.|,|\n|</p>|<br>)`),
	regexp.MustCompile(`(?i)\boffices?\s*(?::|in|at)\s*(.*?)(?:\.|,|\n|</p>|<br>)`),
	regexp.MustCompile(`(?i)\bpositions?\s*(?:is|are)\s*(?:in|at)\s*(.*?)(?:\.|,|\n|</p>|<br>)`),
	regexp.MustCompile(`(?i)\bbased\s*(?:in|at)\s*(.*?)(?:\.|,|\n|</p>|<br>)`),
	regexp.MustCompile(`(?i)\bwork\s*(?:from|in|at)\s*(.*?)(?:\.|,|\n|</p>|<br>)`),
	regexp.MustCompile(`(?i)\bremote\s*(?:in|across)\s*(.*?)(?:\.|,|\n|</p>|<br>)`),
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// commonPlaces is the fixed lexicon scanned as a last resort when no
// location phrase matches.
var commonPlaces = []string{
	"New York", "San Francisco", "Los Angeles", "Chicago", "Boston", "Seattle",
	"Austin", "Denver", "Toronto", "London", "Berlin", "Paris", "Sydney",
	"Singapore", "Tokyo", "United States", "Canada", "UK", "Europe", "Asia",
}

// LocationsFromText best-effort extracts location names from a description.
// It first looks for a location-introducing phrase and splits whatever
// follows it; failing that it scans for well-known city/region names
// appearing verbatim. Returns nil when nothing usable is found.
func LocationsFromText(text string) []string {
	if text == "" {
		return nil
	}

	for _, pattern := range locationPhrasePatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil || m[1] == "" {
			continue
		}
		phrase := htmlTagRe.ReplaceAllString(m[1], "")
		phrase = strings.ReplaceAll(phrase, "&nbsp;", " ")
		phrase = strings.TrimSpace(phrase)
		if phrase == "" {
			continue
		}
		return SplitLocation(phrase)
	}

	lower := strings.ToLower(text)
	var found []string
	for _, place := range commonPlaces {
		if strings.Contains(lower, strings.ToLower(place)) {
			found = append(found, place)
		}
	}
	return found
}
