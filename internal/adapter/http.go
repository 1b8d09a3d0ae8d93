// Package adapter fetches postings from upstream ATS APIs and normalizes
// them into model.RawPosting. All parsing of untrusted upstream JSON is
// confined to this package: a posting either comes out fully typed or is
// skipped with a MalformedPostingError.
package adapter

import (
	"io"
	"net/http"
	"strconv"
	"time"
)

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// maxErrorBody bounds how much of an error response body is kept for the
// UpstreamError record.
const maxErrorBody = 512

// readErrorBody drains up to maxErrorBody bytes of an error response.
func readErrorBody(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	return string(b)
}

// acceptJSON sets the headers both ATS APIs expect.
func acceptJSON(req *http.Request) {
	req.Header.Set("Accept", "application/json")
}
