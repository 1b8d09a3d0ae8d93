package adapter

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"testing"
)

// roundTripFunc lets a test redirect adapter requests to a local httptest
// server regardless of the hardcoded API base URL.
type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// newRewriteClient returns an http.Client that rewrites the scheme and host
// of every request to point at serverURL, preserving path and query.
func newRewriteClient(t *testing.T, serverURL string) *http.Client {
	t.Helper()
	target, err := url.Parse(serverURL)
	if err != nil {
		t.Fatalf("parsing server url: %v", err)
	}
	return &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			req.URL.Scheme = target.Scheme
			req.URL.Host = target.Host
			return http.DefaultTransport.RoundTrip(req)
		}),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
