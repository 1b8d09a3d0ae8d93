package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/boardwatch/boardwatch/internal/model"
)

const ashbyBoardFixture = `{
  "jobs": [
    {
      "id": "a1",
      "title": "Backend Engineer",
      "descriptionHtml": "<p>Build services.</p>",
      "department": "Engineering",
      "isListed": true,
      "location": "New York",
      "secondaryLocations": [{"location": "London"}],
      "jobUrl": "https://jobs.example.com/a1",
      "applyUrl": "https://jobs.example.com/a1/apply",
      "compensation": {
        "summaryComponents": [
          {"compensationType": "EquityPercentage", "interval": "NONE"},
          {
            "compensationType": "Salary",
            "interval": "1 YEAR",
            "currencyCode": "USD",
            "minValue": 140000,
            "maxValue": 180000
          }
        ]
      }
    },
    {
      "id": "a2",
      "title": "Internal Only Role",
      "isListed": false
    },
    {
      "id": "",
      "title": "Broken Posting",
      "isListed": true
    },
    {
      "id": "a3",
      "title": "Support Specialist",
      "descriptionPlain": "Help customers. This is a remote position.",
      "isListed": true
    }
  ]
}`

func TestAshbyAdapter_Fetch(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(ashbyBoardFixture))
	}))
	defer server.Close()

	adapter := NewAshbyAdapter("acme", newRewriteClient(t, server.URL), discardLogger())
	postings, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if gotPath != "/posting-api/job-board/acme" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotQuery != "includeCompensation=true" {
		t.Errorf("request query = %q", gotQuery)
	}

	// Unlisted and id-less postings are dropped.
	if len(postings) != 2 {
		t.Fatalf("got %d postings, want 2: %+v", len(postings), postings)
	}

	first := postings[0]
	if first.ExternalID != "a1" {
		t.Errorf("ExternalID = %q, want a1", first.ExternalID)
	}
	if first.URL != "https://jobs.example.com/a1/apply" {
		t.Errorf("URL = %q, want apply url", first.URL)
	}
	wantLocs := []string{"New York", "London"}
	if len(first.Locations) != 2 || first.Locations[0] != wantLocs[0] || first.Locations[1] != wantLocs[1] {
		t.Errorf("Locations = %v, want %v", first.Locations, wantLocs)
	}
	if first.Salary.Min == nil || *first.Salary.Min != 140000 {
		t.Errorf("Salary.Min = %v, want 140000", first.Salary.Min)
	}
	if first.Salary.Max == nil || *first.Salary.Max != 180000 {
		t.Errorf("Salary.Max = %v, want 180000", first.Salary.Max)
	}
	if first.Salary.Interval != model.IntervalYearly {
		t.Errorf("Salary.Interval = %q, want yearly", first.Salary.Interval)
	}
	if first.Salary.Currency != "USD" {
		t.Errorf("Salary.Currency = %q, want USD", first.Salary.Currency)
	}

	// No location fields at all: recovered from the description text.
	second := postings[1]
	if second.ExternalID != "a3" {
		t.Fatalf("second posting = %q, want a3", second.ExternalID)
	}
	if len(second.Locations) == 0 {
		t.Fatal("second posting has no locations")
	}
}

func TestAshbyAdapter_FetchMissingJobsField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	adapter := NewAshbyAdapter("acme", newRewriteClient(t, server.URL), discardLogger())
	postings, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(postings) != 0 {
		t.Errorf("got %d postings, want 0", len(postings))
	}
}

func TestAshbyAdapter_FetchRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer server.Close()

	adapter := NewAshbyAdapter("acme", newRewriteClient(t, server.URL), discardLogger())
	_, err := adapter.Fetch(context.Background())

	var upstream *model.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error = %v, want UpstreamError", err)
	}
	if upstream.Status != http.StatusTooManyRequests {
		t.Errorf("Status = %d, want 429", upstream.Status)
	}
	if upstream.RetryAfter != 30*time.Second {
		t.Errorf("RetryAfter = %v, want 30s", upstream.RetryAfter)
	}
	if upstream.Source != model.SourceAshby {
		t.Errorf("Source = %q, want ashby", upstream.Source)
	}
}
