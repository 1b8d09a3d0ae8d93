package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/boardwatch/boardwatch/internal/extract"
	"github.com/boardwatch/boardwatch/internal/model"
)

const ashbyBaseURL = "https://api.ashbyhq.com/posting-api/job-board"

// ashbyJob is a single job in the Ashby posting-board API response.
type ashbyJob struct {
	ID                 string              `json:"id"`
	Title              string              `json:"title"`
	DescriptionHTML    string              `json:"descriptionHtml"`
	DescriptionPlain   string              `json:"descriptionPlain"`
	Department         string              `json:"department"`
	IsListed           bool                `json:"isListed"`
	Location           string              `json:"location"`
	SecondaryLocations []ashbySecondary    `json:"secondaryLocations"`
	Locations          []string            `json:"locations"`
	Address            *ashbyAddress       `json:"address"`
	JobURL             string              `json:"jobUrl"`
	ApplyURL           string              `json:"applyUrl"`
	Compensation       *ashbyCompensation  `json:"compensation"`
}

type ashbySecondary struct {
	Location string `json:"location"`
}

type ashbyAddress struct {
	PostalAddress struct {
		AddressLocality string `json:"addressLocality"`
		AddressRegion   string `json:"addressRegion"`
		AddressCountry  string `json:"addressCountry"`
	} `json:"postalAddress"`
}

type ashbyCompensation struct {
	SummaryComponents []ashbyCompComponent `json:"summaryComponents"`
}

type ashbyCompComponent struct {
	CompensationType string   `json:"compensationType"`
	Interval         string   `json:"interval"`
	CurrencyCode     string   `json:"currencyCode"`
	MinValue         *float64 `json:"minValue"`
	MaxValue         *float64 `json:"maxValue"`
}

// ashbyResponse is the top-level Ashby job board API response. A missing
// jobs field decodes to nil and is treated as an empty board, not an error.
type ashbyResponse struct {
	Jobs []ashbyJob `json:"jobs"`
}

// AshbyAdapter fetches postings from the Ashby public job board API with
// compensation included.
type AshbyAdapter struct {
	boardIdentifier string
	client          *http.Client
	logger          *slog.Logger
}

// NewAshbyAdapter creates an adapter for an Ashby job board.
func NewAshbyAdapter(boardIdentifier string, client *http.Client, logger *slog.Logger) *AshbyAdapter {
	return &AshbyAdapter{
		boardIdentifier: boardIdentifier,
		client:          client,
		logger:          logger,
	}
}

// Fetch retrieves publicly listed postings from the board and normalizes
// them. A posting without an id is skipped and logged, never fatal to the
// batch.
func (a *AshbyAdapter) Fetch(ctx context.Context) ([]model.RawPosting, error) {
	url := fmt.Sprintf("%s/%s?includeCompensation=true", ashbyBaseURL, a.boardIdentifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ashby fetch for %s: %w", a.boardIdentifier, err)
	}
	acceptJSON(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &model.UpstreamError{Source: model.SourceAshby, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.UpstreamError{
			Source:     model.SourceAshby,
			Status:     resp.StatusCode,
			Body:       readErrorBody(resp.Body),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var board ashbyResponse
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		return nil, &model.UpstreamError{Source: model.SourceAshby, Err: fmt.Errorf("decoding response: %w", err)}
	}

	postings := make([]model.RawPosting, 0, len(board.Jobs))
	for _, job := range board.Jobs {
		if !job.IsListed {
			continue
		}
		p, err := a.normalize(job)
		if err != nil {
			a.logger.Warn("skipping malformed posting",
				"board", a.boardIdentifier,
				"title", job.Title,
				"error", err,
			)
			continue
		}
		postings = append(postings, p)
	}

	return postings, nil
}

func (a *AshbyAdapter) normalize(job ashbyJob) (model.RawPosting, error) {
	if job.ID == "" {
		return model.RawPosting{}, &model.MalformedPostingError{
			Source: model.SourceAshby,
			Reason: "missing id",
		}
	}

	description := job.DescriptionHTML
	if description == "" {
		description = job.DescriptionPlain
	}

	url := job.ApplyURL
	if url == "" {
		url = job.JobURL
	}

	return model.RawPosting{
		ExternalID:  job.ID,
		Title:       job.Title,
		Description: description,
		Locations:   ashbyLocations(job, description),
		Department:  job.Department,
		URL:         url,
		Salary:      ashbySalary(job.Compensation),
	}, nil
}

// ashbyLocations derives the location list. Priority: the secondary
// locations list (combined with the primary), an explicit locations array,
// the single location field, the postal address, and finally best-effort
// extraction from the description. Defaults to Remote when nothing usable
// is found.
func ashbyLocations(job ashbyJob, description string) []string {
	if len(job.SecondaryLocations) > 0 {
		locs := make([]string, 0, len(job.SecondaryLocations)+1)
		if job.Location != "" {
			locs = append(locs, job.Location)
		}
		for _, sec := range job.SecondaryLocations {
			if sec.Location != "" {
				locs = append(locs, sec.Location)
			}
		}
		if len(locs) > 0 {
			return locs
		}
	}

	if len(job.Locations) > 0 {
		return job.Locations
	}

	if job.Location != "" {
		return []string{job.Location}
	}

	if job.Address != nil {
		pa := job.Address.PostalAddress
		parts := make([]string, 0, 2)
		if pa.AddressLocality != "" {
			parts = append(parts, pa.AddressLocality)
		}
		if pa.AddressRegion != "" {
			parts = append(parts, pa.AddressRegion)
		} else if pa.AddressCountry != "" {
			parts = append(parts, pa.AddressCountry)
		}
		if len(parts) > 0 {
			return []string{strings.Join(parts, ", ")}
		}
	}

	if locs := extract.LocationsFromText(description); len(locs) > 0 {
		return locs
	}

	return []string{"Remote"}
}

// ashbySalary picks the "Salary" component out of the compensation summary.
func ashbySalary(comp *ashbyCompensation) model.SalaryRange {
	if comp == nil {
		return model.SalaryRange{}
	}
	for _, c := range comp.SummaryComponents {
		if !strings.EqualFold(c.CompensationType, "Salary") {
			continue
		}
		var s model.SalaryRange
		if c.MinValue != nil {
			min := int64(*c.MinValue)
			s.Min = &min
		}
		if c.MaxValue != nil {
			max := int64(*c.MaxValue)
			s.Max = &max
		}
		s.Currency = c.CurrencyCode
		s.Interval = mapAshbyInterval(c.Interval)
		return s
	}
	return model.SalaryRange{}
}

// mapAshbyInterval maps Ashby interval spellings ("1 YEAR", "yearly",
// "annual", ...) onto the canonical intervals.
func mapAshbyInterval(interval string) model.SalaryInterval {
	lower := strings.ToLower(interval)
	switch {
	case strings.Contains(lower, "year"), strings.Contains(lower, "annual"):
		return model.IntervalYearly
	case strings.Contains(lower, "month"):
		return model.IntervalMonthly
	case strings.Contains(lower, "hour"):
		return model.IntervalHourly
	default:
		return ""
	}
}
