package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/boardwatch/boardwatch/internal/extract"
	"github.com/boardwatch/boardwatch/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// maxGreenhousePostings caps how many postings are taken from a single
// board. Some Greenhouse boards list thousands of postings and the tail is
// rarely interesting for tracking.
const maxGreenhousePostings = 100

type greenhouseJob struct {
	ID          int64                  `json:"id"`
	Title       string                 `json:"title"`
	Content     string                 `json:"content"`
	AbsoluteURL string                 `json:"absolute_url"`
	Location    *greenhouseLocation    `json:"location"`
	Offices     []greenhouseOffice     `json:"offices"`
	Departments []greenhouseDepartment `json:"departments"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

type greenhouseOffice struct {
	Name string `json:"name"`
}

type greenhouseDepartment struct {
	Name string `json:"name"`
}

type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseAdapter fetches postings from the Greenhouse public boards API
// with full content included.
type GreenhouseAdapter struct {
	boardIdentifier string
	client          *http.Client
	logger          *slog.Logger
}

// NewGreenhouseAdapter creates an adapter for a Greenhouse job board.
func NewGreenhouseAdapter(boardIdentifier string, client *http.Client, logger *slog.Logger) *GreenhouseAdapter {
	return &GreenhouseAdapter{
		boardIdentifier: boardIdentifier,
		client:          client,
		logger:          logger,
	}
}

// Fetch retrieves postings from the board. Descriptions come back
// entity-encoded and are decoded before any downstream extraction runs.
// A posting without an id is skipped and logged.
func (g *GreenhouseAdapter) Fetch(ctx context.Context) ([]model.RawPosting, error) {
	url := fmt.Sprintf("%s/%s/jobs?content=true", greenhouseBaseURL, g.boardIdentifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", g.boardIdentifier, err)
	}
	acceptJSON(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &model.UpstreamError{Source: model.SourceGreenhouse, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.UpstreamError{
			Source:     model.SourceGreenhouse,
			Status:     resp.StatusCode,
			Body:       readErrorBody(resp.Body),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var board greenhouseResponse
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		return nil, &model.UpstreamError{Source: model.SourceGreenhouse, Err: fmt.Errorf("decoding response: %w", err)}
	}

	jobs := board.Jobs
	if len(jobs) > maxGreenhousePostings {
		g.logger.Debug("capping board postings",
			"board", g.boardIdentifier,
			"total", len(jobs),
			"cap", maxGreenhousePostings,
		)
		jobs = jobs[:maxGreenhousePostings]
	}

	postings := make([]model.RawPosting, 0, len(jobs))
	for _, job := range jobs {
		p, err := g.normalize(job)
		if err != nil {
			g.logger.Warn("skipping malformed posting",
				"board", g.boardIdentifier,
				"title", job.Title,
				"error", err,
			)
			continue
		}
		postings = append(postings, p)
	}

	return postings, nil
}

func (g *GreenhouseAdapter) normalize(job greenhouseJob) (model.RawPosting, error) {
	if job.ID == 0 {
		return model.RawPosting{}, &model.MalformedPostingError{
			Source: model.SourceGreenhouse,
			Reason: "missing id",
		}
	}

	description := extract.DecodeEntities(job.Content)

	return model.RawPosting{
		ExternalID:  strconv.FormatInt(job.ID, 10),
		Title:       job.Title,
		Description: description,
		Locations:   greenhouseLocations(job, description),
		Department:  greenhouseDepartmentName(job.Departments),
		URL:         job.AbsoluteURL,
		Salary:      extract.Salary(description),
	}, nil
}

// greenhouseLocations derives the location list. Priority: the offices
// list, the location display name (which may pack several cities into one
// string), and finally best-effort extraction from the decoded description.
// Defaults to Remote when nothing usable is found.
func greenhouseLocations(job greenhouseJob, description string) []string {
	if len(job.Offices) > 0 {
		locs := make([]string, 0, len(job.Offices))
		for _, office := range job.Offices {
			if office.Name != "" {
				locs = append(locs, office.Name)
			}
		}
		if len(locs) > 0 {
			return locs
		}
	}

	if job.Location != nil && strings.TrimSpace(job.Location.Name) != "" {
		return extract.SplitLocation(job.Location.Name)
	}

	if locs := extract.LocationsFromText(description); len(locs) > 0 {
		return locs
	}

	return []string{"Remote"}
}

func greenhouseDepartmentName(departments []greenhouseDepartment) string {
	names := make([]string, 0, len(departments))
	for _, d := range departments {
		if d.Name != "" {
			names = append(names, d.Name)
		}
	}
	return strings.Join(names, ", ")
}
