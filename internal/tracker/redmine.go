// Package tracker implements the Redmine REST client. Responses are parsed
// into typed records at this boundary so the core never handles raw JSON.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/NBISweden/timelogbot/internal/core"
	"github.com/NBISweden/timelogbot/pkg/models"
)

// pageLimit is the Redmine pagination page size. Fetching loops until a
// short page is returned, so large projects are not truncated.
const pageLimit = 100

// Client talks to a Redmine instance using API key authentication.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a Redmine client from the tracker configuration.
func NewClient(cfg core.RedmineConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// issueRecord mirrors the wire shape of one issue.
type issueRecord struct {
	ID           int    `json:"id"`
	Subject      string `json:"subject"`
	CustomFields []struct {
		Name  string          `json:"name"`
		Value json.RawMessage `json:"value"`
	} `json:"custom_fields"`
}

// timeEntryRecord mirrors the wire shape of one time entry.
type timeEntryRecord struct {
	SpentOn string  `json:"spent_on"`
	Hours   float64 `json:"hours"`
}

// ListIssues fetches all issues of a tracker project, regardless of status.
func (c *Client) ListIssues(ctx context.Context, projectID string) ([]models.TrackerIssue, error) {
	var issues []models.TrackerIssue

	offset := 0
	for {
		q := url.Values{}
		q.Set("project_id", projectID)
		q.Set("status_id", "*")
		q.Set("offset", strconv.Itoa(offset))
		q.Set("limit", strconv.Itoa(pageLimit))

		var page struct {
			Issues []issueRecord `json:"issues"`
		}
		if err := c.getJSON(ctx, "/issues.json", q, &page); err != nil {
			return nil, fmt.Errorf("listing issues for project %s: %w", projectID, err)
		}

		for _, rec := range page.Issues {
			issues = append(issues, parseIssue(rec))
		}

		if len(page.Issues) < pageLimit {
			return issues, nil
		}
		offset += pageLimit
	}
}

// ListWorkUnits fetches all logged time entries of one issue as work units.
func (c *Client) ListWorkUnits(ctx context.Context, issueID int) ([]models.WorkUnit, error) {
	var units []models.WorkUnit

	offset := 0
	for {
		q := url.Values{}
		q.Set("issue_id", strconv.Itoa(issueID))
		q.Set("offset", strconv.Itoa(offset))
		q.Set("limit", strconv.Itoa(pageLimit))

		var page struct {
			TimeEntries []timeEntryRecord `json:"time_entries"`
		}
		if err := c.getJSON(ctx, "/time_entries.json", q, &page); err != nil {
			return nil, fmt.Errorf("listing time entries for issue %d: %w", issueID, err)
		}

		for _, rec := range page.TimeEntries {
			date, err := time.Parse("2006-01-02", rec.SpentOn)
			if err != nil {
				return nil, fmt.Errorf("parsing spent_on %q for issue %d: %w", rec.SpentOn, issueID, err)
			}
			units = append(units, models.WorkUnit{Date: date, Hours: rec.Hours})
		}

		if len(page.TimeEntries) < pageLimit {
			return units, nil
		}
		offset += pageLimit
	}
}

// parseIssue converts a wire record into the validated boundary type.
// Custom field values arrive as either a string or a list of strings; the
// first non-empty value wins.
func parseIssue(rec issueRecord) models.TrackerIssue {
	fields := make(map[string]string, len(rec.CustomFields))
	for _, cf := range rec.CustomFields {
		if _, seen := fields[cf.Name]; seen {
			continue
		}
		if v := decodeFieldValue(cf.Value); v != "" {
			fields[cf.Name] = v
		}
	}
	return models.TrackerIssue{ID: rec.ID, Subject: rec.Subject, CustomFields: fields}
}

func decodeFieldValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}

// getJSON performs one authenticated GET and decodes the response body.
// A single attempt only: transport failures surface to the caller.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Redmine-API-Key", c.apiKey)

	c.log.Debug().Str("url", u).Msg("redmine request")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("redmine api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
