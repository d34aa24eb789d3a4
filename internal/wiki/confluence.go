// Package wiki implements the Confluence REST client used to find and
// rewrite the per-project report pages.
package wiki

import (
	"bytes"
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

// pageLimit is the content search page size. Search loops through result
// pages, so instances with more report pages than one batch are not missed.
const pageLimit = 200

// Client talks to a Confluence instance using basic auth with an API token.
type Client struct {
	apiURL string
	user   string
	token  string
	http   *http.Client
	log    zerolog.Logger
}

// NewClient creates a Confluence client from the wiki configuration.
func NewClient(cfg core.ConfluenceConfig, log zerolog.Logger) *Client {
	return &Client{
		apiURL: strings.TrimRight(cfg.APIURL, "/"),
		user:   cfg.User,
		token:  cfg.APIToken,
		http:   &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

// contentRecord mirrors the wire shape of a content search result or a
// fetched page, depending on the expand parameters used.
type contentRecord struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Space struct {
		Name string `json:"name"`
	} `json:"space"`
	Body struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
	Ancestors []models.PageAncestor `json:"ancestors"`
}

// FindPages searches all pages with the given title and returns their IDs
// and space names.
func (c *Client) FindPages(ctx context.Context, title string) ([]models.PageRef, error) {
	var refs []models.PageRef

	start := 0
	for {
		q := url.Values{}
		q.Set("title", title)
		q.Set("expand", "space")
		q.Set("start", strconv.Itoa(start))
		q.Set("limit", strconv.Itoa(pageLimit))

		var page struct {
			Results []contentRecord `json:"results"`
		}
		if err := c.getJSON(ctx, "/content", q, &page); err != nil {
			return nil, fmt.Errorf("searching pages titled %q: %w", title, err)
		}

		for _, rec := range page.Results {
			refs = append(refs, models.PageRef{ID: rec.ID, SpaceName: rec.Space.Name})
		}

		if len(page.Results) < pageLimit {
			return refs, nil
		}
		start += pageLimit
	}
}

// GetPage fetches one page with its storage-format body, version, and
// ancestors.
func (c *Client) GetPage(ctx context.Context, pageID string) (*models.Page, error) {
	q := url.Values{}
	q.Set("expand", "body.storage,version,ancestors")

	var rec contentRecord
	if err := c.getJSON(ctx, "/content/"+url.PathEscape(pageID), q, &rec); err != nil {
		return nil, fmt.Errorf("fetching page %s: %w", pageID, err)
	}

	return &models.Page{
		ID:        rec.ID,
		Title:     rec.Title,
		Body:      rec.Body.Storage.Value,
		Version:   rec.Version.Number,
		Ancestors: rec.Ancestors,
	}, nil
}

// UpdatePage replaces a page body, bumping the version by exactly one and
// preserving the title and ancestors.
func (c *Client) UpdatePage(ctx context.Context, page *models.Page, newBody string) error {
	content := map[string]any{
		"id":        page.ID,
		"type":      "page",
		"title":     page.Title,
		"ancestors": page.Ancestors,
		"body": map[string]any{
			"storage": map[string]any{
				"value":          newBody,
				"representation": "storage",
			},
		},
		"version": map[string]any{
			"number": page.Version + 1,
		},
	}

	payload, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encoding page %s: %w", page.ID, err)
	}

	u := c.apiURL + "/content/" + url.PathEscape(page.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("updating page %s: %w", page.ID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.user, c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("updating page %s: %w", page.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("updating page %s: confluence api status=%d body=%s",
			page.ID, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// getJSON performs one authenticated GET and decodes the response body.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	u := c.apiURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.user, c.token)

	c.log.Debug().Str("url", u).Msg("confluence request")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("confluence api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
