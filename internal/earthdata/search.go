package earthdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	dataRel        = "http://esipfed.org/ns/fedsearch/1.1/data#"
	searchAfterHdr = "CMR-Search-After"
	shortNameRE    = "^[A-Za-z0-9_.-]+$"
	pageSize       = 2000
)

var shortNameMatcher = regexp.MustCompile(shortNameRE)

// Query selects granules of a collection within a time range. End is
// inclusive to the day.
type Query struct {
	ShortName string
	Start     time.Time
	End       time.Time
}

func (q Query) temporal() string {
	end := q.End.AddDate(0, 0, 1).Add(-time.Second)
	return q.Start.UTC().Format(time.RFC3339) + "," + end.UTC().Format(time.RFC3339)
}

// Granule is a single file-level search result.
type Granule struct {
	ID    string
	Title string
	// URLs are the HTTP data links of the granule; S3 links are dropped.
	URLs []string
}

type searchResponse struct {
	Feed struct {
		Entry []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
			Links []struct {
				Rel       string `json:"rel"`
				Href      string `json:"href"`
				Inherited bool   `json:"inherited"`
			} `json:"links"`
		} `json:"entry"`
	} `json:"feed"`
}

// Search returns every granule matching q, following CMR paging.
func (c *Client) Search(ctx context.Context, q Query) ([]Granule, error) {
	if !shortNameMatcher.MatchString(q.ShortName) {
		return nil, fmt.Errorf("short name %q does not match %q regular expression", q.ShortName, shortNameRE)
	}
	if q.End.Before(q.Start) {
		return nil, fmt.Errorf("end %s is before start %s", q.End.Format(time.DateOnly), q.Start.Format(time.DateOnly))
	}

	u, err := url.Parse(c.cmrURL)
	if err != nil {
		return nil, err
	}
	u = u.JoinPath("search", "granules.json")
	params := url.Values{}
	params.Set("short_name", q.ShortName)
	params.Set("temporal", q.temporal())
	params.Set("page_size", strconv.Itoa(pageSize))
	params.Set("sort_key", "start_date")
	u.RawQuery = params.Encode()

	var (
		granules    []Granule
		searchAfter string
	)
	for {
		page, next, err := c.searchPage(ctx, u.String(), searchAfter)
		if err != nil {
			return nil, err
		}
		granules = append(granules, page...)
		c.logger.Debug("CMR page", "granules", len(page), "total", len(granules))
		if next == "" || len(page) == 0 {
			break
		}
		searchAfter = next
	}
	return granules, nil
}

func (c *Client) searchPage(ctx context.Context, u, searchAfter string) ([]Granule, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "application/json")
	if searchAfter != "" {
		req.Header.Set(searchAfterHdr, searchAfter)
	}
	res, err := c.httpCli.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("CMR search: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, "", fmt.Errorf("CMR search: unexpected status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, "", fmt.Errorf("CMR search: decode response: %w", err)
	}
	granules := make([]Granule, 0, len(sr.Feed.Entry))
	for _, e := range sr.Feed.Entry {
		g := Granule{ID: e.ID, Title: e.Title}
		for _, l := range e.Links {
			if l.Rel == dataRel && !l.Inherited && isHTTP(l.Href) {
				g.URLs = append(g.URLs, l.Href)
			}
		}
		if len(g.URLs) == 0 {
			c.logger.Warn("granule has no HTTP data link", "id", e.ID, "title", e.Title)
			continue
		}
		granules = append(granules, g)
	}
	return granules, res.Header.Get(searchAfterHdr), nil
}

func isHTTP(href string) bool {
	return strings.HasPrefix(href, "https://") || strings.HasPrefix(href, "http://")
}
