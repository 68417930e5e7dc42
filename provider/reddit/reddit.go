package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/postforge/postforge/provider"
)

// Client searches Reddit through its public JSON API. Reddit rejects the
// default Go user agent, so one must always be set.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// New creates a Reddit client. baseURL may be empty for the public API.
func New(baseURL, userAgent string) *Client {
	if baseURL == "" {
		baseURL = "https://www.reddit.com"
	}
	return &Client{baseURL: baseURL, userAgent: userAgent, httpClient: http.DefaultClient}
}

type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string  `json:"title"`
				URL         string  `json:"url"`
				Permalink   string  `json:"permalink"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				CreatedUTC  float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Search queries all of Reddit for posts matching the query. sort is one of
// "hot", "new", "top", "relevance", "comments".
func (c *Client) Search(ctx context.Context, query string, sort string, limit int) ([]provider.ForumPost, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("sort", sort)
	q.Set("t", "month")
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.json?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit search returned status %d", resp.StatusCode)
	}

	var raw listing
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	out := make([]provider.ForumPost, 0, len(raw.Data.Children))
	for _, child := range raw.Data.Children {
		d := child.Data
		out = append(out, provider.ForumPost{
			Title:       d.Title,
			URL:         d.URL,
			Permalink:   c.baseURL + d.Permalink,
			Score:       d.Score,
			NumComments: d.NumComments,
			CreatedAt:   time.Unix(int64(d.CreatedUTC), 0).UTC(),
		})
	}
	return out, nil
}
