package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/araddon/dateparse"

	"github.com/postforge/postforge/provider"
)

// Client talks to the Tavily search and extract endpoints.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates a Tavily client. baseURL may be empty for the public API.
func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	return &Client{apiKey: apiKey, baseURL: baseURL, httpClient: http.DefaultClient}
}

type searchResponse struct {
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		Score         float64 `json:"score"`
		PublishedDate string  `json:"published_date"`
	} `json:"results"`
}

// Search runs an advanced-depth search and returns the raw results.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]provider.SearchResult, error) {
	payload := map[string]any{
		"query":        query,
		"max_results":  maxResults,
		"search_depth": "advanced",
	}

	var raw searchResponse
	if err := c.post(ctx, "/search", payload, &raw); err != nil {
		return nil, err
	}

	out := make([]provider.SearchResult, 0, len(raw.Results))
	for _, r := range raw.Results {
		res := provider.SearchResult{URL: r.URL, Title: r.Title, Content: r.Content, Score: r.Score}
		if r.PublishedDate != "" {
			if t, err := dateparse.ParseAny(r.PublishedDate); err == nil {
				res.PublishedAt = t
			}
		}
		out = append(out, res)
	}
	return out, nil
}

type extractResponse struct {
	Results []struct {
		URL        string `json:"url"`
		RawContent string `json:"raw_content"`
	} `json:"results"`
	FailedResults []struct {
		URL   string `json:"url"`
		Error string `json:"error"`
	} `json:"failed_results"`
}

// Extract pulls primary text for each URL. URLs the API fails on are simply
// absent from the returned map.
func (c *Client) Extract(ctx context.Context, urls []string) (map[string]string, error) {
	var raw extractResponse
	if err := c.post(ctx, "/extract", map[string]any{"urls": urls}, &raw); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(raw.Results))
	for _, r := range raw.Results {
		if r.RawContent != "" {
			out[r.URL] = r.RawContent
		}
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tavily %s returned status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
