package youtube

import (
	"context"
	"fmt"
	"time"

	yt "google.golang.org/api/youtube/v3"
)

const watchURL = "https://www.youtube.com/watch?v=%s"

// Client searches YouTube through the Data API v3.
type Client struct {
	svc *yt.Service
}

// New wraps an existing YouTube service. Construction of the service (API
// key, endpoint) is the caller's job so tests can point it elsewhere.
func New(svc *yt.Service) *Client {
	return &Client{svc: svc}
}

// Search returns watch URLs for videos matching the query, ordered by view
// count and restricted to videos published after the given time.
func (c *Client) Search(ctx context.Context, query string, publishedAfter time.Time, maxResults int) ([]string, error) {
	call := c.svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		Order("viewCount").
		PublishedAfter(publishedAfter.UTC().Format(time.RFC3339)).
		MaxResults(int64(maxResults))

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}

	urls := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		urls = append(urls, fmt.Sprintf(watchURL, item.Id.VideoId))
	}
	return urls, nil
}
