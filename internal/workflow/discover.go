package workflow

import (
	"context"
	"strings"
	"time"
)

func (w *Workflow) searchQuery(s State) string {
	parts := []string{s.Topic}
	if s.Details != "" {
		parts = append(parts, s.Details)
	}
	parts = append(parts, "viral trending")
	return strings.Join(parts, " ")
}

// findURLs queries the three source providers for viral material on the
// topic. Providers are independent: one failing or being unconfigured
// just leaves its list empty.
func (w *Workflow) findURLs(ctx context.Context, s State) (State, error) {
	query := w.searchQuery(s)
	cutoff := w.now().Add(-w.cfg.SourceRecency)
	n := w.cfg.URLsPerProvider

	s.SearchURLs = w.searchProvider(ctx, query, cutoff, n)
	s.VideoURLs = w.videoProvider(ctx, query, cutoff, n)
	s.ForumURLs = w.forumProvider(ctx, query, cutoff, n)

	w.log.Infof("discovered %d search, %d video, %d forum urls for %q",
		len(s.SearchURLs), len(s.VideoURLs), len(s.ForumURLs), s.Topic)
	return s, nil
}

func (w *Workflow) searchProvider(ctx context.Context, query string, cutoff time.Time, n int) []string {
	if w.search == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, w.cfg.ProviderTimeout)
	defer cancel()

	results, err := w.search.Search(ctx, query, n*3)
	if err != nil {
		providerErrors.WithLabelValues("search").Inc()
		w.log.Warnf("web search failed: %v", err)
		return nil
	}

	urls := make([]string, 0, n)
	seen := make(map[string]bool)
	for _, r := range results {
		if len(urls) >= n {
			break
		}
		// Undated results are kept; only confirmed-stale ones are dropped.
		if !r.PublishedAt.IsZero() && r.PublishedAt.Before(cutoff) {
			continue
		}
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		urls = append(urls, r.URL)
	}
	return urls
}

func (w *Workflow) videoProvider(ctx context.Context, query string, cutoff time.Time, n int) []string {
	if w.video == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, w.cfg.ProviderTimeout)
	defer cancel()

	urls, err := w.video.Search(ctx, query, cutoff, n)
	if err != nil {
		providerErrors.WithLabelValues("video").Inc()
		w.log.Warnf("video search failed: %v", err)
		return nil
	}
	if len(urls) > n {
		urls = urls[:n]
	}
	return urls
}

func (w *Workflow) forumProvider(ctx context.Context, query string, cutoff time.Time, n int) []string {
	if w.forum == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, w.cfg.ProviderTimeout)
	defer cancel()

	posts, err := w.forum.Search(ctx, query, "top", n*5)
	if err != nil {
		providerErrors.WithLabelValues("forum").Inc()
		w.log.Warnf("forum search failed: %v", err)
		return nil
	}

	urls := make([]string, 0, n)
	seen := make(map[string]bool)
	for _, p := range posts {
		if len(urls) >= n {
			break
		}
		if p.CreatedAt.Before(cutoff) {
			continue
		}
		if p.Score <= w.cfg.ForumMinScore && p.NumComments <= w.cfg.ForumMinComments {
			continue
		}
		// Only posts linking out to an article are usable as sources;
		// self posts point back at the forum itself.
		if p.URL == "" || strings.Contains(p.URL, "reddit.com") {
			continue
		}
		if seen[p.URL] {
			continue
		}
		seen[p.URL] = true
		urls = append(urls, p.URL)
	}
	return urls
}
