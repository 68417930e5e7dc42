package provider

import (
	"context"
	"time"
)

// ChatMessage is a single role-tagged turn passed to the LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TopicResult is the structured output of topic classification. Topic is
// empty when the request could not be mapped to the taxonomy.
type TopicResult struct {
	Topic   string `json:"topic"`
	Details string `json:"details"`
}

// Relevance is the structured output of relevance rating.
type Relevance struct {
	Score       float64 `json:"relevance_score"`
	Explanation string  `json:"explanation"`
}

// LLM is the interface all language-model implementations must satisfy.
type LLM interface {
	// ExtractTopic classifies the conversation into one of the allowed
	// topics plus free-text details.
	ExtractTopic(ctx context.Context, history []ChatMessage, topics []string) (TopicResult, error)

	// RateRelevance scores how well a core text matches the user request,
	// in [0,1].
	RateRelevance(ctx context.Context, userRequest, coreText string) (Relevance, error)

	// Generate produces free-form text for the given system/user prompts.
	Generate(ctx context.Context, system, user string) (string, error)
}

// SearchResult is one hit from the web search provider.
type SearchResult struct {
	URL         string
	Title       string
	Content     string
	Score       float64
	PublishedAt time.Time // zero when the provider gave no date
}

// Searcher finds source URLs and extracts primary text from them.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)

	// Extract pulls primary text per URL. URLs that yield nothing are
	// absent from the result map.
	Extract(ctx context.Context, urls []string) (map[string]string, error)
}

// VideoSearcher finds video URLs ordered by view count.
type VideoSearcher interface {
	Search(ctx context.Context, query string, publishedAfter time.Time, maxResults int) ([]string, error)
}

// ForumPost is one post from the forum provider.
type ForumPost struct {
	Title       string
	URL         string // external link target of the post
	Permalink   string
	Score       int
	NumComments int
	CreatedAt   time.Time
}

// ForumSearcher finds forum posts for a query.
type ForumSearcher interface {
	Search(ctx context.Context, query string, sort string, limit int) ([]ForumPost, error)
}
