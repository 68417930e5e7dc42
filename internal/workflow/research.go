package workflow

import (
	"context"
	"time"
)

// ResearchRecord is one persisted source text for a topic.
type ResearchRecord struct {
	Topic     string
	Details   string
	URL       string
	CoreText  string
	CreatedAt time.Time
}

// ResearchStore persists and recalls researched source texts so repeated
// requests on a topic can skip the provider round trips.
type ResearchStore interface {
	// FindRecent returns records for the topic created after since, newest
	// first.
	FindRecent(ctx context.Context, topic string, since time.Time) ([]ResearchRecord, error)

	Insert(ctx context.Context, rec ResearchRecord) error
}
