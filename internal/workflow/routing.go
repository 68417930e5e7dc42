package workflow

import (
	"context"

	"github.com/smallnest/langgraphgo/graph"
)

func (w *Workflow) afterTopicExtraction(ctx context.Context, s State) string {
	if s.Topic == "" {
		return graph.END
	}
	return NodeCheckDB
}

func (w *Workflow) afterCheckDB(ctx context.Context, s State) string {
	if s.TopicInDB && s.DBContent != "" {
		return NodeAskDateRelevant
	}
	return NodeFindURL
}

func (w *Workflow) afterAskDateRelevant(ctx context.Context, s State) string {
	if s.DateConfirmed != nil && *s.DateConfirmed {
		return NodeFetchDB
	}
	return NodeFindURL
}

func (w *Workflow) afterGenerateContent(ctx context.Context, s State) string {
	if len(s.GeneratedContent) == 0 {
		return graph.END
	}
	return NodeOutput
}
