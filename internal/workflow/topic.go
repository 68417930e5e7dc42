package workflow

import (
	"context"
	"fmt"

	"github.com/smallnest/langgraphgo/graph"
)

const (
	clarificationMessage = "I couldn't figure out what topic you'd like content about. Could you tell me a bit more about the subject of the post? For example: tech, sports, fashion, travel, health or business."
	apologyMessage       = "I'm sorry, I still couldn't determine a topic for your request. Please start over with a more specific description of the content you'd like."
)

// topicExtraction classifies the conversation into the topic taxonomy.
// When classification fails it asks the user to clarify, up to the retry
// limit, after which it apologizes and lets the graph end. The limit is
// checked before the classifier runs: an exhausted conversation gets the
// apology without another LLM call.
func (w *Workflow) topicExtraction(ctx context.Context, s State) (State, error) {
	if s.RetryCount >= w.cfg.TopicRetryLimit {
		s.Topic = ""
		s.AddAssistant(apologyMessage)
		return s, nil
	}

	res, err := w.llm.ExtractTopic(ctx, s.History(), Topics)
	if err != nil {
		return s, fmt.Errorf("extracting topic: %w", err)
	}

	if res.Topic == "" || !ValidTopic(res.Topic) {
		w.log.Debugf("topic extraction failed (got %q), retry %d of %d", res.Topic, s.RetryCount, w.cfg.TopicRetryLimit)
		s.RetryCount++
		s.AddAssistant(clarificationMessage)
		return s, &graph.NodeInterrupt{Value: Pause{Question: clarificationMessage, State: s}}
	}

	w.log.Infof("extracted topic %q (%s)", res.Topic, res.Details)
	s.Topic = res.Topic
	s.Details = res.Details
	s.RetryCount = 0
	return s, nil
}
