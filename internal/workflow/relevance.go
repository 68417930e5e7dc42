package workflow

import (
	"context"
	"sort"
)

// rateRelevance scores each core text against the original request and
// keeps only the best ones. The survivors are persisted so future
// requests on the topic can reuse them.
func (w *Workflow) rateRelevance(ctx context.Context, s State) (State, error) {
	if len(s.CoreTexts) == 0 {
		return s, nil
	}

	request := s.FirstUserMessage()
	type rated struct {
		url   string
		text  string
		score float64
	}
	scored := make([]rated, 0, len(s.CoreTexts))
	for i, text := range s.CoreTexts {
		rel, err := w.llm.RateRelevance(ctx, request, text)
		if err != nil {
			w.log.Warnf("relevance rating failed for %s: %v", s.SourceURLs[i], err)
			continue
		}
		w.log.Debugf("relevance %.2f for %s: %s", rel.Score, s.SourceURLs[i], rel.Explanation)
		scored = append(scored, rated{url: s.SourceURLs[i], text: text, score: rel.Score})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > w.cfg.TopTexts {
		scored = scored[:w.cfg.TopTexts]
	}

	s.SourceURLs = s.SourceURLs[:0]
	s.CoreTexts = s.CoreTexts[:0]
	s.RelevanceScores = s.RelevanceScores[:0]
	for _, r := range scored {
		s.SourceURLs = append(s.SourceURLs, r.url)
		s.CoreTexts = append(s.CoreTexts, r.text)
		s.RelevanceScores = append(s.RelevanceScores, r.score)

		if w.research == nil {
			continue
		}
		rec := ResearchRecord{
			Topic:     s.Topic,
			Details:   s.Details,
			URL:       r.url,
			CoreText:  r.text,
			CreatedAt: w.now(),
		}
		if err := w.research.Insert(ctx, rec); err != nil {
			w.log.Warnf("persisting research for %q failed: %v", s.Topic, err)
		}
	}
	return s, nil
}
