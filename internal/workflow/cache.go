package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallnest/langgraphgo/graph"
)

var (
	yesAnswers = []string{"yes", "y", "ok", "okay", "sure", "fine"}
	noAnswers  = []string{"no", "n", "nope"}
)

func parseYesNo(answer string) (bool, bool) {
	a := strings.ToLower(strings.TrimSpace(strings.TrimRight(strings.TrimSpace(answer), ".!")))
	for _, y := range yesAnswers {
		if a == y {
			return true, true
		}
	}
	for _, n := range noAnswers {
		if a == n {
			return false, true
		}
	}
	return false, false
}

// checkDB looks for research on the topic persisted within the lookback
// window. Lookup failures fall back to fresh research rather than failing
// the conversation.
func (w *Workflow) checkDB(ctx context.Context, s State) (State, error) {
	s.TopicInDB = false
	s.DBContent = ""
	if w.research == nil {
		return s, nil
	}

	recs, err := w.research.FindRecent(ctx, s.Topic, w.now().Add(-w.cfg.ResearchLookback))
	if err != nil {
		w.log.Warnf("research lookup for %q failed: %v", s.Topic, err)
		return s, nil
	}
	if len(recs) == 0 {
		return s, nil
	}

	keep := recs
	if len(keep) > w.cfg.TopTexts {
		keep = keep[:w.cfg.TopTexts]
	}
	texts := make([]string, 0, len(keep))
	for _, r := range keep {
		texts = append(texts, r.CoreText)
	}

	s.TopicInDB = true
	s.DBContent = strings.Join(texts, "\n\n---\n\n")
	s.DBDate = recs[0].CreatedAt
	w.log.Infof("found %d cached research records for %q, newest from %s", len(recs), s.Topic, s.DBDate.Format("2006-01-02"))
	return s, nil
}

// askDateRelevant asks the user whether cached research is recent enough
// to reuse. The node runs twice: once to pose the question (pausing the
// graph) and once more after the user answers.
func (w *Workflow) askDateRelevant(ctx context.Context, s State) (State, error) {
	if s.DBContent == "" {
		no := false
		s.DateConfirmed = &no
		return s, nil
	}
	if s.DateConfirmed != nil {
		return s, nil
	}

	if m, ok := s.LastMessage(); ok && m.Role == RoleUser {
		if v, answered := parseYesNo(m.Content); answered {
			s.DateConfirmed = &v
			return s, nil
		}
	}

	q := fmt.Sprintf(
		"I already have research on %s from %s. Is that date recent enough for your post? (yes/no)",
		s.Topic, s.DBDate.Format("02/01/2006"),
	)
	s.AddAssistant(q)
	return s, &graph.NodeInterrupt{Value: Pause{Question: q, State: s}}
}

// fetchDB promotes the cached research into the working set used by
// generation.
func (w *Workflow) fetchDB(ctx context.Context, s State) (State, error) {
	s.CoreTexts = []string{s.DBContent}
	w.log.Infof("reusing cached research for %q", s.Topic)
	return s, nil
}
