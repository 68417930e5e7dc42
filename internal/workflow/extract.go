package workflow

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
)

// coreTextExtraction pulls primary text from each discovered URL. The
// search provider's batch extraction is tried first; URLs it misses fall
// back to local readability parsing. URLs that yield no text are dropped,
// keeping SourceURLs and CoreTexts aligned.
func (w *Workflow) coreTextExtraction(ctx context.Context, s State) (State, error) {
	urls := s.AllURLs()
	if len(urls) == 0 {
		w.log.Warnf("no sources discovered for %q, generating from the request alone", s.Topic)
		return s, nil
	}

	extracted := make(map[string]string)
	if w.search != nil {
		extractCtx, cancel := context.WithTimeout(ctx, w.cfg.ProviderTimeout)
		m, err := w.search.Extract(extractCtx, urls)
		cancel()
		if err != nil {
			providerErrors.WithLabelValues("extract").Inc()
			w.log.Warnf("batch extraction failed: %v", err)
		} else {
			extracted = m
		}
	}

	s.SourceURLs = nil
	s.CoreTexts = nil
	for _, u := range urls {
		text := strings.TrimSpace(extracted[u])
		if text == "" {
			text = w.readable(u)
		}
		if text == "" {
			w.log.Debugf("no core text for %s, skipping", u)
			continue
		}
		text = truncate(text, w.cfg.MaxSourceChars)
		s.SourceURLs = append(s.SourceURLs, u)
		s.CoreTexts = append(s.CoreTexts, text)
	}

	w.log.Infof("extracted core text from %d of %d sources", len(s.CoreTexts), len(urls))
	return s, nil
}

func (w *Workflow) readable(url string) string {
	text, err := w.readPage(url, w.cfg.ProviderTimeout)
	if err != nil {
		w.log.Debugf("readability fallback failed for %s: %v", url, err)
		return ""
	}
	return strings.TrimSpace(text)
}

func readPage(url string, timeout time.Duration) (string, error) {
	article, err := readability.FromURL(url, timeout)
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}

// truncate cuts text to at most max bytes without splitting a UTF-8 rune.
func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}
	return text[:max]
}
