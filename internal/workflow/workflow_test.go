package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/smallnest/langgraphgo/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postforge/postforge/config"
	"github.com/postforge/postforge/provider"
)

type fakeLLM struct {
	extractFn  func(history []provider.ChatMessage) (provider.TopicResult, error)
	rateFn     func(request, text string) (provider.Relevance, error)
	generateFn func(system, user string) (string, error)
}

func (f *fakeLLM) ExtractTopic(ctx context.Context, history []provider.ChatMessage, topics []string) (provider.TopicResult, error) {
	return f.extractFn(history)
}

func (f *fakeLLM) RateRelevance(ctx context.Context, request, text string) (provider.Relevance, error) {
	if f.rateFn == nil {
		return provider.Relevance{Score: 0.5}, nil
	}
	return f.rateFn(request, text)
}

func (f *fakeLLM) Generate(ctx context.Context, system, user string) (string, error) {
	if f.generateFn == nil {
		return "generated", nil
	}
	return f.generateFn(system, user)
}

type fakeSearcher struct {
	results []provider.SearchResult
	texts   map[string]string
}

func (f *fakeSearcher) Search(ctx context.Context, query string, maxResults int) ([]provider.SearchResult, error) {
	return f.results, nil
}

func (f *fakeSearcher) Extract(ctx context.Context, urls []string) (map[string]string, error) {
	return f.texts, nil
}

type fakeVideo struct{ urls []string }

func (f *fakeVideo) Search(ctx context.Context, query string, publishedAfter time.Time, maxResults int) ([]string, error) {
	return f.urls, nil
}

type fakeForum struct{ posts []provider.ForumPost }

func (f *fakeForum) Search(ctx context.Context, query, sort string, limit int) ([]provider.ForumPost, error) {
	return f.posts, nil
}

type fakeResearch struct {
	mu      sync.Mutex
	records []ResearchRecord
	findErr error
}

func (f *fakeResearch) FindRecent(ctx context.Context, topic string, since time.Time) ([]ResearchRecord, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ResearchRecord
	for _, r := range f.records {
		if r.Topic == topic && r.CreatedAt.After(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResearch) Insert(ctx context.Context, rec ResearchRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func testConfig() config.WorkflowConfig {
	return config.WorkflowConfig{
		TopicRetryLimit:  2,
		URLsPerProvider:  2,
		TopTexts:         2,
		ResearchLookback: 90 * 24 * time.Hour,
		SourceRecency:    30 * 24 * time.Hour,
		ForumMinScore:    10,
		ForumMinComments: 5,
		ProviderTimeout:  5 * time.Second,
		MaxSourceChars:   24000,
	}
}

func techLLM() *fakeLLM {
	return &fakeLLM{
		extractFn: func(history []provider.ChatMessage) (provider.TopicResult, error) {
			return provider.TopicResult{Topic: "tech", Details: "AI trends"}, nil
		},
		generateFn: func(system, user string) (string, error) {
			if strings.Contains(system, "LinkedIn") {
				return "linkedin post", nil
			}
			return "video script", nil
		},
	}
}

func initialState(text string) State {
	var s State
	s.AddUser(text)
	return s
}

func TestFullRunGeneratesBothChannels(t *testing.T) {
	now := time.Now()
	search := &fakeSearcher{
		results: []provider.SearchResult{
			{URL: "https://a.example/article", PublishedAt: now.Add(-24 * time.Hour)},
			{URL: "https://b.example/article", PublishedAt: now.Add(-48 * time.Hour)},
		},
		texts: map[string]string{
			"https://a.example/article": "core text a",
			"https://b.example/article": "core text b",
		},
	}
	research := &fakeResearch{}
	wf := New(techLLM(), search, nil, nil, research, testConfig(), nil)
	runner, err := wf.Compile()
	require.NoError(t, err)

	final, err := runner.Invoke(context.Background(), initialState("make a post about AI"))
	require.NoError(t, err)

	assert.Equal(t, "tech", final.Topic)
	assert.Equal(t, "linkedin post", final.GeneratedContent[ChannelLinkedIn])
	assert.Equal(t, "video script", final.GeneratedContent[ChannelVideoScript])

	msg, ok := final.LastMessage()
	require.True(t, ok)
	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Contains(t, msg.Content, "linkedin post")
	assert.Contains(t, msg.Content, "video script")
	assert.Contains(t, msg.Content, "https://a.example/article")

	// The kept sources were persisted for future reuse.
	assert.Len(t, research.records, 2)
	assert.Equal(t, "tech", research.records[0].Topic)
}

func TestTopicClarificationInterrupt(t *testing.T) {
	llm := &fakeLLM{
		extractFn: func(history []provider.ChatMessage) (provider.TopicResult, error) {
			return provider.TopicResult{}, nil
		},
	}
	wf := New(llm, nil, nil, nil, nil, testConfig(), nil)
	runner, err := wf.Compile()
	require.NoError(t, err)

	_, err = runner.Invoke(context.Background(), initialState("hello"))
	var gi *graph.GraphInterrupt
	require.ErrorAs(t, err, &gi)
	assert.Equal(t, []string{NodeTopicExtraction}, gi.NextNodes)

	pause, ok := gi.InterruptValue.(Pause)
	require.True(t, ok)
	assert.Equal(t, clarificationMessage, pause.Question)
	assert.Equal(t, 1, pause.State.RetryCount)

	msg, ok := pause.State.LastMessage()
	require.True(t, ok)
	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Equal(t, clarificationMessage, msg.Content)
}

func TestTopicApologyAfterRetryLimit(t *testing.T) {
	calls := 0
	llm := &fakeLLM{
		extractFn: func(history []provider.ChatMessage) (provider.TopicResult, error) {
			calls++
			return provider.TopicResult{Topic: "not-a-topic"}, nil
		},
	}
	wf := New(llm, nil, nil, nil, nil, testConfig(), nil)

	s := initialState("hello")
	s.RetryCount = 2

	out, err := wf.topicExtraction(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, out.Topic)

	// The exhausted turn must not hit the classifier again.
	assert.Zero(t, calls)

	msg, _ := out.LastMessage()
	assert.Equal(t, apologyMessage, msg.Content)
	assert.Equal(t, graph.END, wf.afterTopicExtraction(context.Background(), out))
}

func TestTopicApologyEvenWhenLLMIsDown(t *testing.T) {
	llm := &fakeLLM{
		extractFn: func(history []provider.ChatMessage) (provider.TopicResult, error) {
			return provider.TopicResult{}, errors.New("llm down")
		},
	}
	wf := New(llm, nil, nil, nil, nil, testConfig(), nil)

	s := initialState("hello")
	s.RetryCount = 2

	out, err := wf.topicExtraction(context.Background(), s)
	require.NoError(t, err)
	msg, _ := out.LastMessage()
	assert.Equal(t, apologyMessage, msg.Content)
}

func TestTopicExtractionError(t *testing.T) {
	llm := &fakeLLM{
		extractFn: func(history []provider.ChatMessage) (provider.TopicResult, error) {
			return provider.TopicResult{}, errors.New("llm down")
		},
	}
	wf := New(llm, nil, nil, nil, nil, testConfig(), nil)

	_, err := wf.topicExtraction(context.Background(), initialState("hello"))
	require.Error(t, err)
}

func TestCheckDBFindsRecentResearch(t *testing.T) {
	research := &fakeResearch{records: []ResearchRecord{
		{Topic: "tech", CoreText: "cached text", CreatedAt: time.Now().Add(-24 * time.Hour)},
	}}
	wf := New(techLLM(), nil, nil, nil, research, testConfig(), nil)

	s := initialState("post about AI")
	s.Topic = "tech"

	out, err := wf.checkDB(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, out.TopicInDB)
	assert.Contains(t, out.DBContent, "cached text")
	assert.Equal(t, NodeAskDateRelevant, wf.afterCheckDB(context.Background(), out))
}

func TestCheckDBToleratesLookupFailure(t *testing.T) {
	research := &fakeResearch{findErr: errors.New("db down")}
	wf := New(techLLM(), nil, nil, nil, research, testConfig(), nil)

	s := initialState("post about AI")
	s.Topic = "tech"

	out, err := wf.checkDB(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, out.TopicInDB)
	assert.Equal(t, NodeFindURL, wf.afterCheckDB(context.Background(), out))
}

func TestCheckDBIgnoresStaleResearch(t *testing.T) {
	research := &fakeResearch{records: []ResearchRecord{
		{Topic: "tech", CoreText: "old", CreatedAt: time.Now().Add(-120 * 24 * time.Hour)},
	}}
	wf := New(techLLM(), nil, nil, nil, research, testConfig(), nil)

	s := initialState("post about AI")
	s.Topic = "tech"

	out, err := wf.checkDB(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, out.TopicInDB)
}

func TestAskDateRelevantAsksThenParsesAnswer(t *testing.T) {
	wf := New(techLLM(), nil, nil, nil, nil, testConfig(), nil)

	s := initialState("post about AI")
	s.Topic = "tech"
	s.DBContent = "cached"
	s.DBDate = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := wf.askDateRelevant(context.Background(), s)
	var ni *graph.NodeInterrupt
	require.ErrorAs(t, err, &ni)
	pause := ni.Value.(Pause)
	assert.Contains(t, pause.Question, "01/05/2026")

	// User confirms on the next turn.
	resumed := pause.State
	resumed.AddUser("yes")
	out, err := wf.askDateRelevant(context.Background(), resumed)
	require.NoError(t, err)
	require.NotNil(t, out.DateConfirmed)
	assert.True(t, *out.DateConfirmed)
	assert.Equal(t, NodeFetchDB, wf.afterAskDateRelevant(context.Background(), out))

	// Or declines, which routes to fresh research.
	declined := pause.State
	declined.AddUser("nope")
	out, err = wf.askDateRelevant(context.Background(), declined)
	require.NoError(t, err)
	require.NotNil(t, out.DateConfirmed)
	assert.False(t, *out.DateConfirmed)
	assert.Equal(t, NodeFindURL, wf.afterAskDateRelevant(context.Background(), out))
}

func TestAskDateRelevantReasksOnUnparseableAnswer(t *testing.T) {
	wf := New(techLLM(), nil, nil, nil, nil, testConfig(), nil)

	s := initialState("post about AI")
	s.Topic = "tech"
	s.DBContent = "cached"
	s.AddAssistant("Is that date recent enough for your post? (yes/no)")
	s.AddUser("what do you mean")

	_, err := wf.askDateRelevant(context.Background(), s)
	var ni *graph.NodeInterrupt
	require.ErrorAs(t, err, &ni)
}

func TestParseYesNo(t *testing.T) {
	cases := map[string]struct {
		value    bool
		answered bool
	}{
		"yes":    {true, true},
		"Yes.":   {true, true},
		" OKAY ": {true, true},
		"sure":   {true, true},
		"no":     {false, true},
		"Nope!":  {false, true},
		"maybe":  {false, false},
		"":       {false, false},
	}
	for in, want := range cases {
		got, answered := parseYesNo(in)
		assert.Equal(t, want.answered, answered, "answered for %q", in)
		if answered {
			assert.Equal(t, want.value, got, "value for %q", in)
		}
	}
}

func TestFindURLsFiltersAndCaps(t *testing.T) {
	now := time.Now()
	search := &fakeSearcher{results: []provider.SearchResult{
		{URL: "https://fresh.example/1", PublishedAt: now.Add(-24 * time.Hour)},
		{URL: "https://stale.example", PublishedAt: now.Add(-60 * 24 * time.Hour)},
		{URL: "https://undated.example"},
		{URL: "https://fresh.example/2", PublishedAt: now.Add(-48 * time.Hour)},
	}}
	video := &fakeVideo{urls: []string{
		"https://www.youtube.com/watch?v=one",
		"https://www.youtube.com/watch?v=two",
	}}
	forum := &fakeForum{posts: []provider.ForumPost{
		{URL: "https://viral.example", Score: 50, NumComments: 2, CreatedAt: now.Add(-time.Hour)},
		{URL: "https://quiet.example", Score: 1, NumComments: 1, CreatedAt: now.Add(-time.Hour)},
		{URL: "https://www.reddit.com/r/x/1", Score: 99, NumComments: 99, CreatedAt: now.Add(-time.Hour)},
		{URL: "https://discussed.example", Score: 2, NumComments: 40, CreatedAt: now.Add(-time.Hour)},
		{URL: "https://old.example", Score: 99, NumComments: 99, CreatedAt: now.Add(-90 * 24 * time.Hour)},
	}}

	wf := New(techLLM(), search, video, forum, nil, testConfig(), nil)
	s := initialState("post about AI")
	s.Topic = "tech"

	out, err := wf.findURLs(context.Background(), s)
	require.NoError(t, err)

	// Stale dropped, undated kept, capped at two per provider.
	assert.Equal(t, []string{"https://fresh.example/1", "https://undated.example"}, out.SearchURLs)
	assert.Len(t, out.VideoURLs, 2)
	// High score or high comments qualifies; self posts and old posts do not.
	assert.Equal(t, []string{"https://viral.example", "https://discussed.example"}, out.ForumURLs)
}

func TestFindURLsWithoutProviders(t *testing.T) {
	wf := New(techLLM(), nil, nil, nil, nil, testConfig(), nil)
	s := initialState("post about AI")
	s.Topic = "tech"

	out, err := wf.findURLs(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, out.AllURLs())
}

func TestCoreTextExtractionKeepsListsAligned(t *testing.T) {
	search := &fakeSearcher{texts: map[string]string{
		"https://a.example": "text a",
		"https://c.example": "text c",
	}}
	wf := New(techLLM(), search, nil, nil, nil, testConfig(), nil)
	var fellBack []string
	wf.readPage = func(url string, timeout time.Duration) (string, error) {
		fellBack = append(fellBack, url)
		return "", errors.New("unreachable")
	}

	s := initialState("post about AI")
	s.SearchURLs = []string{"https://a.example", "https://b.example", "https://c.example"}

	out, err := wf.coreTextExtraction(context.Background(), s)
	require.NoError(t, err)

	// b.example misses batch extraction, the fallback fails too, and it
	// is dropped from both lists.
	assert.Equal(t, []string{"https://b.example"}, fellBack)
	assert.Equal(t, []string{"https://a.example", "https://c.example"}, out.SourceURLs)
	assert.Equal(t, []string{"text a", "text c"}, out.CoreTexts)
}

func TestCoreTextExtractionFallbackFillsMisses(t *testing.T) {
	search := &fakeSearcher{texts: map[string]string{
		"https://a.example": "text a",
	}}
	wf := New(techLLM(), search, nil, nil, nil, testConfig(), nil)
	wf.readPage = func(url string, timeout time.Duration) (string, error) {
		return "fallback text\n", nil
	}

	s := initialState("post about AI")
	s.SearchURLs = []string{"https://a.example", "https://b.example"}

	out, err := wf.coreTextExtraction(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, out.SourceURLs)
	assert.Equal(t, []string{"text a", "fallback text"}, out.CoreTexts)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "h"}, // é is two bytes, cutting at 2 would split it
		{"日本語", 7, "日本"},  // each rune is three bytes
		{"日本語", 9, "日本語"},
		{"", 5, ""},
	}
	for _, c := range cases {
		got := truncate(c.in, c.max)
		assert.Equal(t, c.want, got, "truncate(%q, %d)", c.in, c.max)
		assert.True(t, utf8.ValidString(got), "truncate(%q, %d) split a rune", c.in, c.max)
	}
}

func TestRateRelevanceKeepsTopTexts(t *testing.T) {
	scores := map[string]float64{"low": 0.2, "mid": 0.5, "high": 0.9}
	llm := techLLM()
	llm.rateFn = func(request, text string) (provider.Relevance, error) {
		return provider.Relevance{Score: scores[text]}, nil
	}
	research := &fakeResearch{}
	wf := New(llm, nil, nil, nil, research, testConfig(), nil)

	s := initialState("post about AI")
	s.Topic = "tech"
	s.SourceURLs = []string{"u1", "u2", "u3"}
	s.CoreTexts = []string{"low", "high", "mid"}

	out, err := wf.rateRelevance(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, []string{"u2", "u3"}, out.SourceURLs)
	assert.Equal(t, []string{"high", "mid"}, out.CoreTexts)
	assert.Equal(t, []float64{0.9, 0.5}, out.RelevanceScores)
	assert.Len(t, research.records, 2)
}

func TestRateRelevanceSkipsFailedRatings(t *testing.T) {
	llm := techLLM()
	llm.rateFn = func(request, text string) (provider.Relevance, error) {
		if text == "bad" {
			return provider.Relevance{}, errors.New("rate limited")
		}
		return provider.Relevance{Score: 0.8}, nil
	}
	wf := New(llm, nil, nil, nil, nil, testConfig(), nil)

	s := initialState("post about AI")
	s.SourceURLs = []string{"u1", "u2"}
	s.CoreTexts = []string{"bad", "good"}

	out, err := wf.rateRelevance(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, out.SourceURLs)
	assert.Equal(t, []string{"good"}, out.CoreTexts)
}

func TestGenerateContentPartialFailure(t *testing.T) {
	llm := techLLM()
	llm.generateFn = func(system, user string) (string, error) {
		if strings.Contains(system, "LinkedIn") {
			return "", errors.New("llm hiccup")
		}
		return "video script", nil
	}
	wf := New(llm, nil, nil, nil, nil, testConfig(), nil)

	s := initialState("post about AI")
	s.Topic = "tech"

	out, err := wf.generateContent(context.Background(), s)
	require.NoError(t, err)
	assert.NotContains(t, out.GeneratedContent, ChannelLinkedIn)
	assert.Equal(t, "video script", out.GeneratedContent[ChannelVideoScript])
	assert.Equal(t, NodeOutput, wf.afterGenerateContent(context.Background(), out))
}

func TestGenerateContentTotalFailureEndsWithMessage(t *testing.T) {
	llm := techLLM()
	llm.generateFn = func(system, user string) (string, error) {
		return "", errors.New("llm down")
	}
	wf := New(llm, nil, nil, nil, nil, testConfig(), nil)

	s := initialState("post about AI")
	s.Topic = "tech"

	out, err := wf.generateContent(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, out.GeneratedContent)
	assert.Equal(t, graph.END, wf.afterGenerateContent(context.Background(), out))

	msg, _ := out.LastMessage()
	assert.Equal(t, generationFailedMessage, msg.Content)
}

func TestCachedResearchRun(t *testing.T) {
	// With cached research and a confirmed date the run skips discovery
	// entirely: no search provider is wired and it still completes.
	research := &fakeResearch{records: []ResearchRecord{
		{Topic: "tech", CoreText: "cached text", CreatedAt: time.Now().Add(-24 * time.Hour)},
	}}
	wf := New(techLLM(), nil, nil, nil, research, testConfig(), nil)
	runner, err := wf.Compile()
	require.NoError(t, err)

	s := initialState("post about AI")
	confirmed := true
	s.DateConfirmed = &confirmed

	final, err := runner.Invoke(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []string{"cached text"}, final.CoreTexts)
	assert.Len(t, final.GeneratedContent, 2)
}

func TestMermaidContainsAllNodes(t *testing.T) {
	wf := New(techLLM(), nil, nil, nil, nil, testConfig(), nil)
	m := wf.Mermaid()
	for _, node := range []string{
		NodeTopicExtraction, NodeCheckDB, NodeAskDateRelevant, NodeFetchDB,
		NodeFindURL, NodeCoreTextExtraction, NodeRateRelevance,
		NodeGenerateContent, NodeOutput,
	} {
		assert.Contains(t, m, node)
	}
}
