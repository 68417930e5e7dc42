// Package workflow implements the conversational content-generation
// pipeline as a state graph: topic extraction, research (fresh or cached),
// relevance rating and dual-channel content generation.
package workflow

import (
	"time"

	"github.com/kataras/golog"
	"github.com/smallnest/langgraphgo/graph"

	"github.com/postforge/postforge/config"
	"github.com/postforge/postforge/provider"
)

// Pause is the interrupt payload handed back when a node needs user input.
// It carries the state as the node left it, because the graph reports the
// state from before the interrupted node ran.
type Pause struct {
	Question string `json:"question"`
	State    State  `json:"state"`
}

// Workflow owns the graph nodes and their dependencies. Any provider may
// be nil; nodes skip what is not configured.
type Workflow struct {
	llm      provider.LLM
	search   provider.Searcher
	video    provider.VideoSearcher
	forum    provider.ForumSearcher
	research ResearchStore
	cfg      config.WorkflowConfig
	log      *golog.Logger
	now      func() time.Time
	readPage func(url string, timeout time.Duration) (string, error)
}

// New builds a Workflow. llm is required, the rest may be nil.
func New(llm provider.LLM, search provider.Searcher, video provider.VideoSearcher, forum provider.ForumSearcher, research ResearchStore, cfg config.WorkflowConfig, log *golog.Logger) *Workflow {
	if log == nil {
		log = golog.Default
	}
	return &Workflow{
		llm:      llm,
		search:   search,
		video:    video,
		forum:    forum,
		research: research,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		readPage: readPage,
	}
}

// Graph wires the nodes and edges. Kept separate from Compile so the
// structure can also be exported for visualization.
func (w *Workflow) Graph() *graph.StateGraph[State] {
	g := graph.NewStateGraph[State]()

	g.AddNode(NodeTopicExtraction, "Classify the request into a topic", w.topicExtraction)
	g.AddNode(NodeCheckDB, "Look for recent research on the topic", w.checkDB)
	g.AddNode(NodeAskDateRelevant, "Ask whether cached research is still relevant", w.askDateRelevant)
	g.AddNode(NodeFetchDB, "Load cached research", w.fetchDB)
	g.AddNode(NodeFindURL, "Discover viral sources across providers", w.findURLs)
	g.AddNode(NodeCoreTextExtraction, "Extract primary text from sources", w.coreTextExtraction)
	g.AddNode(NodeRateRelevance, "Rate and keep the most relevant texts", w.rateRelevance)
	g.AddNode(NodeGenerateContent, "Generate the channel posts", w.generateContent)
	g.AddNode(NodeOutput, "Compose the final reply", w.output)

	g.SetEntryPoint(NodeTopicExtraction)

	g.AddConditionalEdge(NodeTopicExtraction, w.afterTopicExtraction)
	g.AddConditionalEdge(NodeCheckDB, w.afterCheckDB)
	g.AddConditionalEdge(NodeAskDateRelevant, w.afterAskDateRelevant)
	g.AddEdge(NodeFetchDB, NodeGenerateContent)
	g.AddEdge(NodeFindURL, NodeCoreTextExtraction)
	g.AddEdge(NodeCoreTextExtraction, NodeRateRelevance)
	g.AddEdge(NodeRateRelevance, NodeGenerateContent)
	g.AddConditionalEdge(NodeGenerateContent, w.afterGenerateContent)
	g.AddEdge(NodeOutput, graph.END)

	return g
}

// Compile returns the runnable graph.
func (w *Workflow) Compile() (*graph.StateRunnable[State], error) {
	return w.Graph().Compile()
}

// Mermaid renders the graph structure as a mermaid flowchart.
func (w *Workflow) Mermaid() string {
	return graph.NewExporter(w.Graph()).DrawMermaid()
}
