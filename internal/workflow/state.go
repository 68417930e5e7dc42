package workflow

import (
	"time"

	"github.com/postforge/postforge/provider"
)

// Role tags a chat message with its author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn of the conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// State is the conversation state threaded through the workflow. Nodes
// receive it by value, append to the slice fields and return the updated
// copy; messages are append-only within a turn.
//
// SourceURLs, CoreTexts and RelevanceScores are aligned: index i of each
// refers to the same source. Rating truncates all three together.
type State struct {
	Messages   []Message `json:"messages"`
	Topic      string    `json:"topic"`
	Details    string    `json:"details"`
	RetryCount int       `json:"retry_count"`

	SearchURLs []string `json:"search_urls,omitempty"`
	VideoURLs  []string `json:"video_urls,omitempty"`
	ForumURLs  []string `json:"forum_urls,omitempty"`

	SourceURLs      []string  `json:"source_urls,omitempty"`
	CoreTexts       []string  `json:"core_texts,omitempty"`
	RelevanceScores []float64 `json:"relevance_scores,omitempty"`

	GeneratedContent map[string]string `json:"generated_content,omitempty"`

	// Cache-reuse branch. DateConfirmed is tri-state: nil means the user
	// has not answered the ask-date question yet.
	TopicInDB     bool      `json:"topic_in_db"`
	DBContent     string    `json:"db_content,omitempty"`
	DBDate        time.Time `json:"db_date,omitempty"`
	DateConfirmed *bool     `json:"date_confirmed,omitempty"`
}

// AddUser appends a user message.
func (s *State) AddUser(content string) {
	s.Messages = append(s.Messages, Message{Role: RoleUser, Content: content})
}

// AddAssistant appends an assistant message.
func (s *State) AddAssistant(content string) {
	s.Messages = append(s.Messages, Message{Role: RoleAssistant, Content: content})
}

// LastMessage returns the most recent message.
func (s State) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// FirstUserMessage returns the original user request.
func (s State) FirstUserMessage() string {
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			return m.Content
		}
	}
	return ""
}

// AllURLs combines the per-provider URL lists, search first.
func (s State) AllURLs() []string {
	urls := make([]string, 0, len(s.SearchURLs)+len(s.VideoURLs)+len(s.ForumURLs))
	urls = append(urls, s.SearchURLs...)
	urls = append(urls, s.VideoURLs...)
	urls = append(urls, s.ForumURLs...)
	return urls
}

// History converts the messages into the provider chat format.
func (s State) History() []provider.ChatMessage {
	out := make([]provider.ChatMessage, len(s.Messages))
	for i, m := range s.Messages {
		out[i] = provider.ChatMessage{Role: string(m.Role), Content: m.Content}
	}
	return out
}
