package openai_provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/postforge/postforge/provider"
)

// Client implements provider.LLM using the OpenAI chat completions API.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
}

// New creates a new OpenAI-backed LLM client. baseURL may be empty for the
// default endpoint.
func New(apiKey, baseURL, model string, temperature float32, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temperature,
	}
}

const topicSystemPrompt = `You are a social media content organizer. Analyze the user's messages and extract:
1. "topic": MUST be exactly one of these predefined topics: %s.
   If the message is unclear, nonsensical, or does not match any of them, return an empty string.
2. "details": the specific sub-topic or aspect the user wants covered (e.g. "football, european league" for sports). Empty string when none given.

Respond with a JSON object containing exactly the fields "topic" and "details".`

// ExtractTopic classifies the conversation into the given taxonomy using a
// JSON-object structured response.
func (c *Client) ExtractTopic(ctx context.Context, history []provider.ChatMessage, topics []string) (provider.TopicResult, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: fmt.Sprintf(topicSystemPrompt, strings.Join(topics, ", ")),
	})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	var out provider.TopicResult
	if err := c.completeJSON(ctx, messages, &out); err != nil {
		return provider.TopicResult{}, err
	}
	out.Topic = strings.TrimSpace(strings.ToLower(out.Topic))
	out.Details = strings.TrimSpace(out.Details)
	return out, nil
}

const relevanceSystemPrompt = `You are a content relevance evaluator. Rate how well the core text matches the user's content request, from 0.0 (completely irrelevant) to 1.0 (highly relevant). Consider how well the text addresses the topic and details, the depth of information, and its usefulness for social media content.

Respond with a JSON object containing "relevance_score" (number) and "explanation" (string).`

// RateRelevance scores one core text against the original user request.
func (c *Client) RateRelevance(ctx context.Context, userRequest, coreText string) (provider.Relevance, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: relevanceSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("User Request: %s\n\nCore Text: %s", userRequest, coreText)},
	}

	var out provider.Relevance
	if err := c.completeJSON(ctx, messages, &out); err != nil {
		return provider.Relevance{}, err
	}
	if out.Score < 0 {
		out.Score = 0
	}
	if out.Score > 1 {
		out.Score = 1
	}
	return out, nil
}

// Generate produces free-form text.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// completeJSON runs a chat completion in JSON-object mode and unmarshals the
// reply into out.
func (c *Client) completeJSON(ctx context.Context, messages []openai.ChatCompletionMessage, out any) error {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("chat completion returned no choices")
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), out); err != nil {
		return fmt.Errorf("decoding structured reply: %w", err)
	}
	return nil
}
