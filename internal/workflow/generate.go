package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

const linkedinSystemPrompt = `You are an expert LinkedIn content writer.
Write a professional LinkedIn post based on the user's request and the
research material provided. The post should be engaging, insightful and
written for a professional audience. Include a hook in the first line,
3-5 short paragraphs and a handful of relevant hashtags at the end.
Return only the post text.`

const videoScriptSystemPrompt = `You are an expert short-form video
scriptwriter for Instagram Reels and TikTok. Write a script based on the
user's request and the research material provided. The script should open
with a strong hook in the first three seconds, be 30-60 seconds when read
aloud and include visual direction cues in brackets. Return only the
script.`

const generationFailedMessage = "I'm sorry, I wasn't able to generate content for your request right now. Please try again in a moment."

func (w *Workflow) generationPrompt(s State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User request: %s\n", s.FirstUserMessage())
	fmt.Fprintf(&b, "Topic: %s\n", s.Topic)
	if s.Details != "" {
		fmt.Fprintf(&b, "Details: %s\n", s.Details)
	}
	if len(s.CoreTexts) > 0 {
		research := truncate(strings.Join(s.CoreTexts, "\n\n---\n\n"), w.cfg.MaxSourceChars)
		fmt.Fprintf(&b, "\nResearch material:\n%s\n", research)
	}
	return b.String()
}

// generateContent produces the two channel posts concurrently. A channel
// that fails is dropped; the turn only fails outright when both do.
func (w *Workflow) generateContent(ctx context.Context, s State) (State, error) {
	prompt := w.generationPrompt(s)
	systems := map[string]string{
		ChannelLinkedIn:    linkedinSystemPrompt,
		ChannelVideoScript: videoScriptSystemPrompt,
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		content = make(map[string]string)
	)
	for channel, system := range systems {
		wg.Add(1)
		go func(channel, system string) {
			defer wg.Done()
			text, err := w.llm.Generate(ctx, system, prompt)
			if err != nil {
				providerErrors.WithLabelValues("llm").Inc()
				w.log.Errorf("generating %s content failed: %v", channel, err)
				return
			}
			mu.Lock()
			content[channel] = text
			mu.Unlock()
		}(channel, system)
	}
	wg.Wait()

	if len(content) == 0 {
		s.AddAssistant(generationFailedMessage)
		return s, nil
	}
	s.GeneratedContent = content
	return s, nil
}

// output composes the final assistant reply from whichever channels
// generated successfully.
func (w *Workflow) output(ctx context.Context, s State) (State, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Here's your content on %s", s.Topic)
	if s.Details != "" {
		fmt.Fprintf(&b, " (%s)", s.Details)
	}
	b.WriteString("!\n")
	if len(s.CoreTexts) == 0 {
		b.WriteString("\nNote: I couldn't find fresh sources, so this is based on your request alone.\n")
	}

	if post, ok := s.GeneratedContent[ChannelLinkedIn]; ok {
		b.WriteString("\n## LinkedIn post\n\n")
		b.WriteString(post)
		b.WriteString("\n")
	}
	if script, ok := s.GeneratedContent[ChannelVideoScript]; ok {
		b.WriteString("\n## Instagram/TikTok script\n\n")
		b.WriteString(script)
		b.WriteString("\n")
	}
	if len(s.SourceURLs) > 0 {
		b.WriteString("\nSources:\n")
		for _, u := range s.SourceURLs {
			fmt.Fprintf(&b, "- %s\n", u)
		}
	}

	s.AddAssistant(b.String())
	return s, nil
}
