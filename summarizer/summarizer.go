// Package summarizer turns transcripts and project context into model output.
package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"trackboard/project"
)

var ErrEmptyCompletion = errors.New("model returned an empty completion")

// Completer runs one prompt and returns the model's text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Client struct {
	completer Completer
}

func New(completer Completer) *Client {
	return &Client{completer: completer}
}

// SummarizeConversation produces bullet points of the decisions and completed
// actions in a conversation block.
func (c *Client) SummarizeConversation(ctx context.Context, block string) (string, error) {
	block = strings.TrimSpace(block)
	if block == "" {
		return "", errors.New("conversation block is empty")
	}

	out, err := c.completer.Complete(ctx, conversationPrompt(block))
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}

// SuggestProjects asks the model for the projects the user is likely working
// on. Names in existing are skipped, as are items without a name.
func (c *Client) SuggestProjects(ctx context.Context, focus string, existing []string) ([]project.NewProject, error) {
	out, err := c.completer.Complete(ctx, suggestPrompt(focus, existing))
	if err != nil {
		return nil, err
	}

	raw, err := extractJSONArray(out)
	if err != nil {
		return nil, err
	}

	var items []project.NewProject
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode suggested projects: %w", err)
	}

	known := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		known[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}

	suggestions := make([]project.NewProject, 0, len(items))
	for _, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		item.Summary = strings.TrimSpace(item.Summary)
		key := strings.ToLower(item.Name)
		if item.Name == "" {
			continue
		}
		if _, ok := known[key]; ok {
			continue
		}
		known[key] = struct{}{}
		suggestions = append(suggestions, item)
	}
	return suggestions, nil
}

func conversationPrompt(block string) string {
	return fmt.Sprintf(`The following is a conversation between a user and an AI. Summarize the key activities and decisions that were made during this conversation in a concise and actionable format:

%s

Provide the summary in a bullet-point format. Focus on decisions, completed actions, or important discussions.`, block)
}

func suggestPrompt(focus string, existing []string) string {
	var b strings.Builder
	b.WriteString("You are an assistant that tracks projects. Based on my current focus areas, provide a list of projects I'm working on.\n")
	if focus = strings.TrimSpace(focus); focus != "" {
		fmt.Fprintf(&b, "\nMy current focus areas:\n%s\n", focus)
	}
	if len(existing) > 0 {
		fmt.Fprintf(&b, "\nI already track these projects, do not repeat them:\n- %s\n", strings.Join(existing, "\n- "))
	}
	b.WriteString(`
Output ONLY a JSON array, no markdown, no explanations. Each item must match:
{"project_name": "<name>", "summary": "<one sentence>", "in_progress": true|false}`)
	return b.String()
}

// extractJSONArray returns the text between the first '[' and the last ']'.
func extractJSONArray(s string) (string, error) {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end <= start {
		return "", errors.New("no JSON array found in response")
	}
	return s[start : end+1], nil
}
