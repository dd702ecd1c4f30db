package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultClaudeModel is the model used for all stage completions.
const DefaultClaudeModel = "claude-sonnet-4-5"

// AnthropicLLM is the Claude-backed LLM adapter.
type AnthropicLLM struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicLLM creates the adapter. An empty model selects
// DefaultClaudeModel.
func NewAnthropicLLM(apiKey, model string) *AnthropicLLM {
	if model == "" {
		model = DefaultClaudeModel
	}
	return &AnthropicLLM{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

func (a *AnthropicLLM) params(system, user string, maxTokens int, temperature float64) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       a.model,
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}

// Complete runs a single blocking completion and returns the concatenated
// text blocks.
func (a *AnthropicLLM) Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	msg, err := a.client.Messages.New(ctx, a.params(system, user, maxTokens, temperature))
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		text += block.Text
	}
	return text, nil
}

// StreamComplete yields text deltas as Claude produces them. The returned
// channel closes when the message ends; a mid-stream provider failure is
// logged and closes the channel early with whatever arrived so far.
func (a *AnthropicLLM) StreamComplete(ctx context.Context, system, user string, maxTokens int, temperature float64) (<-chan string, error) {
	stream := a.client.Messages.NewStreaming(ctx, a.params(system, user, maxTokens, temperature))

	out := make(chan string, 16)
	go func() {
		defer close(out)
		for stream.Next() {
			event := stream.Current()
			switch ev := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				switch delta := ev.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					if delta.Text == "" {
						continue
					}
					select {
					case out <- delta.Text:
					case <-ctx.Done():
						return
					}
				}
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			slog.Warn("Anthropic stream ended with error", "error", err)
		}
	}()
	return out, nil
}
