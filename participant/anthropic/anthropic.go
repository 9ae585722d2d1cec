// Package anthropic provides a participant backed by the Anthropic Messages
// API. It adapts the deliberation request (round prompt + shared transcript)
// into a single-turn message exchange.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/deliberate/participant"
)

// DefaultSystemPrompt steers the model toward cooperative convergence.
const DefaultSystemPrompt = "You are a cooperative AI participating in a multi-AI consensus discussion. " +
	"Your goal is to find common ground and agree efficiently."

// Options configures the Anthropic participant (model id, temperature, max
// tokens, system prompt, API key). Extend via functional options to preserve
// stability.
type Options struct {
	Name         string
	Model        anthropic.Model
	Temperature  float64
	MaxTokens    int64
	SystemPrompt string
	APIKey       string
}

// Participant wraps the Anthropic Messages API behind the generic
// participant.Participant interface.
type Participant struct {
	client *anthropic.Client
	opts   Options
}

// New creates an Anthropic participant using the official client.
func New(optFns ...func(o *Options)) *Participant {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Participant{client: &client, opts: opts}
}

// NewFromClient creates an Anthropic participant from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Participant {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Participant{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Name:         "anthropic",
		Model:        anthropic.ModelClaude3_5Sonnet20241022,
		Temperature:  0.7,
		MaxTokens:    2048,
		SystemPrompt: DefaultSystemPrompt,
	}
}

// Name implements participant.Participant.
func (p *Participant) Name() string { return p.opts.Name }

// Generate implements participant.Participant. The transcript, when present,
// precedes the round prompt in the user turn so the model sees the full
// deliberation context.
func (p *Participant) Generate(ctx context.Context, req participant.Request) (string, error) {
	content := req.Prompt
	if req.Transcript != "" {
		content = req.Transcript + "\n\n" + req.Prompt
	}

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.opts.Model,
		MaxTokens: p.opts.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(content)),
		},
		System: []anthropic.TextBlockParam{
			{Text: p.opts.SystemPrompt},
		},
		Temperature: anthropic.Float(p.opts.Temperature),
	})
	if err != nil {
		return "", classify(p.opts.Name, err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}
	if text == "" {
		return "", participant.NewRetryableError(p.opts.Name, fmt.Errorf("empty response from model %s", p.opts.Model))
	}
	return text, nil
}

// classify maps SDK failures onto the engine's retryable/permanent split.
// Auth and request-shape errors are permanent; rate limits, timeouts and
// server errors are retried.
func classify(name string, err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case 400, 401, 403, 404, 422:
			return participant.NewPermanentError(name, err)
		default:
			return participant.NewRetryableError(name, err)
		}
	}
	return participant.NewRetryableError(name, err)
}
