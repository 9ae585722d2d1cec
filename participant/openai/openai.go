// Package openai provides a participant backed by the OpenAI Chat
// Completions API.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/deliberate/participant"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultSystemPrompt steers the model toward cooperative convergence.
const DefaultSystemPrompt = "You are a cooperative AI participating in a multi-AI consensus discussion. " +
	"Your goal is to find common ground and agree efficiently."

// Options configures the OpenAI participant. Fields mirror a subset of the
// Chat Completion parameters intentionally kept minimal.
type Options struct {
	Name                string
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	SystemPrompt        string
	APIKey              string
}

// Participant wraps the OpenAI Chat Completions API behind the generic
// participant.Participant interface.
type Participant struct {
	client *openai.Client
	opts   Options
}

// New creates an OpenAI participant using the official client.
func New(optFns ...func(o *Options)) *Participant {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)

	return &Participant{client: &client, opts: opts}
}

// NewFromClient creates an OpenAI participant from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Participant {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Participant{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Name:                "openai",
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 2048,
		SystemPrompt:        DefaultSystemPrompt,
	}
}

// Name implements participant.Participant.
func (p *Participant) Name() string { return p.opts.Name }

// Generate implements participant.Participant.
func (p *Participant) Generate(ctx context.Context, req participant.Request) (string, error) {
	content := req.Prompt
	if req.Transcript != "" {
		content = req.Transcript + "\n\n" + req.Prompt
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: p.opts.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.opts.SystemPrompt),
			openai.UserMessage(content),
		},
		Temperature:         openai.Float(p.opts.Temperature),
		MaxCompletionTokens: openai.Int(p.opts.MaxCompletionTokens),
	})
	if err != nil {
		return "", classify(p.opts.Name, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", participant.NewRetryableError(p.opts.Name, fmt.Errorf("empty response from model %s", p.opts.Model))
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps SDK failures onto the engine's retryable/permanent split.
func classify(name string, err error) error {
	var apierr *openai.Error
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
