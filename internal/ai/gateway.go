// Package ai talks to the external generative-text engine that produces
// "The Mirror" — the brutal-but-constructive critique of a developer's stats.
//
// The gateway is deliberately thin: one prompt in, one raw text out. No
// streaming, no retries, no caching of results — the engine is stochastic and
// two identical requests may legitimately return different text.
package ai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Gateway submits a stats digest to the analysis engine and returns its
// output verbatim. Implementations wrap the digest in the fixed Mirror
// instructional template before sending.
type Gateway interface {
	Analyze(ctx context.Context, digest string) (string, error)
}

// ErrAnalysisFailed is the sentinel wrapped by every gateway failure.
// Handlers map it to a generic "try again" response; the underlying cause is
// logged, never sent to the client.
var ErrAnalysisFailed = errors.New("analysis failed")

// mirrorPrompt is the fixed instructional template. The %s is the digest —
// one line per connected platform.
const mirrorPrompt = `You are "The Mirror", a ruthless senior engineer and career coach.
Your goal is to critique this developer's stats brutally but constructively.
Identify gaps, weakness, and tell them the "Brutal Reality" of their hireability.
Finally, give a 30-day roadmap in Markdown.

Developer Stats:
%s

Output Format:
Markdown with sections: "The Verdict", "Weaknesses", "The Brutal Reality", "30-Day Redemption Plan".`

// DefaultModel is used when OPENAI_MODEL isn't configured.
const DefaultModel = openai.GPT4oMini

// OpenAIGateway is a Gateway backed by the OpenAI chat completions API.
type OpenAIGateway struct {
	client *openai.Client
	model  string
}

var _ Gateway = (*OpenAIGateway)(nil)

// NewOpenAIGateway creates a gateway for the given API key and model.
// An empty model falls back to DefaultModel.
func NewOpenAIGateway(apiKey, model string) *OpenAIGateway {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIGateway{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Analyze wraps the digest in the Mirror template, makes a single chat
// completion call, and returns the engine's text unmodified.
func (g *OpenAIGateway) Analyze(ctx context.Context, digest string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(mirrorPrompt, digest),
			},
		},
	})
	if err != nil {
		// Keep the context error in the chain so a deadline is
		// distinguishable from an API failure.
		return "", fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: engine returned no choices", ErrAnalysisFailed)
	}

	return resp.Choices[0].Message.Content, nil
}
